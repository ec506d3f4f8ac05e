package screening

import (
	"errors"
	"fmt"
)

// ErrorKind names a failure class that is reported to callers as data.
type ErrorKind string

const (
	KindCorruptDocument       ErrorKind = "CorruptDocument"
	KindUnsupportedEncoding   ErrorKind = "UnsupportedEncoding"
	KindEmptyContent          ErrorKind = "EmptyContent"
	KindExtractionTimeout     ErrorKind = "ExtractionTimeout"
	KindUnsupportedFormat     ErrorKind = "UnsupportedFormat"
	KindFileTooLarge          ErrorKind = "FileTooLarge"
	KindUnreadableFile        ErrorKind = "UnreadableFile"
	KindCancelled             ErrorKind = "Cancelled"
	KindEmptyJobDescription   ErrorKind = "EmptyJobDescription"
	KindJobDescriptionTooLong ErrorKind = "JobDescriptionTooLong"
	KindTaxonomyLoad          ErrorKind = "TaxonomyLoadError"
	KindUnknown               ErrorKind = "Unknown"
)

var (
	// Per-document errors. They end up in BatchRun.Failures.
	ErrCorruptDocument     = errors.New("corrupt document")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrEmptyContent        = errors.New("empty content")
	ErrExtractionTimeout   = errors.New("extraction timeout")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnreadableFile      = errors.New("unreadable file")
	ErrCancelled           = errors.New("cancelled before start")

	// Batch-fatal errors.
	ErrEmptyJobDescription   = errors.New("empty job description")
	ErrJobDescriptionTooLong = errors.New("job description too long")

	// Startup-fatal errors.
	ErrTaxonomyLoad = errors.New("taxonomy load error")
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrCorruptDocument, KindCorruptDocument},
	{ErrUnsupportedEncoding, KindUnsupportedEncoding},
	{ErrEmptyContent, KindEmptyContent},
	{ErrExtractionTimeout, KindExtractionTimeout},
	{ErrUnsupportedFormat, KindUnsupportedFormat},
	{ErrFileTooLarge, KindFileTooLarge},
	{ErrUnreadableFile, KindUnreadableFile},
	{ErrCancelled, KindCancelled},
	{ErrEmptyJobDescription, KindEmptyJobDescription},
	{ErrJobDescriptionTooLong, KindJobDescriptionTooLong},
	{ErrTaxonomyLoad, KindTaxonomyLoad},
}

// WrapError keeps the typed kind in the chain and adds operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", operation, kind)
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// KindOf classifies err. Errors outside the taxonomy are KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// IsFatal reports whether err must stop the whole batch.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindEmptyJobDescription, KindJobDescriptionTooLong, KindTaxonomyLoad:
		return true
	default:
		return false
	}
}
