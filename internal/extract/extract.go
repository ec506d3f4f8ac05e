// Package extract converts PDF and DOCX bytes into normalized plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/screening"
)

const (
	DefaultMinTextLength = 20
	defaultMaxLogLength  = 120
)

type Options struct {
	// MinTextLength is the shortest text, in runes, accepted as content.
	MinTextLength int `mapstructure:"min-text-length"`
	MaxLogLength  int `mapstructure:"max-log-length"`
}

type Extractor struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Extractor {
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = DefaultMinTextLength
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract returns the normalized text of doc. Errors carry one of the
// per-document kinds from the screening package.
func (e *Extractor) Extract(ctx context.Context, doc screening.RawDocument) (screening.NormalizedText, error) {
	out := screening.NormalizedText{DocumentID: doc.ID}

	if len(doc.Bytes) == 0 {
		return out, screening.WrapError(screening.ErrEmptyContent, "extract "+doc.Filename, errors.New("document has no bytes"))
	}

	var (
		raw      string
		warnings []string
		err      error
	)
	switch doc.MimeType {
	case screening.MimePDF:
		raw, warnings, err = extractPDF(ctx, doc.Bytes)
	case screening.MimeDOCX:
		raw, warnings, err = extractDOCX(doc.Bytes)
	default:
		err = screening.WrapError(screening.ErrUnsupportedFormat, "extract", fmt.Errorf("mime type %q", doc.MimeType))
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return out, screening.WrapError(screening.ErrExtractionTimeout, "extract "+doc.Filename, err)
		}
		return out, fmt.Errorf("extract %s: %w", doc.Filename, err)
	}

	text, normWarnings, err := Normalize(raw)
	if err != nil {
		return out, fmt.Errorf("extract %s: %w", doc.Filename, err)
	}
	warnings = append(warnings, normWarnings...)

	if n := utf8.RuneCountInString(text); n < e.opts.MinTextLength {
		return out, screening.WrapError(screening.ErrEmptyContent, "extract "+doc.Filename,
			fmt.Errorf("%d characters extracted, minimum is %d", n, e.opts.MinTextLength))
	}

	logger.WithDocument(e.logger, doc.ID, doc.Filename).Debug("extracted document text",
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.Strings("warnings", warnings),
		zap.String("text_preview", logger.TruncateForLog(text, e.opts.MaxLogLength)),
	)

	out.Text = text
	out.Warnings = warnings
	return out, nil
}
