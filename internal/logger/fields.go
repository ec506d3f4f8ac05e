package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldDocumentID is the structured log field key for the document id.
	FieldDocumentID = "document_id"
	// FieldFilename is the structured log field key for the resume file name.
	FieldFilename = "filename"
	// FieldCandidate is the structured log field key for the candidate name.
	FieldCandidate = "candidate"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger, defaulting to
// a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// DocumentFields describes a document being processed. Empty values are
// left out.
func DocumentFields(documentID, filename string) []zap.Field {
	return StringFields(
		StringField{Key: FieldDocumentID, Value: documentID},
		StringField{Key: FieldFilename, Value: filename},
	)
}

// WithDocument attaches document fields to logger.
func WithDocument(logger *zap.Logger, documentID, filename string) *zap.Logger {
	return WithFields(logger, DocumentFields(documentID, filename)...)
}
