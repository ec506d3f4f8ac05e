// Package input resolves the job description and loads resume files into
// raw documents, rejecting anything that is not a PDF or DOCX file.
package input

import (
	"fmt"
	"os"
	"strings"

	"github.com/spigell/resume-screener/internal/screening"
)

// Source describes where a text input comes from.
type Source struct {
	// Name is used in error messages to give more context about the input.
	Name string
	// Value is inline text provided via configuration or flags.
	Value string
	// File points to a file holding the text. When set it takes precedence
	// over Value.
	File string
}

// LoadText returns the trimmed text of src. An empty result is reported as
// ErrEmptyJobDescription since the job description is the only text input.
func LoadText(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "job description"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
	}

	text := strings.TrimSpace(src.Value)
	if text == "" {
		if file != "" {
			return "", screening.WrapError(screening.ErrEmptyJobDescription, fmt.Sprintf("%s file %q", name, file), nil)
		}
		return "", screening.WrapError(screening.ErrEmptyJobDescription, name+" is not provided", nil)
	}

	return text, nil
}
