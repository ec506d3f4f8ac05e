// Package export writes screening results as JSON, CSV or XLSX.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spigell/resume-screener/internal/screening"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// Report is the stable output contract of a batch.
type Report struct {
	Results  []*screening.MatchResult `json:"results"`
	Failures []screening.Failure      `json:"failures"`
}

func NewReport(results []*screening.MatchResult, failures []screening.Failure) *Report {
	r := &Report{Results: results, Failures: failures}
	if r.Results == nil {
		r.Results = []*screening.MatchResult{}
	}
	if r.Failures == nil {
		r.Failures = []screening.Failure{}
	}
	return r
}

func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatCSV:
		return WriteCSV(w, r.Results)
	case FormatXLSX:
		return WriteXLSX(w, r)
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}
}

func (r *Report) ToFile(path string, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := r.Write(file, format); err != nil {
		file.Close()
		return fmt.Errorf("writing %s report: %w", format, err)
	}

	return file.Close()
}

// ToTmpFile writes the report to a new temporary file and returns its name.
func (r *Report) ToTmpFile(format Format) (string, error) {
	file, err := os.CreateTemp("", "screening_*."+string(format))
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := r.Write(file, format); err != nil {
		return "", fmt.Errorf("writing %s report: %w", format, err)
	}
	return file.Name(), nil
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
