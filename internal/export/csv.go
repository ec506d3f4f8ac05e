package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/spigell/resume-screener/internal/screening"
)

var resultColumns = []string{"candidate_name", "score", "skills", "missing_skills", "decision"}

func resultRow(r *screening.MatchResult) []string {
	return []string{
		r.CandidateName,
		strconv.FormatFloat(r.Score, 'f', 4, 64),
		screening.JoinSkills(r.Skills),
		screening.JoinSkills(r.MissingSkills),
		string(r.Decision),
	}
}

// WriteCSV writes one row per result in the order given.
func WriteCSV(w io.Writer, results []*screening.MatchResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(resultColumns); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(resultRow(r)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
