package screening

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ResultDocumentIDField    = "DocumentID"
	ResultCandidateNameField = "CandidateName"
	ResultFilenameField      = "Filename"
)

// Results is an ordered, filterable list of match results.
type Results struct {
	Items []*MatchResult
}

type ExcludedCandidates struct {
	Items []*ExcludedCandidate `yaml:"items"`
}

type ExcludedCandidate struct {
	Name       string    `yaml:"name"`
	Filename   string    `yaml:"filename,omitempty"`
	ExcludedAt time.Time `yaml:"excluded_at"`
}

func (r *MatchResult) GetStringField(name string) string {
	switch name {
	case ResultDocumentIDField:
		return r.DocumentID
	case ResultCandidateNameField:
		return r.CandidateName
	case ResultFilenameField:
		return r.Filename
	default:
		return ""
	}
}

func (v *Results) Len() int {
	return len(v.Items)
}

// At returns the result at index, or nil when index is out of range. Names
// are not unique, so interactive selection goes by position.
func (v *Results) At(index int) *MatchResult {
	if index < 0 || index >= len(v.Items) {
		return nil
	}
	return v.Items[index]
}

// Keep drops every result for which keep returns false and returns the
// candidate names of the dropped ones. Order is preserved.
func (v *Results) Keep(keep func(*MatchResult) bool) []string {
	var dropped []string
	kept := v.Items[:0]
	for _, result := range v.Items {
		if keep(result) {
			kept = append(kept, result)
			continue
		}
		dropped = append(dropped, result.CandidateName)
	}
	clear(v.Items[len(kept):])
	v.Items = kept
	return dropped
}

// Exclude removes results whose field equals one of targets (case-insensitive).
func (v *Results) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[strings.ToLower(strings.TrimSpace(target))] = struct{}{}
	}
	return v.Keep(func(r *MatchResult) bool {
		_, found := set[strings.ToLower(r.GetStringField(name))]
		return !found
	})
}

func (v *Results) ReportByDecision() map[Decision][]map[string]string {
	report := make(map[Decision][]map[string]string)
	for _, result := range v.Items {
		report[result.Decision] = append(report[result.Decision], map[string]string{
			"candidate": result.CandidateName,
			"file":      result.Filename,
			"score":     fmt.Sprintf("%.4f", result.Score),
			"missing":   JoinSkills(result.MissingSkills),
		})
	}
	return report
}

func (v *Results) ToExcluded() *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	now := time.Now().UTC()
	for _, result := range v.Items {
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			Name:       result.CandidateName,
			Filename:   result.Filename,
			ExcludedAt: now,
		})
	}
	return excluded
}

// GetExcludedCandidatesFromFile reads an exclude list. A missing or empty file
// is an empty list.
func GetExcludedCandidatesFromFile(path string) (*ExcludedCandidates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedCandidates{}, nil
		}
		return nil, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := yaml.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("decoding exclude file %q: %w", path, err)
	}
	return &excluded, nil
}

func (v *ExcludedCandidates) Append(s *ExcludedCandidates) {
	v.Items = append(v.Items, s.Items...)
}

func (v *ExcludedCandidates) Names() []string {
	names := make([]string, 0, len(v.Items))
	for _, c := range v.Items {
		names = append(names, c.Name)
	}
	return names
}

func (v *ExcludedCandidates) ToFile(path string) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// JoinSkills renders a skill list the way exports and reports show it.
func JoinSkills(skills []SkillID) string {
	parts := make([]string, len(skills))
	for i, s := range skills {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
