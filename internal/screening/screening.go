// Package screening holds the data model shared by every pipeline stage:
// documents, extracted text, candidate profiles, job requirements and the
// results of a batch run.
package screening

import (
	"slices"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// SkillID is the canonical skill name after alias resolution.
type SkillID string

type Decision string

const (
	DecisionFit    Decision = "Fit"
	DecisionNotFit Decision = "NotFit"
)

// RawDocument is an uploaded resume. Bytes are dropped after extraction.
type RawDocument struct {
	ID       string
	Filename string
	MimeType string
	Bytes    []byte
}

type NormalizedText struct {
	DocumentID string
	Text       string
	Warnings   []string
}

type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// FuzzyMatch records a skill accepted through the edit-distance fallback.
type FuzzyMatch struct {
	Term       string  `json:"term"`
	Skill      SkillID `json:"skill"`
	Distance   int     `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// CandidateProfile is built once per document. Skills are sorted and unique.
type CandidateProfile struct {
	DocumentID string
	// Name is the name written in the resume, empty when none was found.
	Name            string
	Skills          []SkillID
	Titles          []string
	ExperienceYears *float64
	Contact         Contact
	Education       string
	FuzzyMatches    []FuzzyMatch
	// Terms are the sorted distinct key terms of the resume text.
	Terms []string
}

// HasSkill reports whether the profile contains skill.
func (p *CandidateProfile) HasSkill(skill SkillID) bool {
	_, found := slices.BinarySearch(p.Skills, skill)
	return found
}

// FuzzyFor returns the fuzzy match that produced skill, if any.
func (p *CandidateProfile) FuzzyFor(skill SkillID) (FuzzyMatch, bool) {
	for _, m := range p.FuzzyMatches {
		if m.Skill == skill {
			return m, true
		}
	}
	return FuzzyMatch{}, false
}

// JobRequirements is parsed once per job description and shared read-only by
// all workers of a batch. Required and Preferred are sorted and disjoint.
type JobRequirements struct {
	Required           []SkillID           `json:"required"`
	Preferred          []SkillID           `json:"preferred"`
	MinExperienceYears *float64            `json:"minExperienceYears,omitempty"`
	Weights            map[SkillID]float64 `json:"weights"`
	// Terms are the sorted distinct key terms of the job description.
	Terms []string `json:"-"`
}

// Listed returns required and preferred skills as one sorted slice.
func (r *JobRequirements) Listed() []SkillID {
	listed := make([]SkillID, 0, len(r.Required)+len(r.Preferred))
	listed = append(listed, r.Required...)
	listed = append(listed, r.Preferred...)
	slices.Sort(listed)
	return slices.Compact(listed)
}

func (r *JobRequirements) IsRequired(skill SkillID) bool {
	_, found := slices.BinarySearch(r.Required, skill)
	return found
}

func (r *JobRequirements) Weight(skill SkillID) float64 {
	return r.Weights[skill]
}

// MatchResult is produced exactly once per successfully processed document.
type MatchResult struct {
	DocumentID      string    `json:"documentId"`
	CandidateName   string    `json:"candidateName"`
	Filename        string    `json:"filename"`
	Score           float64   `json:"score"`
	Skills          []SkillID `json:"skills"`
	MatchedSkills   []SkillID `json:"matchedSkills"`
	MissingSkills   []SkillID `json:"missingSkills"`
	Decision        Decision  `json:"decision"`
	Rationale       []string  `json:"rationale"`
	ExperienceYears *float64  `json:"experienceYears,omitempty"`
	Contact         Contact   `json:"contact,omitempty"`
	Education       string    `json:"education,omitempty"`
	// TextSimilarity is the lexical overlap of resume and job description.
	// It is informational and never changes Score or Decision.
	TextSimilarity float64 `json:"textSimilarity"`
}

type Failure struct {
	DocumentID string    `json:"documentId"`
	Filename   string    `json:"filename"`
	Kind       ErrorKind `json:"errorKind"`
	Message    string    `json:"message,omitempty"`
}

// Outcome separates the user-visible states of a finished batch.
type Outcome string

const (
	OutcomeEmpty       Outcome = "empty"
	OutcomeAllFailed   Outcome = "all-failed"
	OutcomeMatched     Outcome = "matched"
	OutcomeNoneMatched Outcome = "none-matched"
)

// BatchRun is the result of one invocation of the orchestrator.
type BatchRun struct {
	Requirements JobRequirements `json:"requirements"`
	Results      []*MatchResult  `json:"results"`
	Failures     []Failure       `json:"failures"`
	Total        int             `json:"total"`
	Cancelled    bool            `json:"cancelled,omitempty"`
}

func (b *BatchRun) Outcome() Outcome {
	switch {
	case b.Total == 0:
		return OutcomeEmpty
	case len(b.Results) == 0:
		return OutcomeAllFailed
	default:
		return OutcomeMatched
	}
}

// AddRejected records files refused before they reached the pipeline.
func (b *BatchRun) AddRejected(rejected []Failure) {
	b.Failures = append(b.Failures, rejected...)
	b.Total += len(rejected)
}

// View returns the results as a collection that can be filtered without
// touching the run itself.
func (b *BatchRun) View() *Results {
	return &Results{Items: slices.Clone(b.Results)}
}

// FailuresByKind groups failed filenames by error kind.
func (b *BatchRun) FailuresByKind() map[ErrorKind][]string {
	report := make(map[ErrorKind][]string)
	for _, f := range b.Failures {
		report[f.Kind] = append(report[f.Kind], f.Filename)
	}
	return report
}
