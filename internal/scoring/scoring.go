// Package scoring compares a candidate profile with job requirements and
// produces a score, a Fit/NotFit decision and the rationale behind it.
package scoring

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screening"
)

const (
	DefaultFitThreshold      = 0.7
	DefaultExperiencePenalty = 0.8
)

// Config holds the tunable scoring policy.
type Config struct {
	FitThreshold      float64 `mapstructure:"fit-threshold"`
	ExperiencePenalty float64 `mapstructure:"experience-penalty"`
}

func DefaultConfig() Config {
	return Config{
		FitThreshold:      DefaultFitThreshold,
		ExperiencePenalty: DefaultExperiencePenalty,
	}
}

// Scorer is implemented by anything that can score one profile.
type Scorer interface {
	Score(profile *screening.CandidateProfile, req *screening.JobRequirements) *screening.MatchResult
}

type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// New returns an engine. Out-of-range settings fall back to defaults.
func New(cfg Config, logger *zap.Logger) *Engine {
	if cfg.FitThreshold <= 0 || cfg.FitThreshold > 1 || math.IsNaN(cfg.FitThreshold) {
		cfg.FitThreshold = DefaultFitThreshold
	}
	if cfg.ExperiencePenalty <= 0 || cfg.ExperiencePenalty > 1 || math.IsNaN(cfg.ExperiencePenalty) {
		cfg.ExperiencePenalty = DefaultExperiencePenalty
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

func (e *Engine) Config() Config { return e.cfg }

// Score fills every field of the result except DocumentID bookkeeping,
// CandidateName and Filename, which belong to the orchestrator.
func (e *Engine) Score(profile *screening.CandidateProfile, req *screening.JobRequirements) *screening.MatchResult {
	listed := req.Listed()

	var (
		matched, missing, matchedPreferred []screening.SkillID
		total, gained                      float64
	)
	for _, skill := range listed {
		w := req.Weight(skill)
		total += w
		if profile.HasSkill(skill) {
			matched = append(matched, skill)
			gained += w
			if !req.IsRequired(skill) {
				matchedPreferred = append(matchedPreferred, skill)
			}
			continue
		}
		if req.IsRequired(skill) {
			missing = append(missing, skill)
		}
	}

	score := 0.0
	if total > 0 {
		score = clip(gained / total)
	}

	r := newRationale()
	if len(listed) == 0 {
		r.add("Job description lists no recognised skills")
	} else {
		r.add(fmt.Sprintf("Matched %d of %d listed skills (raw score %.2f)", len(matched), len(listed), score))
	}
	for _, skill := range missing {
		r.add(fmt.Sprintf("Missing required skill: %s", skill))
	}
	for _, skill := range matchedPreferred {
		r.add(fmt.Sprintf("Matched preferred skill: %s", skill))
	}

	score = e.applyExperience(score, profile.ExperienceYears, req.MinExperienceYears, r)

	for _, skill := range matched {
		if m, ok := profile.FuzzyFor(skill); ok {
			r.add(fmt.Sprintf("Fuzzy match: '%s' → %s (confidence %.2f)", m.Term, m.Skill, m.Confidence))
		}
	}

	score = round4(clip(score))

	decision := screening.DecisionNotFit
	switch {
	case len(missing) > 0:
		r.add("Not fit: missing required skills")
	case score >= e.cfg.FitThreshold:
		decision = screening.DecisionFit
		r.add(fmt.Sprintf("Score %.2f ≥ %.2f threshold", score, e.cfg.FitThreshold))
	default:
		r.add(fmt.Sprintf("Score %.2f < %.2f threshold", score, e.cfg.FitThreshold))
	}

	if len(missing) > 0 && score >= e.cfg.FitThreshold {
		e.logger.Debug("set fit to false by missing required skills",
			zap.String("document_id", profile.DocumentID),
			zap.Float64("score", score),
			zap.Float64("threshold", e.cfg.FitThreshold),
			zap.Int("missing", len(missing)),
		)
	}

	return &screening.MatchResult{
		DocumentID:      profile.DocumentID,
		Score:           score,
		Skills:          nonNil(profile.Skills),
		MatchedSkills:   nonNil(matched),
		MissingSkills:   nonNil(missing),
		Decision:        decision,
		Rationale:       r.lines,
		ExperienceYears: profile.ExperienceYears,
		Contact:         profile.Contact,
		Education:       profile.Education,
		TextSimilarity:  TextSimilarity(profile.Terms, req.Terms),
	}
}

// TextSimilarity blends the Jaccard index (0.4) and the cosine of the binary
// term vectors (0.6) of two sorted distinct term lists.
func TextSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	common := 0
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] == b[j]:
			common++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}

	jaccard := float64(common) / float64(len(a)+len(b)-common)
	cosine := float64(common) / math.Sqrt(float64(len(a))*float64(len(b)))
	return round4(0.4*jaccard + 0.6*cosine)
}

func (e *Engine) applyExperience(score float64, have, want *float64, r *rationale) float64 {
	if want == nil {
		return score
	}
	if have == nil {
		r.add(fmt.Sprintf("Experience not stated (minimum %sy)", years(*want)))
		return score
	}
	if *have >= *want {
		r.add(fmt.Sprintf("Meets minimum experience (%sy ≥ %sy)", years(*have), years(*want)))
		return score
	}
	r.add(fmt.Sprintf("Below minimum experience (%sy < %sy), score ×%s", years(*have), years(*want), years(e.cfg.ExperiencePenalty)))
	return clip(score * e.cfg.ExperiencePenalty)
}

type rationale struct {
	lines []string
}

func newRationale() *rationale {
	return &rationale{lines: make([]string, 0, 6)}
}

func (r *rationale) add(line string) {
	r.lines = append(r.lines, line)
}

// years formats 5 as "5" and 2.5 as "2.5".
func years(v float64) string {
	return fmt.Sprintf("%g", v)
}

func clip(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func nonNil(s []screening.SkillID) []screening.SkillID {
	if s == nil {
		return []screening.SkillID{}
	}
	return s
}
