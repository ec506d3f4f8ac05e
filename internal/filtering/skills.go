package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screening"
)

type requiredSkillsFilter struct {
	terms    []string
	disabled bool
	reason   string
}

// NewRequiredSkills creates a filter that keeps candidates having every skill
// configured in the config.
func NewRequiredSkills() Filter {
	return &requiredSkillsFilter{}
}

func (f *requiredSkillsFilter) Name() string { return "required_skills" }

func (f *requiredSkillsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *requiredSkillsFilter) IsEnabled() bool { return !f.disabled }

func (f *requiredSkillsFilter) Validate(cfg *Config) error {
	f.terms = nil
	if cfg == nil {
		return nil
	}
	for _, term := range cfg.RequireSkills {
		if term = strings.TrimSpace(term); term != "" {
			f.terms = append(f.terms, term)
		}
	}
	return nil
}

func (f *requiredSkillsFilter) Apply(_ context.Context, deps Deps, v *screening.Results) (*screening.Results, Step, error) {
	if len(f.terms) == 0 {
		return v, unchanged(v), nil
	}

	skills := make([]screening.SkillID, 0, len(f.terms))
	for _, term := range f.terms {
		skill := screening.SkillID(term)
		if deps.Resolver != nil {
			resolved, ok := deps.Resolver.Resolve(term)
			if !ok {
				return v, Step{}, fmt.Errorf("unknown skill %q", term)
			}
			skill = resolved
		}
		skills = append(skills, skill)
	}

	initial := v.Len()
	dropped := v.Keep(func(r *screening.MatchResult) bool {
		for _, skill := range skills {
			if !hasSkill(r.Skills, skill) {
				return false
			}
		}
		return true
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding candidates without required skills",
			zap.String("skills", screening.JoinSkills(skills)),
			zap.Strings("excluded_candidates", dropped),
			zap.Int("candidates_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *requiredSkillsFilter) Status() Status {
	details := map[string]string{}
	if len(f.terms) > 0 {
		details["skills"] = strings.Join(f.terms, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func hasSkill(skills []screening.SkillID, want screening.SkillID) bool {
	for _, s := range skills {
		if strings.EqualFold(string(s), string(want)) {
			return true
		}
	}
	return false
}
