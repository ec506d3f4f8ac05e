// Package filtering narrows scored results down to the view shown to the
// user. Filters never change scores or decisions.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screening"
)

// Filter represents a single filtering step applied to results.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, v *screening.Results) (*screening.Results, Step, error)
}

// SkillResolver maps a user supplied term to a canonical skill.
type SkillResolver interface {
	Resolve(term string) (screening.SkillID, bool)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger   *zap.Logger
	Resolver SkillResolver
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	FitOnly       bool     `mapstructure:"fit-only"`
	MinScore      float64  `mapstructure:"min-score"`
	RequireSkills []string `mapstructure:"require-skills"`
	ExcludeFile   string   `mapstructure:"exclude-file"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Defaults returns every known filter in the order they run.
func Defaults() []Filter {
	return []Filter{
		NewFitOnly(),
		NewMinScore(),
		NewRequiredSkills(),
		NewExcludeFile(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns what is left.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, v *screening.Results) (*screening.Results, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		v = next
	}

	return v, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// Outcome tells "every document failed" apart from "nothing survived the
// filters".
func Outcome(run *screening.BatchRun, filtered *screening.Results) screening.Outcome {
	outcome := run.Outcome()
	if outcome == screening.OutcomeMatched && filtered.Len() == 0 {
		return screening.OutcomeNoneMatched
	}
	return outcome
}

func unchanged(v *screening.Results) Step {
	return Step{Initial: v.Len(), Dropped: 0, Left: v.Len()}
}

type fitOnlyFilter struct {
	enabled  bool
	disabled bool
	reason   string
}

// NewFitOnly creates a filter that keeps only Fit results.
func NewFitOnly() Filter {
	return &fitOnlyFilter{}
}

func (f *fitOnlyFilter) Name() string { return "fit_only" }

func (f *fitOnlyFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *fitOnlyFilter) IsEnabled() bool { return !f.disabled }

func (f *fitOnlyFilter) Validate(cfg *Config) error {
	f.enabled = cfg != nil && cfg.FitOnly
	return nil
}

func (f *fitOnlyFilter) Apply(_ context.Context, deps Deps, v *screening.Results) (*screening.Results, Step, error) {
	if !f.enabled {
		return v, unchanged(v), nil
	}

	initial := v.Len()
	dropped := v.Keep(func(r *screening.MatchResult) bool {
		return r.Decision == screening.DecisionFit
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding candidates that are not fit",
			zap.Strings("excluded_candidates", dropped),
			zap.Int("candidates_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *fitOnlyFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: map[string]string{
		"fit_only": fmt.Sprintf("%t", f.enabled),
	}}
}

type minScoreFilter struct {
	min      float64
	disabled bool
	reason   string
}

// NewMinScore creates a filter that drops results scored below a minimum.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.min = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinScore < 0 || cfg.MinScore > 1 {
		return fmt.Errorf("minimum score must be between 0 and 1, got %v", cfg.MinScore)
	}
	f.min = cfg.MinScore
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, v *screening.Results) (*screening.Results, Step, error) {
	if f.min == 0 {
		return v, unchanged(v), nil
	}

	initial := v.Len()
	dropped := v.Keep(func(r *screening.MatchResult) bool {
		return r.Score >= f.min
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding candidates below minimum score",
			zap.Float64("min_score", f.min),
			zap.Strings("excluded_candidates", dropped),
			zap.Int("candidates_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: map[string]string{
		"min_score": fmt.Sprintf("%.2f", f.min),
	}}
}
