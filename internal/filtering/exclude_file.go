package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/screening"
)

type excludeFileFilter struct {
	path     string
	disabled bool
	reason   string
}

// NewExcludeFile creates a filter that removes candidates listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, v *screening.Results) (*screening.Results, Step, error) {
	initial := v.Len()
	if f.path == "" {
		return v, unchanged(v), nil
	}

	excluded, err := screening.GetExcludedCandidatesFromFile(f.path)
	if err != nil {
		return v, Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	var filenames, names []string
	for _, c := range excluded.Items {
		if c.Filename != "" {
			filenames = append(filenames, c.Filename)
			continue
		}
		names = append(names, c.Name)
	}

	removed := v.Exclude(screening.ResultFilenameField, filenames)
	removed = append(removed, v.Exclude(screening.ResultCandidateNameField, names)...)
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_candidates", removed),
			zap.Int("candidates_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(removed), Left: v.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
