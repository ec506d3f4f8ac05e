package screening

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		kind  ErrorKind
		fatal bool
	}{
		{name: "nil", err: nil, kind: ""},
		{name: "wrapped corrupt", err: WrapError(ErrCorruptDocument, "open pdf", errors.New("eof")), kind: KindCorruptDocument},
		{name: "double wrapped", err: fmt.Errorf("extract cv.docx: %w", WrapError(ErrUnsupportedEncoding, "decode", nil)), kind: KindUnsupportedEncoding},
		{name: "file too large", err: WrapError(ErrFileTooLarge, "reading resume", errors.New("2048 bytes")), kind: KindFileTooLarge},
		{name: "timeout", err: WrapError(ErrExtractionTimeout, "extract", context.DeadlineExceeded), kind: KindExtractionTimeout},
		{name: "empty job description", err: WrapError(ErrEmptyJobDescription, "job description", nil), kind: KindEmptyJobDescription, fatal: true},
		{name: "too long", err: ErrJobDescriptionTooLong, kind: KindJobDescriptionTooLong, fatal: true},
		{name: "taxonomy", err: WrapError(ErrTaxonomyLoad, "load", errors.New("bad yaml")), kind: KindTaxonomyLoad, fatal: true},
		{name: "unknown", err: errors.New("boom"), kind: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tt.err); got != tt.kind {
				t.Fatalf("expected %q, got %q", tt.kind, got)
			}
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Fatalf("expected fatal=%t, got %t", tt.fatal, got)
			}
		})
	}
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := WrapError(ErrCorruptDocument, "open docx container", cause)

	if !errors.Is(err, cause) || !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("expected both kind and cause in the chain: %v", err)
	}
	if err.Error() != "open docx container: corrupt document: zip: not a valid zip file" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func result(name string, score float64, decision Decision, missing ...SkillID) *MatchResult {
	return &MatchResult{
		DocumentID:    "id-" + name,
		CandidateName: name,
		Filename:      name + ".pdf",
		Score:         score,
		Decision:      decision,
		MissingSkills: missing,
	}
}

func TestResultsKeepAndExclude(t *testing.T) {
	results := &Results{Items: []*MatchResult{
		result("Alice", 0.9, DecisionFit),
		result("Bob", 0.4, DecisionNotFit, "SQL"),
		result("Carol", 0.8, DecisionFit),
		result("Dave", 0.2, DecisionNotFit, "Go", "SQL"),
	}}

	dropped := results.Keep(func(r *MatchResult) bool { return r.Decision == DecisionFit })
	if !slices.Equal(dropped, []string{"Bob", "Dave"}) {
		t.Fatalf("unexpected dropped names %v", dropped)
	}
	if results.Len() != 2 || results.Items[0].CandidateName != "Alice" || results.Items[1].CandidateName != "Carol" {
		t.Fatalf("order must be preserved, got %+v", results.Items)
	}

	excluded := results.Exclude(ResultFilenameField, []string{" CAROL.pdf "})
	if !slices.Equal(excluded, []string{"Carol"}) || results.Len() != 1 {
		t.Fatalf("unexpected exclusion %v, left %d", excluded, results.Len())
	}
	if results.Exclude(ResultCandidateNameField, nil) != nil {
		t.Fatalf("excluding nothing must drop nothing")
	}
	if results.At(0) == nil || results.At(0).CandidateName != "Alice" || results.At(1) != nil || results.At(-1) != nil {
		t.Fatalf("unexpected lookup results")
	}
}

func TestResultsAtTellsNamesakesApart(t *testing.T) {
	first := result("Jane Doe", 0.9, DecisionFit)
	second := result("Jane Doe", 0.3, DecisionNotFit, "SQL")
	second.DocumentID, second.Filename = "id-jane-2", "jane_doe_2023.pdf"
	results := &Results{Items: []*MatchResult{first, second}}

	if got := results.At(1); got != second || got.Filename != "jane_doe_2023.pdf" {
		t.Fatalf("expected the second Jane Doe, got %+v", got)
	}

	results.Exclude(ResultFilenameField, []string{"jane_doe_2023.pdf"})
	if results.Len() != 1 || results.At(0) != first {
		t.Fatalf("excluding by file name must keep the namesake, got %+v", results.Items)
	}
}

func TestReportByDecision(t *testing.T) {
	results := &Results{Items: []*MatchResult{
		result("Alice", 0.9, DecisionFit),
		result("Dave", 0.25, DecisionNotFit, "Go", "SQL"),
	}}

	report := results.ReportByDecision()
	if len(report[DecisionFit]) != 1 || len(report[DecisionNotFit]) != 1 {
		t.Fatalf("unexpected report %v", report)
	}
	dave := report[DecisionNotFit][0]
	if dave["candidate"] != "Dave" || dave["file"] != "Dave.pdf" || dave["score"] != "0.2500" || dave["missing"] != "Go, SQL" {
		t.Fatalf("unexpected entry %v", dave)
	}
}

func TestBatchRunOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		run    BatchRun
		expect Outcome
	}{
		{name: "no documents", run: BatchRun{}, expect: OutcomeEmpty},
		{name: "every document failed", run: BatchRun{Total: 2, Failures: make([]Failure, 2)}, expect: OutcomeAllFailed},
		{name: "some results", run: BatchRun{Total: 2, Results: []*MatchResult{{}}, Failures: make([]Failure, 1)}, expect: OutcomeMatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.run.Outcome(); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestBatchRunRejectedAndView(t *testing.T) {
	run := &BatchRun{
		Total:    2,
		Results:  []*MatchResult{result("Alice", 0.9, DecisionFit)},
		Failures: []Failure{{Filename: "broken.pdf", Kind: KindCorruptDocument}},
	}
	run.AddRejected([]Failure{{Filename: "notes.txt", Kind: KindUnsupportedFormat}, {Filename: "cv.doc", Kind: KindUnsupportedFormat}})

	if run.Total != 4 || len(run.Failures) != 3 {
		t.Fatalf("unexpected totals: %d documents, %d failures", run.Total, len(run.Failures))
	}

	byKind := run.FailuresByKind()
	if !slices.Equal(byKind[KindUnsupportedFormat], []string{"notes.txt", "cv.doc"}) {
		t.Fatalf("unexpected failures by kind %v", byKind)
	}

	view := run.View()
	view.Keep(func(*MatchResult) bool { return false })
	if view.Len() != 0 || len(run.Results) != 1 || run.Results[0] == nil {
		t.Fatalf("filtering the view must not change the run")
	}
}

func TestExcludedCandidatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.yaml")

	empty, err := GetExcludedCandidatesFromFile(path)
	if err != nil || len(empty.Items) != 0 {
		t.Fatalf("expected an empty list for a missing file, got %+v (%v)", empty, err)
	}

	results := &Results{Items: []*MatchResult{result("Alice", 0.9, DecisionFit), result("Bob", 0.4, DecisionNotFit)}}
	empty.Append(results.ToExcluded())
	if err := empty.ToFile(path); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	loaded, err := GetExcludedCandidatesFromFile(path)
	if err != nil {
		t.Fatalf("read exclude file: %v", err)
	}
	if !slices.Equal(loaded.Names(), []string{"Alice", "Bob"}) {
		t.Fatalf("unexpected names %v", loaded.Names())
	}
	if loaded.Items[1].Filename != "Bob.pdf" || loaded.Items[0].ExcludedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", loaded.Items[1])
	}
}

func TestJobRequirements(t *testing.T) {
	req := &JobRequirements{
		Required:  []SkillID{"Python", "SQL"},
		Preferred: []SkillID{"AWS", "Docker"},
		Weights:   map[SkillID]float64{"Python": 1, "SQL": 1, "AWS": 0.4, "Docker": 0.4},
	}

	if !slices.Equal(req.Listed(), []SkillID{"AWS", "Docker", "Python", "SQL"}) {
		t.Fatalf("unexpected listed skills %v", req.Listed())
	}
	if !req.IsRequired("SQL") || req.IsRequired("AWS") {
		t.Fatalf("unexpected required lookup")
	}
	if req.Weight("Go") != 0 {
		t.Fatalf("unlisted skills must weigh nothing")
	}

	profile := &CandidateProfile{Skills: []SkillID{"AWS", "Python"}}
	if !profile.HasSkill("Python") || profile.HasSkill("SQL") {
		t.Fatalf("unexpected skill lookup")
	}
	if JoinSkills(nil) != "" || JoinSkills(profile.Skills) != "AWS, Python" {
		t.Fatalf("unexpected joined skills")
	}
}
