package batch

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-screener/internal/jobreq"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/tagger"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

const testJD = "Must have Python and SQL. Preferred: AWS."

type stubExtractor struct {
	calls atomic.Int32
	texts map[string]string
	errs  map[string]error
	// hook runs before the stub answers.
	hook func(ctx context.Context, doc screening.RawDocument)
}

func (s *stubExtractor) Extract(ctx context.Context, doc screening.RawDocument) (screening.NormalizedText, error) {
	s.calls.Add(1)
	if s.hook != nil {
		s.hook(ctx, doc)
	}
	if err, ok := s.errs[doc.ID]; ok {
		return screening.NormalizedText{DocumentID: doc.ID}, err
	}
	return screening.NormalizedText{DocumentID: doc.ID, Text: s.texts[doc.ID]}, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	started  int
	finished map[screening.ErrorKind]int
	skipped  int
	observed int
}

func (r *countingRecorder) StartDocument() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *countingRecorder) FinishDocument(_ time.Duration, kind screening.ErrorKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished == nil {
		r.finished = make(map[screening.ErrorKind]int)
	}
	r.finished[kind]++
}

func (r *countingRecorder) SkipDocument(screening.ErrorKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped++
}

func (r *countingRecorder) ObserveResult(*screening.MatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed++
}

func newOrchestrator(t *testing.T, ext Extractor, opts Options, rec Recorder, log *zap.Logger) *Orchestrator {
	t.Helper()

	tax, err := taxonomy.Default()
	if err != nil {
		t.Fatalf("load default taxonomy: %v", err)
	}

	return New(Deps{
		Extractor: ext,
		Tagger:    tagger.New(tax, tagger.Options{}),
		Parser:    jobreq.NewParser(tax, tagger.Options{}, jobreq.DefaultPolicy()),
		Scorer:    scoring.New(scoring.DefaultConfig(), log),
		Recorder:  rec,
		Logger:    log,
	}, opts)
}

func documents(ids ...string) []screening.RawDocument {
	docs := make([]screening.RawDocument, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, screening.RawDocument{
			ID:       id,
			Filename: id + ".pdf",
			MimeType: screening.MimePDF,
			Bytes:    []byte("%PDF-1.4"),
		})
	}
	return docs
}

func TestRunKeepsInputOrderAndIsolatesFailures(t *testing.T) {
	ext := &stubExtractor{
		texts: map[string]string{
			"jane_doe":   "Senior Python developer. SQL, AWS and Docker in production.",
			"john_smith": "Java developer with Spring Boot.",
			"ann_lee":    "Python and SQL analyst.",
		},
		errs: map[string]error{
			"broken":  screening.WrapError(screening.ErrCorruptDocument, "extract broken.pdf", errors.New("xref table not found")),
			"scanned": screening.WrapError(screening.ErrEmptyContent, "extract scanned.pdf", nil),
		},
	}
	rec := &countingRecorder{}
	core, observed := observer.New(zapcore.InfoLevel)

	o := newOrchestrator(t, ext, Options{Concurrency: 3}, rec, zap.New(core))
	run, err := o.Run(context.Background(), testJD, documents("jane_doe", "broken", "john_smith", "scanned", "ann_lee"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Total != 5 {
		t.Fatalf("expected total 5, got %d", run.Total)
	}
	if len(run.Results)+len(run.Failures) != run.Total {
		t.Fatalf("results %d and failures %d do not add up to %d", len(run.Results), len(run.Failures), run.Total)
	}

	var names []string
	for _, r := range run.Results {
		names = append(names, r.CandidateName)
	}
	if want := []string{"Jane Doe", "John Smith", "Ann Lee"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("expected results in input order %v, got %v", want, names)
	}

	if run.Results[0].Decision != screening.DecisionFit || run.Results[0].Score != 1 {
		t.Fatalf("expected jane_doe to be a perfect fit, got %+v", run.Results[0])
	}
	if run.Results[1].Decision != screening.DecisionNotFit {
		t.Fatalf("expected john_smith to be not fit, got %s", run.Results[1].Decision)
	}
	if run.Results[0].Filename != "jane_doe.pdf" || run.Results[0].DocumentID != "jane_doe" {
		t.Fatalf("unexpected bookkeeping fields: %+v", run.Results[0])
	}

	wantFailures := []screening.Failure{
		{DocumentID: "broken", Filename: "broken.pdf", Kind: screening.KindCorruptDocument},
		{DocumentID: "scanned", Filename: "scanned.pdf", Kind: screening.KindEmptyContent},
	}
	if len(run.Failures) != len(wantFailures) {
		t.Fatalf("expected %d failures, got %d", len(wantFailures), len(run.Failures))
	}
	for i, want := range wantFailures {
		got := run.Failures[i]
		if got.DocumentID != want.DocumentID || got.Filename != want.Filename || got.Kind != want.Kind {
			t.Fatalf("failure %d: expected %+v, got %+v", i, want, got)
		}
		if got.Message == "" {
			t.Fatalf("failure %d: expected message", i)
		}
	}

	if run.Cancelled {
		t.Fatalf("expected batch not to be cancelled")
	}
	if run.Outcome() != screening.OutcomeMatched {
		t.Fatalf("expected matched outcome, got %s", run.Outcome())
	}

	if rec.started != 5 || rec.finished[""] != 3 || rec.finished[screening.KindCorruptDocument] != 1 || rec.observed != 3 {
		t.Fatalf("unexpected recorder state: %+v", rec)
	}

	if warns := observed.FilterMessage("document failed").Len(); warns != 2 {
		t.Fatalf("expected 2 failure logs, got %d", warns)
	}
	if summary := observed.FilterMessage("batch finished").Len(); summary != 1 {
		t.Fatalf("expected 1 summary log, got %d", summary)
	}
}

func TestRunEmptyJobDescriptionProcessesNothing(t *testing.T) {
	ext := &stubExtractor{}
	o := newOrchestrator(t, ext, Options{}, nil, nil)

	run, err := o.Run(context.Background(), "   \n", documents("a", "b"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, screening.ErrEmptyJobDescription) {
		t.Fatalf("expected ErrEmptyJobDescription, got %v", err)
	}
	if run != nil {
		t.Fatalf("expected no run, got %+v", run)
	}
	if calls := ext.calls.Load(); calls != 0 {
		t.Fatalf("expected no extraction, got %d calls", calls)
	}
}

func TestRunWithoutDocuments(t *testing.T) {
	o := newOrchestrator(t, &stubExtractor{}, Options{}, nil, nil)

	run, err := o.Run(context.Background(), testJD, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Outcome() != screening.OutcomeEmpty {
		t.Fatalf("expected empty outcome, got %s", run.Outcome())
	}
	if len(run.Requirements.Required) != 2 {
		t.Fatalf("expected parsed requirements, got %+v", run.Requirements)
	}
}

func TestRunAllFailed(t *testing.T) {
	ext := &stubExtractor{errs: map[string]error{
		"a": screening.WrapError(screening.ErrCorruptDocument, "extract a.pdf", nil),
		"b": screening.WrapError(screening.ErrUnsupportedEncoding, "extract b.pdf", nil),
	}}
	o := newOrchestrator(t, ext, Options{Concurrency: 2}, nil, nil)

	run, err := o.Run(context.Background(), testJD, documents("a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Outcome() != screening.OutcomeAllFailed {
		t.Fatalf("expected all-failed outcome, got %s", run.Outcome())
	}

	report := run.FailuresByKind()
	if len(report[screening.KindCorruptDocument]) != 1 || len(report[screening.KindUnsupportedEncoding]) != 1 {
		t.Fatalf("unexpected failure report: %v", report)
	}
}

func TestRunRecordsExtractionTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	ext := &stubExtractor{
		texts: map[string]string{"fast": "Python and SQL engineer."},
		hook: func(_ context.Context, doc screening.RawDocument) {
			if doc.ID == "hung" {
				// Ignores its context on purpose.
				<-release
			}
		},
	}
	o := newOrchestrator(t, ext, Options{Concurrency: 2, Timeout: 50 * time.Millisecond}, nil, nil)

	run, err := o.Run(context.Background(), testJD, documents("hung", "fast"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(run.Failures) != 1 || run.Failures[0].Kind != screening.KindExtractionTimeout {
		t.Fatalf("expected one ExtractionTimeout failure, got %+v", run.Failures)
	}
	if len(run.Results) != 1 || run.Results[0].DocumentID != "fast" {
		t.Fatalf("expected the fast document to be scored, got %+v", run.Results)
	}
}

func TestRunMapsDeadlineErrorsToTimeout(t *testing.T) {
	ext := &stubExtractor{
		hook: func(ctx context.Context, _ screening.RawDocument) {
			<-ctx.Done()
		},
		errs: map[string]error{"slow": context.DeadlineExceeded},
	}
	o := newOrchestrator(t, ext, Options{Timeout: 10 * time.Millisecond}, nil, nil)

	run, err := o.Run(context.Background(), testJD, documents("slow"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(run.Failures) != 1 || run.Failures[0].Kind != screening.KindExtractionTimeout {
		t.Fatalf("expected ExtractionTimeout, got %+v", run.Failures)
	}
}

func TestRunCancellationSkipsUnstartedDocuments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ext := &stubExtractor{
		texts: map[string]string{"first": "Python, SQL and AWS developer."},
		hook: func(extractCtx context.Context, doc screening.RawDocument) {
			if doc.ID == "first" {
				cancel()
				if extractCtx.Err() != nil {
					t.Errorf("in-flight extraction must not see batch cancellation")
				}
			}
		},
	}
	rec := &countingRecorder{}
	o := newOrchestrator(t, ext, Options{Concurrency: 1}, rec, nil)

	run, err := o.Run(ctx, testJD, documents("first", "second", "third"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !run.Cancelled {
		t.Fatalf("expected cancelled batch")
	}
	if calls := ext.calls.Load(); calls != 1 {
		t.Fatalf("expected only the first document to start, got %d", calls)
	}
	if len(run.Results) != 1 || run.Results[0].DocumentID != "first" {
		t.Fatalf("expected in-flight document to complete, got %+v", run.Results)
	}
	if len(run.Failures) != 2 {
		t.Fatalf("expected 2 cancelled failures, got %+v", run.Failures)
	}
	for i, f := range run.Failures {
		if f.Kind != screening.KindCancelled {
			t.Fatalf("failure %d: expected Cancelled, got %s", i, f.Kind)
		}
	}
	if run.Failures[0].DocumentID != "second" || run.Failures[1].DocumentID != "third" {
		t.Fatalf("expected failures in input order, got %+v", run.Failures)
	}
	if len(run.Results)+len(run.Failures) != run.Total {
		t.Fatalf("totals do not add up: %+v", run)
	}
	if rec.skipped != 2 || rec.started != 1 {
		t.Fatalf("unexpected recorder state: %+v", rec)
	}
}

func TestRunReportsProgress(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{
		"a": "Python developer.",
		"b": "SQL developer.",
		"c": "AWS engineer.",
		"d": "Java developer.",
	}}

	var calls []int
	total := 0
	o := newOrchestrator(t, ext, Options{
		Concurrency: 2,
		Progress: func(done, n int) {
			calls = append(calls, done)
			total = n
		},
	}, nil, nil)

	if _, err := o.Run(context.Background(), testJD, documents("a", "b", "c", "d")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []int{1, 2, 3, 4}; !reflect.DeepEqual(calls, want) {
		t.Fatalf("expected progress %v, got %v", want, calls)
	}
	if total != 4 {
		t.Fatalf("expected total 4, got %d", total)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{
		"a": "Python and SQL developer with 4 years of experience. Kubernets, Docker.",
		"b": "Data analyst: SQL, Excel, Tableau.",
		"c": "Cloud engineer. AWS, Terraform, Python3.",
	}}
	docs := documents("a", "b", "c")

	first, err := newOrchestrator(t, ext, Options{Concurrency: 1}, nil, nil).Run(context.Background(), testJD, docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newOrchestrator(t, ext, Options{Concurrency: 3}, nil, nil).Run(context.Background(), testJD, docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Fatalf("expected identical results across runs")
	}
}

func TestRunPrefersNameFromText(t *testing.T) {
	ext := &stubExtractor{texts: map[string]string{
		"cv_2024":  "Maria Garcia\nPython developer with SQL and AWS.",
		"jane_doe": "Python developer with SQL and AWS.",
	}}
	o := newOrchestrator(t, ext, Options{}, nil, nil)

	run, err := o.Run(context.Background(), testJD, documents("cv_2024", "jane_doe"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}
	if got := run.Results[0].CandidateName; got != "Maria Garcia" {
		t.Fatalf("expected the name written in the resume, got %q", got)
	}
	if got := run.Results[1].CandidateName; got != "Jane Doe" {
		t.Fatalf("expected the file name fallback, got %q", got)
	}
	if run.Results[0].TextSimilarity <= 0 {
		t.Fatalf("expected a text similarity for overlapping texts, got %v", run.Results[0].TextSimilarity)
	}
}

func TestCandidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		expect   string
	}{
		{filename: "jane_doe.pdf", expect: "Jane Doe"},
		{filename: "JOHN-SMITH.docx", expect: "John Smith"},
		{filename: "/tmp/resumes/ann.lee_cv.pdf", expect: "Ann Lee Cv"},
		{filename: "__.pdf", expect: "__.pdf"},
		{filename: "", expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()
			if got := CandidateName(tt.filename); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
