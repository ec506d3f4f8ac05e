// Package batch runs the screening pipeline over many documents with a
// bounded worker pool. Failures of one document never affect the others.
package batch

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/screening"
)

const DefaultTimeout = 30 * time.Second

type Extractor interface {
	Extract(ctx context.Context, doc screening.RawDocument) (screening.NormalizedText, error)
}

type Tagger interface {
	Tag(text screening.NormalizedText) screening.CandidateProfile
}

type RequirementsParser interface {
	Parse(text string) (screening.JobRequirements, error)
}

// Recorder receives per-document measurements. metrics.BatchMetrics
// implements it.
type Recorder interface {
	StartDocument()
	FinishDocument(duration time.Duration, kind screening.ErrorKind)
	SkipDocument(kind screening.ErrorKind)
	ObserveResult(result *screening.MatchResult)
}

type Deps struct {
	Extractor Extractor
	Tagger    Tagger
	Parser    RequirementsParser
	Scorer    scoring.Scorer
	Recorder  Recorder
	Logger    *zap.Logger
}

type Options struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// Progress is called once per finished or skipped document. Calls never
	// overlap.
	Progress func(done, total int) `mapstructure:"-" json:"-"`
}

type Orchestrator struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}
	return &Orchestrator{deps: deps, opts: opts}
}

type outcome struct {
	index   int
	result  *screening.MatchResult
	failure *screening.Failure
}

// Run parses the job description and screens every document. Only a fatal
// job description error is returned; per-document errors are collected into
// BatchRun.Failures. Results and failures keep the input order.
func (o *Orchestrator) Run(ctx context.Context, jd string, docs []screening.RawDocument) (*screening.BatchRun, error) {
	started := time.Now()

	req, err := o.deps.Parser.Parse(jd)
	if err != nil {
		return nil, err
	}

	run := &screening.BatchRun{
		Requirements: req,
		Total:        len(docs),
	}
	if len(docs) == 0 {
		return run, nil
	}

	outcomes := make(chan outcome)

	go func() {
		defer close(outcomes)

		g := new(errgroup.Group)
		g.SetLimit(o.opts.Concurrency)

		for i, doc := range docs {
			if ctx.Err() != nil {
				outcomes <- cancelled(i, doc)
				continue
			}
			g.Go(func() error {
				// The slot may have been granted after cancellation.
				if ctx.Err() != nil {
					outcomes <- cancelled(i, doc)
					return nil
				}
				outcomes <- o.process(ctx, i, doc, &req)
				return nil
			})
		}

		_ = g.Wait()
	}()

	results := make([]*screening.MatchResult, len(docs))
	failures := make([]*screening.Failure, len(docs))
	done := 0
	for out := range outcomes {
		if out.failure != nil {
			failures[out.index] = out.failure
			if out.failure.Kind == screening.KindCancelled {
				run.Cancelled = true
				o.deps.Recorder.SkipDocument(screening.KindCancelled)
			}
		} else {
			results[out.index] = out.result
			o.deps.Recorder.ObserveResult(out.result)
		}

		done++
		if o.opts.Progress != nil {
			o.opts.Progress(done, len(docs))
		}
	}

	for i := range docs {
		switch {
		case results[i] != nil:
			run.Results = append(run.Results, results[i])
		case failures[i] != nil:
			run.Failures = append(run.Failures, *failures[i])
		}
	}

	o.deps.Logger.Info("batch finished",
		zap.Int("total", run.Total),
		zap.Int("results", len(run.Results)),
		zap.Int("failures", len(run.Failures)),
		zap.Bool("cancelled", run.Cancelled),
		zap.Duration("duration", time.Since(started)),
	)

	return run, nil
}

func (o *Orchestrator) process(ctx context.Context, index int, doc screening.RawDocument, req *screening.JobRequirements) outcome {
	log := logger.WithDocument(o.deps.Logger, doc.ID, doc.Filename)
	o.deps.Recorder.StartDocument()
	started := time.Now()

	text, err := o.extract(ctx, doc)
	doc.Bytes = nil
	if err != nil {
		kind := screening.KindOf(err)
		o.deps.Recorder.FinishDocument(time.Since(started), kind)
		log.Warn("document failed", zap.String("kind", string(kind)), zap.Error(err))
		return outcome{index: index, failure: &screening.Failure{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Kind:       kind,
			Message:    err.Error(),
		}}
	}

	profile := o.deps.Tagger.Tag(text)
	profile.DocumentID = doc.ID

	result := o.deps.Scorer.Score(&profile, req)
	result.DocumentID = doc.ID
	result.Filename = doc.Filename
	result.CandidateName = profile.Name
	if result.CandidateName == "" {
		result.CandidateName = CandidateName(doc.Filename)
	}

	o.deps.Recorder.FinishDocument(time.Since(started), "")
	log.Debug("document scored",
		zap.Float64("score", result.Score),
		zap.String("decision", string(result.Decision)),
		zap.Int("skills", len(result.Skills)),
	)

	return outcome{index: index, result: result}
}

// extract runs the extractor under the per-document deadline. Cancelling the
// batch does not interrupt an extraction that already started. An extractor
// that ignores its context is abandoned when the deadline passes.
func (o *Orchestrator) extract(ctx context.Context, doc screening.RawDocument) (screening.NormalizedText, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.Timeout)
	defer cancel()

	type extracted struct {
		text screening.NormalizedText
		err  error
	}
	done := make(chan extracted, 1)
	go func() {
		text, err := o.deps.Extractor.Extract(ctx, doc)
		done <- extracted{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && screening.KindOf(r.err) == screening.KindUnknown && errors.Is(r.err, context.DeadlineExceeded) {
			return r.text, screening.WrapError(screening.ErrExtractionTimeout, "extract "+doc.Filename, r.err)
		}
		return r.text, r.err
	case <-ctx.Done():
		return screening.NormalizedText{}, screening.WrapError(screening.ErrExtractionTimeout, "extract "+doc.Filename, ctx.Err())
	}
}

func cancelled(index int, doc screening.RawDocument) outcome {
	return outcome{index: index, failure: &screening.Failure{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Kind:       screening.KindCancelled,
		Message:    screening.ErrCancelled.Error(),
	}}
}

var nameSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// CandidateName derives a display name from the file name:
// "jane_doe-cv.pdf" becomes "Jane Doe Cv".
func CandidateName(filename string) string {
	if strings.TrimSpace(filename) == "" {
		return ""
	}
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	name := strings.Join(strings.Fields(nameSeparators.Replace(stem)), " ")
	if name == "" {
		return base
	}
	return cases.Title(language.Und).String(name)
}

type noopRecorder struct{}

func (noopRecorder) StartDocument() {}

func (noopRecorder) FinishDocument(time.Duration, screening.ErrorKind) {}

func (noopRecorder) SkipDocument(screening.ErrorKind) {}

func (noopRecorder) ObserveResult(*screening.MatchResult) {}
