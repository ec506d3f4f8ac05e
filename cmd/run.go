package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/batch"
	"github.com/spigell/resume-screener/internal/export"
	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/filtering"
	"github.com/spigell/resume-screener/internal/input"
	"github.com/spigell/resume-screener/internal/jobreq"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/metrics"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/tagger"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

const (
	PromptYes                 = "Show results"
	PromptNo                  = "Exit"
	PromptBack                = "back"
	PromptReportByDecision    = "Report by decision"
	PromptShowFailures        = "Show failed documents"
	PromptReviewCandidates    = "Review candidates one by one"
	PromptAppendToExcludeFile = "Append all candidates to exclude file"
	PromptResultsToFile       = "Dump results to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptReportByDecision, PromptShowFailures, PromptReviewCandidates, PromptResultsToFile, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run [resume files or directories...]",
	Short: "Screen resumes against a job description",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("jd", "", "job description text")
	runCmd.Flags().String("jd-file", "", "file with the job description")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask what to do with the results, just show them")
	runCmd.Flags().Bool("fit-only", false, "keep only candidates with the Fit decision")
	runCmd.Flags().Float64("min-score", 0, "drop candidates scored below this value")
	runCmd.Flags().StringSlice("require-skill", nil, "keep only candidates having this skill. Can be repeated")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to exclude. Default is unset.")
	runCmd.Flags().String("csv-file", "", "write results as CSV to this file")
	runCmd.Flags().String("xlsx-file", "", "write results as XLSX to this file")
	runCmd.Flags().String("json-file", "", "write results as JSON to this file")
	runCmd.Flags().String("metrics-file", "", "write batch metrics in Prometheus text format to this file")
	runCmd.Flags().Int("concurrency", 0, "number of documents processed in parallel (default is the number of CPUs)")
	runCmd.Flags().Duration("timeout", batch.DefaultTimeout, "per-document extraction timeout")

	viper.BindPFlag("jd.text", runCmd.Flags().Lookup("jd"))
	viper.BindPFlag("jd.file", runCmd.Flags().Lookup("jd-file"))
	viper.BindPFlag("filters.fit-only", runCmd.Flags().Lookup("fit-only"))
	viper.BindPFlag("filters.min-score", runCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("filters.require-skills", runCmd.Flags().Lookup("require-skill"))
	viper.BindPFlag("filters.exclude-file", runCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("export.csv", runCmd.Flags().Lookup("csv-file"))
	viper.BindPFlag("export.xlsx", runCmd.Flags().Lookup("xlsx-file"))
	viper.BindPFlag("export.json", runCmd.Flags().Lookup("json-file"))
	viper.BindPFlag("metrics-file", runCmd.Flags().Lookup("metrics-file"))
	viper.BindPFlag("batch.concurrency", runCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("batch.timeout", runCmd.Flags().Lookup("timeout"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the resume-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	tax, err := taxonomy.Load(config.TaxonomyFile)
	if err != nil {
		logger.Fatal("loading the skill taxonomy",
			zap.Error(err),
			zap.String("hint", "check the 'taxonomy-file' key in the configuration file or RESUME_SCREENER_TAXONOMY environment variable"),
		)
	}

	jd, err := input.LoadText(input.Source{
		Name:  "job description",
		Value: config.JD.Text,
		File:  config.JD.File,
	})
	if err != nil {
		logger.Fatal("loading the job description",
			zap.Error(err),
			zap.String("hint", "use --jd or --jd-file"),
		)
	}

	loaded, err := input.LoadDocuments(args, input.LoadOptions{MaxFileSize: config.Extraction.MaxFileSize})
	if err != nil {
		logger.Fatal("loading resumes", zap.Error(err))
	}

	batchMetrics := metrics.NewBatchMetrics()
	for _, rejected := range loaded.Rejected {
		batchMetrics.SkipDocument(rejected.Kind)
		logger.Warn("skipping file",
			zap.String("kind", string(rejected.Kind)),
			zap.String("filename", rejected.Filename),
			zap.String("reason", rejected.Message),
		)
	}

	logger.Info("screening resumes", zap.Int("count", len(loaded.Documents)))

	batchRun, err := newOrchestrator(config, tax, batchMetrics, logger).Run(ctx, jd, loaded.Documents)
	if err != nil {
		logger.Fatal("screening resumes",
			zap.Error(err),
			zap.String("kind", string(screening.KindOf(err))),
		)
	}
	batchRun.AddRejected(loaded.Rejected)

	if config.MetricsFile != "" {
		if err := batchMetrics.WriteToFile(config.MetricsFile); err != nil {
			logger.Warn("writing metrics file", zap.Error(err))
		}
	}

	results, err := filtering.Run(ctx, &config.Filters, filtering.Deps{Logger: logger, Resolver: tax}, filtering.Defaults(), batchRun.View())
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if err := exportResults(config.Export, export.NewReport(results.Items, batchRun.Failures), logger); err != nil {
		logger.Fatal("exporting results", zap.Error(err))
	}

	switch filtering.Outcome(batchRun, results) {
	case screening.OutcomeEmpty:
		logger.Info("exiting", zap.String("reason", "no resumes to screen"))
		return
	case screening.OutcomeAllFailed:
		logger.Warn("exiting",
			zap.String("reason", "every resume failed to process"),
			zap.Any("failures", batchRun.FailuresByKind()),
		)
		return
	case screening.OutcomeNoneMatched:
		logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		if err := handleAction(PromptYes, logger, config, batchRun, results); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		logger.Info("current list of candidates", zap.Int("count", results.Len()))

		if err := handleAction(action, logger, config, batchRun, results); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func newOrchestrator(config *Config, tax *taxonomy.Taxonomy, recorder batch.Recorder, logger *zap.Logger) *batch.Orchestrator {
	opts := config.Batch
	opts.Progress = func(done, total int) {
		logger.Debug("screening progress", zap.Int("done", done), zap.Int("total", total))
	}

	return batch.New(batch.Deps{
		Extractor: extract.New(config.Extraction.Options, logger),
		Tagger:    tagger.New(tax, config.Tagger),
		Parser:    jobreq.NewParser(tax, config.Tagger, config.Policy()),
		Scorer:    scoring.New(config.Scoring.Config, logger),
		Recorder:  recorder,
		Logger:    logger,
	}, opts)
}

func handleAction(action string, logger *zap.Logger, config *Config, run *screening.BatchRun, results *screening.Results) error {
	switch action {
	case PromptYes:
		pretty, _ := json.MarshalIndent(export.NewReport(results.Items, run.Failures), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", results.Len()))
		return nil
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportByDecision:
		pretty, _ := json.MarshalIndent(results.ReportByDecision(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", results.Len()))
		return nil
	case PromptShowFailures:
		pretty, _ := json.MarshalIndent(run.Failures, "", "  ")
		logger.Info(string(pretty), zap.Int("failures count", len(run.Failures)))
		return nil
	case PromptReviewCandidates:
		return reviewCandidates(logger, config, results)
	case PromptResultsToFile:
		return dumpResults(logger, export.NewReport(results.Items, run.Failures))
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func dumpResults(logger *zap.Logger, report *export.Report) error {
	formats := make([]string, 0, len(export.Formats))
	for _, f := range export.Formats {
		formats = append(formats, string(f))
	}

	formatPrompt := promptui.Select{
		Label: "Choose a format",
		Items: append(formats, PromptBack),
	}

	_, selected, err := formatPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	format, err := export.ParseFormat(selected)
	if err != nil {
		return err
	}

	filename, err := report.ToTmpFile(format)
	if err != nil {
		return fmt.Errorf("dump results to file: %w", err)
	}
	logger.Info("dumping result to file", zap.String("filename", filename))
	return nil
}

func reviewCandidates(logger *zap.Logger, config *Config, results *screening.Results) error {
	for {
		items := make([]string, 0, results.Len()+2)

		for _, r := range results.Items {
			label := fmt.Sprintf("%s / %.4f / %s / %s",
				r.CandidateName, r.Score, r.Decision, r.Filename,
			)

			items = append(items, label)
		}

		excludeFile := strings.TrimSpace(config.Filters.ExcludeFile)
		if excludeFile != "" && results.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptBack),
		}

		index, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			excluded, err := screening.GetExcludedCandidatesFromFile(excludeFile)
			if err != nil {
				return err
			}

			excluded.Append(results.ToExcluded())

			if err = excluded.ToFile(excludeFile); err != nil {
				return err
			}

			logger.Info("appended to exclude file", zap.String("filename", excludeFile))

			results.Exclude(screening.ResultCandidateNameField, excluded.Names())
		default:
			candidate := results.At(index)
			if candidate == nil {
				return fmt.Errorf("there is no such candidate %s", selected)
			}

			logger.Info("candidate",
				zap.String("name", candidate.CandidateName),
				zap.String("file", candidate.Filename),
				zap.Float64("score", candidate.Score),
				zap.String("decision", string(candidate.Decision)),
				zap.String("skills", screening.JoinSkills(candidate.Skills)),
				zap.String("missing", screening.JoinSkills(candidate.MissingSkills)),
				zap.Strings("rationale", candidate.Rationale),
			)
		}
	}
}

func exportResults(cfg ExportConfig, report *export.Report, logger *zap.Logger) error {
	targets := []struct {
		path   string
		format export.Format
	}{
		{cfg.CSV, export.FormatCSV},
		{cfg.XLSX, export.FormatXLSX},
		{cfg.JSON, export.FormatJSON},
	}

	for _, t := range targets {
		path := strings.TrimSpace(t.path)
		if path == "" {
			continue
		}
		if err := report.ToFile(path, t.format); err != nil {
			return err
		}
		logger.Info("results written", zap.String("format", string(t.format)), zap.String("filename", path))
	}
	return nil
}
