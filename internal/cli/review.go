package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reviewkit/internal/aggregate"
	"reviewkit/internal/config"
	"reviewkit/internal/fs"
	"reviewkit/internal/git"
	"reviewkit/internal/metrics"
	"reviewkit/internal/output"
	"reviewkit/internal/review"
	"reviewkit/internal/rules"
	"reviewkit/internal/templates"
)

// Streams are where a review writes. Out receives the report unless it
// goes to a file.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

func (a *app) runReview(cmd *cobra.Command, target string) error {
	cfg, err := a.load(cmd)
	if err != nil {
		return err
	}

	code, err := RunReview(cmd.Context(), cfg, target, Streams{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}, slog.Default())
	if err != nil {
		return err
	}
	a.exitCode = code
	return nil
}

// RunReview reviews target (a file or directory) with cfg and returns the
// exit code for the findings.
func RunReview(ctx context.Context, cfg *config.Config, target string, streams Streams, logger *slog.Logger) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	languages, err := ParseLanguages(cfg.Languages)
	if err != nil {
		return ExitError, fmt.Errorf("failed to parse languages: %w", err)
	}

	recorder := metrics.NewRecorder()
	logger = logger.With("review_id", recorder.ID())

	selection, err := selectFiles(ctx, cfg, target, ExtensionsFor(languages), logger)
	if err != nil {
		return ExitError, err
	}
	recorder.SetTotalCodebaseSize(selection.totalFiles, selection.totalLines)
	logger.Info("files selected", "files", len(selection.files), "codebase_files", selection.totalFiles)

	tmpl := templates.NewLoader(cfg.TemplateDir, logger).Load(cfg.Template)
	logger.Info("using review checklist", "template", tmpl.Name, "sections", len(tmpl.Sections), "items", tmpl.Items())

	engine := rules.NewEngine(rules.WithRecorder(recorder), rules.WithLogger(logger))
	pipeline, err := review.NewPipeline(review.Config{
		MaxWorkers:   cfg.Pipeline.Workers,
		MaxQueueSize: cfg.Pipeline.QueueSize,
		MaxRetries:   cfg.Pipeline.MaxRetries,
	}, engine, review.WithRecorder(recorder), review.WithLogger(logger))
	if err != nil {
		return ExitError, fmt.Errorf("failed to create review pipeline: %w", err)
	}
	defer pipeline.Stop()

	result, err := pipeline.Run(ctx, selection.pointers())
	if err != nil {
		return ExitError, fmt.Errorf("review failed: %w", err)
	}

	agg := aggregate.New()
	var stats review.Stats
	collect(result, agg, &stats, recorder, logger)

	report := output.Report{
		Result:   result,
		Issues:   agg.Snapshot(),
		Stats:    stats,
		Template: tmpl.Name,
	}
	if err := writeReport(cfg, report, streams.Out); err != nil {
		return ExitError, err
	}
	if cfg.Output.File != "" {
		logger.Info("review report written", "path", cfg.Output.File)
	}

	snap := recorder.Snapshot()
	if cfg.Output.MetricsOut != "" {
		if err := metrics.ExportFile(cfg.Output.MetricsOut, snap); err != nil {
			return ExitError, err
		}
		logger.Info("metrics exported", "path", cfg.Output.MetricsOut)
	}

	if cfg.Output.Summary {
		w := streams.Err
		if cfg.Output.File != "" {
			w = streams.Out
		}
		if err := metrics.Summary(w, snap, metrics.SummaryOptions{}); err != nil {
			return ExitError, fmt.Errorf("failed to print summary: %w", err)
		}
	}

	return output.DetermineExitCode(result), nil
}

// collect feeds every reviewed file into the aggregator, the stats and
// the recorder, in input order. Failed and skipped files are only logged.
func collect(result *review.ReviewResult, agg *aggregate.Aggregator, stats *review.Stats, recorder *metrics.Recorder, logger *slog.Logger) {
	for _, fr := range result.FileReviews {
		name := fr.File.Relative
		switch {
		case fr.Skipped != "":
			logger.Info("file skipped", "file", name, "reason", fr.Skipped)
			continue
		case fr.Error != "":
			logger.Error("file not reviewed", "file", name, "error", fr.Error)
			continue
		}

		agg.AddFile(name, fr.Issues)
		stats.Record(fr.Issues)

		recorder.RecordFileReview(name, fr.File.Lines, fr.File.Lines)
		for _, issue := range fr.Issues {
			recorder.RecordIssue(string(issue.Category.MetricCategory()), name, issue.Line, issue.Message)
		}
		recorder.RecordTiming("file_review", name, fr.Duration)
	}
}

func writeReport(cfg *config.Config, report output.Report, stdout io.Writer) error {
	factory := output.NewFormatterFactory()

	if cfg.Output.File == "" {
		formatter, err := factory.CreateFormatterFromFlags(cfg.Output.Format, !cfg.Output.NoColor)
		if err != nil {
			return fmt.Errorf("failed to create formatter: %w", err)
		}
		return formatter.Format(report, stdout)
	}

	formatter, err := factory.CreateFormatter(output.Config{Format: cfg.Output.Format})
	if err != nil {
		return fmt.Errorf("failed to create formatter: %w", err)
	}

	if dir := filepath.Dir(cfg.Output.File); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.Create(cfg.Output.File)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := formatter.Format(report, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// selection is the set of files to review plus the size of the codebase
// they were taken from.
type selection struct {
	files      []fs.FileInfo
	totalFiles int
	totalLines int
}

func (s selection) pointers() []*fs.FileInfo {
	out := make([]*fs.FileInfo, len(s.files))
	for i := range s.files {
		out[i] = &s.files[i]
	}
	return out
}

// selectFiles resolves target into files to review. A single file is
// reviewed whatever its extension. For a directory the whole tree is
// scanned to size the codebase; --changed and --staged then narrow the
// selection to what git reports, and --max-files caps it.
func selectFiles(ctx context.Context, cfg *config.Config, target string, extensions []string, logger *slog.Logger) (selection, error) {
	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return selection{}, fmt.Errorf("path not found: %s", target)
		}
		return selection{}, fmt.Errorf("failed to stat %s: %w", target, err)
	}

	if !info.IsDir() {
		file, err := fs.Stat(target)
		if err != nil {
			return selection{}, err
		}
		return selection{files: []fs.FileInfo{file}, totalFiles: 1, totalLines: file.Lines}, nil
	}

	scanner, err := fs.NewScanner(fs.Config{
		RootDir:     target,
		Extensions:  extensions,
		MaxFileSize: cfg.MaxFileSize,
		IgnoreDirs:  cfg.IgnoreDirs,
	})
	if err != nil {
		return selection{}, fmt.Errorf("failed to create scanner: %w", err)
	}

	all, err := scanner.Scan(ctx, 0)
	if err != nil {
		return selection{}, fmt.Errorf("failed to scan %s: %w", target, err)
	}

	sel := selection{files: all, totalFiles: len(all)}
	for _, f := range all {
		sel.totalLines += f.Lines
	}

	if cfg.ChangedOnly || cfg.StagedOnly {
		changed, err := changedFiles(ctx, scanner, cfg.StagedOnly, logger)
		if err != nil {
			return selection{}, err
		}
		if changed != nil {
			sel.files = changed
		}
	}

	if cfg.MaxFiles > 0 && len(sel.files) > cfg.MaxFiles {
		logger.Warn("file limit reached", "limit", cfg.MaxFiles, "found", len(sel.files))
		sel.files = sel.files[:cfg.MaxFiles]
	}
	return sel, nil
}

// changedFiles returns the scanner-matching files git reports as changed.
// Outside a git repository it logs a warning and returns nil so the full
// scan is reviewed instead.
func changedFiles(ctx context.Context, scanner *fs.Scanner, stagedOnly bool, logger *slog.Logger) ([]fs.FileInfo, error) {
	worktree, err := git.Open(ctx, scanner.Root())
	if err != nil {
		logger.Warn("not a git repository, reviewing all files", "error", err)
		return nil, nil
	}

	paths, err := worktree.ChangedFiles(ctx, scanner.Root(), stagedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get changed files: %w", err)
	}

	files := []fs.FileInfo{}
	for _, path := range paths {
		if !scanner.Matches(path) {
			continue
		}
		file, err := scanner.Describe(path)
		if err != nil {
			logger.Warn("changed file not readable", "path", path, "error", err)
			continue
		}
		files = append(files, file)
	}
	logger.Info("git changes", "staged_only", stagedOnly, "changed", len(paths), "reviewable", len(files))
	return files, nil
}
