package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"avifsweep/internal/config"
	"avifsweep/internal/journal"
	"avifsweep/internal/logging"
	"avifsweep/internal/review"
	"avifsweep/internal/scan"
	"avifsweep/internal/services"
	"avifsweep/internal/services/exiftool"
	"avifsweep/internal/services/magick"
	"avifsweep/internal/sidecar"
)

// Options controls a single pipeline run.
type Options struct {
	// Root is the directory scanned for PNG files.
	Root string
	// ReviewDir overrides the review destination. Empty falls back to the
	// configured review dir, then <Root>/Review.
	ReviewDir string
	// Workers overrides the configured pool size when > 0.
	Workers int
	// Quality overrides the configured AVIF quality when > 0.
	Quality int
	// DryRun discovers and reports without writing anything.
	DryRun bool
}

// FileResult captures the outcome for one source image.
type FileResult struct {
	Entry    scan.Entry
	Outcome  journal.Outcome
	Sidecar  sidecar.Kind
	Output   string
	Review   string
	Err      error
	Duration time.Duration
}

// Summary aggregates a completed run.
type Summary struct {
	RunID      string
	Root       string
	ReviewDir  string
	DryRun     bool
	Discovered int
	Converted  int
	Sidecars   int
	Failed     int
	Elapsed    time.Duration
	Failures   []FileResult
}

// Runner executes the conversion pipeline.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	extractor exiftool.Client
	converter magick.Client
	store     *journal.Store
}

// NewRunner wires a Runner. The extractor may be nil when metadata extraction
// is disabled; the journal store may be nil to skip run history.
func NewRunner(cfg *config.Config, logger *slog.Logger, extractor exiftool.Client, converter magick.Client, store *journal.Store) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("runner requires config")
	}
	if converter == nil {
		return nil, errors.New("runner requires a converter")
	}
	return &Runner{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		extractor: extractor,
		converter: converter,
		store:     store,
	}, nil
}

// Run executes the pipeline for opts.Root and returns the summary. Only
// configuration problems (missing root, lock contention) return an error;
// per-file failures are reported through the summary.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	started := time.Now()

	root, err := filepath.Abs(strings.TrimSpace(opts.Root))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanning", "resolve root", "Source folder path could not be resolved", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "scanning", "validate root", fmt.Sprintf("Source folder %s is not a directory", root), err)
	}

	reviewDir, err := r.resolveReviewDir(root, opts.ReviewDir)
	if err != nil {
		return nil, err
	}

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanning", "ensure log dir", "Log directory could not be created", err)
	}
	lock := flock.New(filepath.Join(r.cfg.Paths.LogDir, "avifsweep.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "scanning", "acquire lock", "Run lock could not be acquired", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "scanning", "acquire lock", "Another avifsweep run is already in progress", nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := r.logger.With(logging.String("run_id", runID))

	entries, err := scan.Discover(root, reviewDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanning", "discover files", "Failed to enumerate PNG files", err)
	}

	logger.Info("run started",
		logging.String("root", root),
		logging.String("review_dir", reviewDir),
		logging.Int("discovered", len(entries)),
		logging.Bool("dry_run", opts.DryRun),
	)

	var journalID int64
	if r.store != nil {
		journalID, err = r.store.BeginRun(ctx, runID, root, reviewDir, opts.DryRun)
		if err != nil {
			logger.Warn("journal unavailable; run history will be incomplete", logging.Error(err))
			journalID = 0
		}
	}

	summary := &Summary{
		RunID:      runID,
		Root:       root,
		ReviewDir:  reviewDir,
		DryRun:     opts.DryRun,
		Discovered: len(entries),
	}

	mover, err := review.NewMover(reviewDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "relocating", "resolve review dir", "Review folder is unusable", err)
	}

	results := r.process(ctx, logger, entries, mover, opts)
	for _, result := range results {
		r.recordResult(ctx, logger, journalID, result)
		switch {
		case result.Outcome == journal.OutcomeConverted:
			summary.Converted++
			if result.Sidecar != sidecar.KindNone {
				summary.Sidecars++
			}
		case result.Outcome.Failed():
			summary.Failed++
			summary.Failures = append(summary.Failures, result)
		}
	}

	summary.Elapsed = time.Since(started)
	if r.store != nil && journalID != 0 {
		if err := r.store.FinishRun(ctx, journalID, summary.Discovered, summary.Converted, summary.Sidecars, summary.Failed); err != nil {
			logger.Warn("failed to finalize journal run", logging.Error(err))
		}
	}

	logger.Info("run finished",
		logging.Int("converted", summary.Converted),
		logging.Int("sidecars", summary.Sidecars),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (r *Runner) resolveReviewDir(root, override string) (string, error) {
	candidate := strings.TrimSpace(override)
	if candidate == "" {
		candidate = strings.TrimSpace(r.cfg.Paths.ReviewDir)
	}
	if candidate == "" {
		candidate = filepath.Join(root, "Review")
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "scanning", "resolve review dir", "Review folder path could not be resolved", err)
	}
	if abs == root {
		return "", services.Wrap(services.ErrConfiguration, "scanning", "resolve review dir", "Review folder must differ from the source folder", nil)
	}
	return abs, nil
}

// process fans entries out to a bounded worker pool. Cancellation stops
// dispatching new files; in-flight files run to completion so no file is ever
// left half-done.
func (r *Runner) process(ctx context.Context, logger *slog.Logger, entries []scan.Entry, mover *review.Mover, opts Options) []FileResult {
	if len(entries) == 0 {
		return nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = r.cfg.Workflow.Workers
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	jobs := make(chan scan.Entry)
	out := make(chan FileResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				out <- r.processEntry(ctx, logger, entry, mover, opts)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, entry := range entries {
			select {
			case jobs <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]FileResult, 0, len(entries))
	for result := range out {
		results = append(results, result)
	}
	return results
}

// processEntry runs one file through extraction, sidecar, conversion, and
// relocation. The source is only moved once conversion has succeeded.
func (r *Runner) processEntry(ctx context.Context, logger *slog.Logger, entry scan.Entry, mover *review.Mover, opts Options) FileResult {
	started := time.Now()
	ctx = services.WithSourcePath(ctx, entry.Path)
	result := FileResult{Entry: entry}

	if opts.DryRun {
		result.Outcome = journal.OutcomePlanned
		result.Duration = time.Since(started)
		return result
	}

	fields := r.extractFields(ctx, logger, entry)

	sidecarResult, err := sidecar.Write(fields, entry.Path)
	if err != nil {
		result.Outcome = journal.OutcomeSidecarFailed
		result.Err = services.Wrap(services.ErrTransient, "classifying", "write sidecar", "Sidecar file could not be written", err)
		result.Duration = time.Since(started)
		logger.Warn("sidecar write failed; file left in place", logging.String("source", entry.Path), logging.Error(err))
		return result
	}
	result.Sidecar = sidecarResult.Kind

	output := strings.TrimSuffix(entry.Path, filepath.Ext(entry.Path)) + ".avif"
	convertOpts := magick.ConvertOptions{
		Quality:         r.cfg.Conversion.Quality,
		HEICCompression: r.cfg.Conversion.HEICCompression,
	}
	if opts.Quality > 0 {
		convertOpts.Quality = opts.Quality
	}
	if err := r.converter.Convert(services.WithStage(ctx, "converting"), entry.Path, output, convertOpts); err != nil {
		result.Outcome = journal.OutcomeConversionFailed
		result.Err = services.Wrap(services.ErrExternalTool, "converting", "invoke magick", "AVIF conversion failed", err)
		result.Duration = time.Since(started)
		logger.Warn("conversion failed; original left in place", logging.String("source", entry.Path), logging.Error(err))
		return result
	}
	result.Output = output

	target, err := mover.Move(entry.Path, entry.Rel)
	if err != nil {
		result.Outcome = journal.OutcomeRelocationFailed
		result.Err = services.Wrap(services.ErrTransient, "relocating", "move original", "Original could not be moved to review", err)
		result.Duration = time.Since(started)
		logger.Warn("relocation failed; original left in place", logging.String("source", entry.Path), logging.Error(err))
		return result
	}
	result.Review = target

	result.Outcome = journal.OutcomeConverted
	result.Duration = time.Since(started)
	logger.Debug("file processed",
		logging.String("source", entry.Path),
		logging.String("output", output),
		logging.String("review", target),
		logging.String("sidecar", string(result.Sidecar)),
		logging.Duration("duration", result.Duration),
	)
	return result
}

// extractFields reads metadata tags, degrading to empty fields when the tool
// is unavailable or the file is unreadable.
func (r *Runner) extractFields(ctx context.Context, logger *slog.Logger, entry scan.Entry) sidecar.Fields {
	if r.extractor == nil {
		return sidecar.Fields{}
	}
	meta, err := r.extractor.Extract(services.WithStage(ctx, "extracting"), entry.Path)
	if err != nil {
		logger.Warn("metadata extraction failed; treating as no metadata",
			logging.String("source", entry.Path),
			logging.Error(err),
		)
		return sidecar.Fields{}
	}
	return sidecar.Fields{Prompt: meta.Prompt, Parameters: meta.Parameters}
}

func (r *Runner) recordResult(ctx context.Context, logger *slog.Logger, journalID int64, result FileResult) {
	if r.store == nil || journalID == 0 {
		return
	}
	errText := ""
	if result.Err != nil {
		errText = result.Err.Error()
	}
	rec := journal.FileRecord{
		SourcePath: result.Entry.Path,
		RelPath:    result.Entry.Rel,
		Outcome:    result.Outcome,
		Sidecar:    string(result.Sidecar),
		Error:      errText,
		Duration:   result.Duration,
	}
	if err := r.store.RecordFile(ctx, journalID, rec); err != nil {
		logger.Warn("failed to record file outcome", logging.String("source", result.Entry.Path), logging.Error(err))
	}
}
