package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avifsweep/internal/journal"
	"avifsweep/internal/logging"
	"avifsweep/internal/services/exiftool"
	"avifsweep/internal/services/magick"
	"avifsweep/internal/testsupport"
)

type fakeExtractor struct {
	meta map[string]exiftool.Metadata
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (exiftool.Metadata, error) {
	if f.err != nil {
		return exiftool.Metadata{}, f.err
	}
	return f.meta[filepath.Base(path)], nil
}

type fakeConverter struct {
	failFor map[string]bool
}

func (f *fakeConverter) Convert(_ context.Context, inputPath, outputPath string, _ magick.ConvertOptions) error {
	if f.failFor[filepath.Base(inputPath)] {
		return errors.New("exit status 1")
	}
	return os.WriteFile(outputPath, []byte("avif"), 0o644)
}

func newTestRunner(t *testing.T, extractor exiftool.Client, converter magick.Client) (*Runner, *journal.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	runner, err := NewRunner(cfg, logging.NewNop(), extractor, converter, store)
	if err != nil {
		t.Fatalf("NewRunner returned error: %v", err)
	}
	return runner, store
}

func TestRunConvertsAndRelocates(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "art1.png"), []byte("png"))
	testsupport.WriteFile(t, filepath.Join(root, "subfolder", "art3.png"), []byte("png"))
	testsupport.WriteFile(t, filepath.Join(root, "plain.png"), []byte("png"))

	extractor := &fakeExtractor{meta: map[string]exiftool.Metadata{
		"art1.png": {Parameters: "seed=42, steps=20"},
		"art3.png": {Prompt: `{"nodes": []}`},
	}}
	runner, store := newTestRunner(t, extractor, &fakeConverter{})

	summary, err := runner.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Discovered != 3 || summary.Converted != 3 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Sidecars != 2 {
		t.Fatalf("expected 2 sidecars, got %d", summary.Sidecars)
	}

	// AVIF outputs appear next to the originals' locations.
	for _, rel := range []string{"art1.avif", filepath.Join("subfolder", "art3.avif"), "plain.avif"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Fatalf("expected AVIF %s: %v", rel, err)
		}
	}

	// Sidecars match the tag type.
	txt, err := os.ReadFile(filepath.Join(root, "art1.txt"))
	if err != nil || string(txt) != "seed=42, steps=20" {
		t.Fatalf("expected parameters sidecar, got %q err %v", txt, err)
	}
	if _, err := os.Stat(filepath.Join(root, "subfolder", "art3.json")); err != nil {
		t.Fatalf("expected JSON sidecar: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "plain.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected no sidecar for metadata-free image, stat err: %v", err)
	}

	// Originals moved under Review, mirroring the tree.
	for _, rel := range []string{"art1.png", filepath.Join("subfolder", "art3.png"), "plain.png"} {
		if _, err := os.Stat(filepath.Join(root, rel)); !os.IsNotExist(err) {
			t.Fatalf("expected original %s to be moved, stat err: %v", rel, err)
		}
		if _, err := os.Stat(filepath.Join(root, "Review", rel)); err != nil {
			t.Fatalf("expected review copy %s: %v", rel, err)
		}
	}

	// Journal rows match the summary.
	runs, err := store.RecentRuns(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected journal run, got %v err %v", runs, err)
	}
	if runs[0].Converted != 3 || runs[0].Sidecars != 2 || runs[0].Failed != 0 {
		t.Fatalf("unexpected journal counts: %+v", runs[0])
	}
	files, err := store.FilesForRun(context.Background(), runs[0].ID)
	if err != nil || len(files) != 3 {
		t.Fatalf("expected 3 file rows, got %d err %v", len(files), err)
	}
}

func TestRunConversionFailureLeavesOriginal(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "good.png"), []byte("png"))
	testsupport.WriteFile(t, filepath.Join(root, "bad.png"), []byte("png"))

	converter := &fakeConverter{failFor: map[string]bool{"bad.png": true}}
	runner, _ := newTestRunner(t, &fakeExtractor{}, converter)

	summary, err := runner.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Converted != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].Outcome != journal.OutcomeConversionFailed {
		t.Fatalf("unexpected failures: %+v", summary.Failures)
	}

	// Failed file stays put, untouched by relocation.
	if _, err := os.Stat(filepath.Join(root, "bad.png")); err != nil {
		t.Fatalf("expected failed original in place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Review", "bad.png")); !os.IsNotExist(err) {
		t.Fatalf("expected no review copy for failed file, stat err: %v", err)
	}
	// The good file completed normally.
	if _, err := os.Stat(filepath.Join(root, "Review", "good.png")); err != nil {
		t.Fatalf("expected review copy for good file: %v", err)
	}
}

func TestRunExtractionFailureTreatedAsNoMetadata(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "art.png"), []byte("png"))

	extractor := &fakeExtractor{err: errors.New("exiftool missing")}
	runner, _ := newTestRunner(t, extractor, &fakeConverter{})

	summary, err := runner.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Converted != 1 || summary.Failed != 0 || summary.Sidecars != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(root, "art.avif")); err != nil {
		t.Fatalf("expected conversion despite extraction failure: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "art.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected no sidecar, stat err: %v", err)
	}
}

func TestRunRelocationCollisionRecorded(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "art.png"), []byte("new"))
	testsupport.WriteFile(t, filepath.Join(root, "Review", "art.png"), []byte("old"))

	runner, _ := newTestRunner(t, &fakeExtractor{}, &fakeConverter{})

	summary, err := runner.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Failed != 1 || summary.Converted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Failures[0].Outcome != journal.OutcomeRelocationFailed {
		t.Fatalf("expected relocation failure, got %+v", summary.Failures[0])
	}
	// Source and prior review artifact both survive.
	if _, err := os.Stat(filepath.Join(root, "art.png")); err != nil {
		t.Fatalf("expected source in place: %v", err)
	}
	old, err := os.ReadFile(filepath.Join(root, "Review", "art.png"))
	if err != nil || string(old) != "old" {
		t.Fatalf("expected prior review artifact untouched, got %q err %v", old, err)
	}
}

func TestRunEmptyTreeIsNoop(t *testing.T) {
	runner, _ := newTestRunner(t, &fakeExtractor{}, &fakeConverter{})

	summary, err := runner.Run(context.Background(), Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Discovered != 0 || summary.Converted != 0 || summary.Failed != 0 {
		t.Fatalf("expected no-op summary, got %+v", summary)
	}
}

func TestRunSecondPassIsNoop(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "art.png"), []byte("png"))

	runner, _ := newTestRunner(t, &fakeExtractor{}, &fakeConverter{})

	first, err := runner.Run(context.Background(), Options{Root: root})
	if err != nil || first.Converted != 1 {
		t.Fatalf("first run failed: %+v err %v", first, err)
	}

	second, err := runner.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if second.Discovered != 0 {
		t.Fatalf("expected re-run to discover nothing, got %+v", second)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "art.png"), []byte("png"))

	runner, store := newTestRunner(t, &fakeExtractor{}, &fakeConverter{})

	summary, err := runner.Run(context.Background(), Options{Root: root, DryRun: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Discovered != 1 || summary.Converted != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected dry-run summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(root, "art.avif")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not convert, stat err: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "art.png")); err != nil {
		t.Fatalf("dry run must not move originals: %v", err)
	}

	runs, err := store.RecentRuns(context.Background(), 1)
	if err != nil || len(runs) != 1 || !runs[0].DryRun {
		t.Fatalf("expected dry-run journal row, got %v err %v", runs, err)
	}
	files, err := store.FilesForRun(context.Background(), runs[0].ID)
	if err != nil || len(files) != 1 || files[0].Outcome != journal.OutcomePlanned {
		t.Fatalf("expected planned outcome, got %v err %v", files, err)
	}
}

func TestRunMissingRootIsConfigurationError(t *testing.T) {
	runner, _ := newTestRunner(t, &fakeExtractor{}, &fakeConverter{})

	_, err := runner.Run(context.Background(), Options{Root: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunReviewDirMustDiffer(t *testing.T) {
	runner, _ := newTestRunner(t, &fakeExtractor{}, &fakeConverter{})
	root := t.TempDir()

	if _, err := runner.Run(context.Background(), Options{Root: root, ReviewDir: root}); err == nil {
		t.Fatal("expected error when review dir equals root")
	}
}

func TestRunQualityOverride(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "art.png"), []byte("png"))

	var captured magick.ConvertOptions
	converter := converterFunc(func(_ context.Context, inputPath, outputPath string, opts magick.ConvertOptions) error {
		captured = opts
		return os.WriteFile(outputPath, []byte("avif"), 0o644)
	})
	runner, _ := newTestRunner(t, &fakeExtractor{}, converter)

	if _, err := runner.Run(context.Background(), Options{Root: root, Quality: 55}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if captured.Quality != 55 {
		t.Fatalf("expected quality override 55, got %d", captured.Quality)
	}
	if captured.HEICCompression != 10 {
		t.Fatalf("expected configured heic compression, got %d", captured.HEICCompression)
	}
}

func TestRunNilExtractorSkipsSidecars(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "art.png"), []byte("png"))

	cfg := testsupport.NewConfig(t, testsupport.WithMetadataDisabled())
	runner, err := NewRunner(cfg, logging.NewNop(), nil, &fakeConverter{}, nil)
	if err != nil {
		t.Fatalf("NewRunner returned error: %v", err)
	}

	summary, err := runner.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Converted != 1 || summary.Sidecars != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

type converterFunc func(ctx context.Context, inputPath, outputPath string, opts magick.ConvertOptions) error

func (f converterFunc) Convert(ctx context.Context, inputPath, outputPath string, opts magick.ConvertOptions) error {
	return f(ctx, inputPath, outputPath, opts)
}
