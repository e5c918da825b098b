package review

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"avifsweep/internal/fileutil"
)

// Mover relocates originals into a fixed review root.
type Mover struct {
	reviewDir string
}

// NewMover constructs a Mover targeting reviewDir.
func NewMover(reviewDir string) (*Mover, error) {
	if reviewDir == "" {
		return nil, errors.New("review directory required")
	}
	abs, err := filepath.Abs(reviewDir)
	if err != nil {
		return nil, fmt.Errorf("resolve review dir %s: %w", reviewDir, err)
	}
	return &Mover{reviewDir: abs}, nil
}

// Dir returns the absolute review root.
func (m *Mover) Dir() string {
	return m.reviewDir
}

// Move relocates src to <reviewDir>/<rel>, creating parent directories as
// needed. An occupied destination is an error; the source is left untouched.
func (m *Mover) Move(src, rel string) (string, error) {
	if src == "" {
		return "", errors.New("source path required")
	}
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("relative path required, got %q", rel)
	}

	target := filepath.Join(m.reviewDir, rel)
	if err := fileutil.EnsureParentDir(target); err != nil {
		return "", fmt.Errorf("create review directory for %s: %w", rel, err)
	}

	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("review destination already exists: %s", target)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat review destination %s: %w", target, err)
	}

	if err := fileutil.MoveFile(src, target); err != nil {
		return "", fmt.Errorf("move %s to review: %w", src, err)
	}
	return target, nil
}
