package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Entry identifies one discovered source image.
type Entry struct {
	// Path is the absolute path of the PNG file.
	Path string
	// Rel is the path relative to the scan root, using the OS separator.
	Rel string
}

// Discover walks root recursively and returns every PNG file found, ordered
// by the walk. skipDir names a directory subtree to exclude; pass the review
// directory so relocated originals are never re-processed.
func Discover(root, skipDir string) ([]Entry, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	absSkip := ""
	if skipDir != "" {
		if absSkip, err = filepath.Abs(skipDir); err != nil {
			return nil, fmt.Errorf("resolve skip dir %s: %w", skipDir, err)
		}
	}

	var entries []Entry
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if absSkip != "" && path == absSkip {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".png") {
			return nil
		}
		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return relErr
		}
		entries = append(entries, Entry{Path: path, Rel: rel})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, walkErr)
	}
	return entries, nil
}
