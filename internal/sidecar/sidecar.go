package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies what was written for an image.
type Kind string

const (
	KindNone Kind = ""
	KindJSON Kind = "json"
	KindText Kind = "txt"
)

// Fields holds the raw tag text handed over by the extractor.
type Fields struct {
	Prompt     string
	Parameters string
}

// Result reports what Write produced.
type Result struct {
	Path string
	Kind Kind
}

// Write classifies fields and writes at most one sidecar file sharing the
// base name of imagePath. It returns a zero Result when neither field is
// present. Prompt takes precedence over Parameters.
func Write(fields Fields, imagePath string) (Result, error) {
	prompt := strings.TrimSpace(fields.Prompt)
	params := strings.TrimSpace(fields.Parameters)

	switch {
	case prompt != "":
		if formatted, ok := formatWorkflowJSON(prompt); ok {
			return writeSidecar(imagePath, ".json", formatted, KindJSON)
		}
		// Prompt tags that are not valid JSON are kept as plain text.
		return writeSidecar(imagePath, ".txt", []byte(prompt), KindText)
	case params != "":
		return writeSidecar(imagePath, ".txt", []byte(params), KindText)
	default:
		return Result{}, nil
	}
}

// formatWorkflowJSON re-indents a serialized workflow graph for readability.
func formatWorkflowJSON(text string) ([]byte, bool) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, false
	}
	formatted, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		return nil, false
	}
	return formatted, true
}

func writeSidecar(imagePath, ext string, contents []byte, kind Kind) (Result, error) {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	target, err := uniquePath(base + ext)
	if err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(target, contents, 0o644); err != nil {
		return Result{}, fmt.Errorf("write sidecar %s: %w", target, err)
	}
	return Result{Path: target, Kind: kind}, nil
}

// uniquePath returns path if it is free, otherwise the first available
// <stem>_N<ext> variant.
func uniquePath(path string) (string, error) {
	const maxAttempts = 10000
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path, nil
	} else if err != nil {
		return "", err
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, attempt, ext)
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted sidecar filename slots for %s", path)
}
