package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Metadata holds the raw text of the two recognized generation tags. Absent
// tags are empty strings.
type Metadata struct {
	Prompt     string
	Parameters string
}

// Empty reports whether neither recognized tag was present.
func (m Metadata) Empty() bool {
	return strings.TrimSpace(m.Prompt) == "" && strings.TrimSpace(m.Parameters) == ""
}

// Client defines metadata extraction behaviour.
type Client interface {
	Extract(ctx context.Context, path string) (Metadata, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the exiftool command-line reader.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "exiftool"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Extract queries the Prompt and Parameters tags for a single file. Tags that
// are absent come back empty; any tool failure is returned as an error.
func (c *CLI) Extract(ctx context.Context, path string) (Metadata, error) {
	if path == "" {
		return Metadata{}, errors.New("image path required")
	}

	args := []string{"-json", "-Prompt", "-Parameters", path}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return Metadata{}, fmt.Errorf("exiftool %s: %w: %s", path, err, detail)
		}
		return Metadata{}, fmt.Errorf("exiftool %s: %w", path, err)
	}

	// exiftool -json emits one object per input file in a JSON array.
	var records []struct {
		Prompt     json.RawMessage `json:"Prompt"`
		Parameters json.RawMessage `json:"Parameters"`
	}
	if err := json.Unmarshal(out, &records); err != nil {
		return Metadata{}, fmt.Errorf("parse exiftool output for %s: %w", path, err)
	}
	if len(records) == 0 {
		return Metadata{}, fmt.Errorf("exiftool produced no record for %s", path)
	}

	return Metadata{
		Prompt:     rawTagText(records[0].Prompt),
		Parameters: rawTagText(records[0].Parameters),
	}, nil
}

// rawTagText converts a tag value to text. Tags are usually JSON strings, but
// exiftool may emit numbers or other scalars for malformed files.
func rawTagText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

var _ Client = (*CLI)(nil)
