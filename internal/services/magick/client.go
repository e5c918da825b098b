package magick

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// ConvertOptions control the AVIF encode.
type ConvertOptions struct {
	Quality         int
	HEICCompression int
}

// Client defines image conversion behaviour.
type Client interface {
	Convert(ctx context.Context, inputPath, outputPath string, opts ConvertOptions) error
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

// CLI wraps the magick command-line converter.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "magick"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Convert encodes inputPath to AVIF at outputPath. The output file must exist
// after a successful invocation; a clean exit without output is still an error.
func (c *CLI) Convert(ctx context.Context, inputPath, outputPath string, opts ConvertOptions) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = 90
	}

	args := []string{
		inputPath,
		"-quality", strconv.Itoa(quality),
		"-define", fmt.Sprintf("heic:compression=%d", opts.HEICCompression),
		outputPath,
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(output.String())
		if detail != "" {
			return fmt.Errorf("magick convert %s: %w: %s", inputPath, err, detail)
		}
		return fmt.Errorf("magick convert %s: %w", inputPath, err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("magick reported success but output %s is missing: %w", outputPath, err)
	}
	return nil
}

var _ Client = (*CLI)(nil)
