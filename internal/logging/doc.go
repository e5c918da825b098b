// Package logging builds slog loggers for the CLI and pipeline.
//
// It supports console and JSON output, optional log files under the
// configured log directory, and attribute helpers so call sites stay terse.
// Component loggers stamp a shared attribute key used to trace which part of
// the pipeline emitted an event.
package logging
