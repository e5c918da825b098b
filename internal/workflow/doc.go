// Package workflow orchestrates the per-file conversion pipeline.
//
// A Runner discovers PNG files under a root, then drives each through
// extraction, sidecar writing, AVIF conversion, and relocation into the
// review tree. Files are independent: a bounded worker pool processes them
// concurrently and per-file failures are recorded without aborting the run.
// Within one file the stage order is fixed; the original is only moved after
// its conversion succeeded, so a failed file always stays in place for
// inspection and retry.
package workflow
