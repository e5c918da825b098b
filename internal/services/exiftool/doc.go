// Package exiftool wraps the exiftool command line to read the generation
// metadata tags embedded in AI-produced PNG files.
//
// Only two tags matter to the pipeline: Prompt (ComfyUI workflow graphs) and
// Parameters (Automatic1111 generation settings). Extraction is read-only and
// a failed invocation is reported as an error so the caller can degrade to
// "no metadata" without aborting the run.
package exiftool
