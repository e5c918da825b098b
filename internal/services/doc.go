// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, source paths, and stage names for
//     logging and correlation.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across extraction, conversion, and relocation.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
