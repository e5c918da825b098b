// Package sidecar classifies extracted generation metadata and writes it next
// to the eventual AVIF output.
//
// A Prompt tag that parses as JSON becomes a pretty-printed .json sidecar; a
// Prompt that is not valid JSON, or a Parameters tag, becomes a .txt sidecar.
// Prompt always wins when both tags are present. At most one sidecar is
// written per image, and an occupied target name gets a _1, _2, ... suffix
// instead of being overwritten.
package sidecar
