// Package scan discovers PNG files under a source root.
//
// Discovery records each file's absolute path together with its path relative
// to the root so later stages can mirror the tree under the review directory.
// A review directory nested inside the root is skipped so re-runs never pick
// up already-relocated originals.
package scan
