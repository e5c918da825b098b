// Package review relocates original PNG files into the review tree after a
// successful conversion.
//
// The review tree mirrors the source tree's relative structure so originals
// stay easy to compare against their AVIF counterparts before deletion.
// Destination collisions fail loudly rather than overwrite a prior review
// artifact.
package review
