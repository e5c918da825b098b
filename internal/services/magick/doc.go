// Package magick wraps the ImageMagick command line to convert PNG images to
// AVIF.
//
// The conversion never modifies the source file. A non-zero exit or a missing
// output file is reported as an error so the orchestrator can leave the
// original in place and continue with the next file.
package magick
