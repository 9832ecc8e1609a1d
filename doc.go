// Package scrollshot stitches scrolling screenshots.
//
// # Overview
//
// A capture loop scrolls a viewport and grabs overlapping tiles (segments).
// scrollshot decodes them, crops the rows each tile repeats from the one
// before, normalizes every tile to the width of the first, stacks them on a
// white canvas, trims the scrollbar strip from the right edge and hands the
// encoded result to a persistence sink.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/scrollshot"
//	    "github.com/gogpu/scrollshot/persist"
//	)
//
//	s := scrollshot.NewStitcher(scrollshot.WithSink(persist.NewSink()))
//	out, err := s.Stitch(ctx, scrollshot.StitchRequest{
//	    Segments: segments,
//	    Config:   scrollshot.DefaultConfig(),
//	})
//
// # Cropping
//
// Segment 0 is kept whole. Every later segment loses its leading overlap,
// bounded by min(OverlapPixels, floor(h*0.3), h-10) logical rows and scaled
// into decoded rows when the tile was captured at a higher pixel ratio. The
// last segment instead keeps exactly RemainingContentHeight rows from its
// bottom. A segment left with 5 rows or fewer is dropped.
//
// # Strategies
//
// Requests with more than 10 segments or a height hint above 8000 px are
// composited in batches of 5 and the batch canvases are stacked afterwards,
// so only one batch of decoded tiles is resident at a time. Smaller requests
// are composited directly. Both paths share one composite deadline, 30 s by
// default.
//
// # Failure Handling
//
// Only an empty request and an undecodable first segment are returned as
// errors. Any other failure delivers the first segment's original bytes with
// Output.Fallback set and FallbackWarning attached, and is written to the
// diagnostics recorder.
package scrollshot

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
