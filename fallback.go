package scrollshot

import (
	"context"
	"errors"
)

// FallbackWarning marks a result that carries the first raw segment instead
// of a stitched image.
const FallbackWarning = "fallback used, image may be incomplete"

// fallback delivers segment 0's encoded bytes unmodified in place of the
// failed stitch.
func (s *Stitcher) fallback(ctx context.Context, req *StitchRequest, first *decodedSegment, failed *Output, cause error) *Output {
	kind, segment := "Unknown", -1
	var se *StitchError
	if errors.As(cause, &se) {
		kind, segment = se.Kind.String(), se.Segment
	}
	Logger().Warn("scrollshot: stitch failed, delivering first segment",
		"request", failed.RequestID,
		"kind", kind,
		"segment", segment,
		"err", cause)

	out := &Output{
		RequestID: failed.RequestID,
		Image:     req.Segments[0].Data,
		Format:    first.format,
		Width:     first.buf.Width(),
		Height:    first.buf.Height(),
		Strategy:  failed.Strategy,
		Placement: failed.Placement,
		Warnings:  failed.Warnings,
		Fallback:  true,
		Cause:     cause,
	}
	out.addWarning(KindFallback, -1, FallbackWarning)
	s.record(ctx, out.RequestID, req, cause, true)
	s.persist(ctx, out)
	return out
}
