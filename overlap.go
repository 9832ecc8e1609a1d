package scrollshot

import "math"

const (
	// minNewRows is the number of rows every non-final segment keeps.
	minNewRows = 10

	// minEffectiveHeight: segments contributing this many rows or fewer are
	// dropped as capture artifacts.
	minEffectiveHeight = 5
)

// Crop is the band of decoded rows a segment contributes.
type Crop struct {
	Top    int  // first kept row
	Height int  // number of kept rows
	Drop   bool // the segment contributes nothing
}

// OverlapBound returns the largest overlap, in logical rows, that may be
// cropped from a non-final segment of logical height h:
// min(configured, floor(h*0.3), h-10), never below zero.
func OverlapBound(h, configured int) int {
	// h*3/10 is floor(h*0.3) without float error for h >= 0.
	bound := min(configured, h*3/10, h-minNewRows)
	return max(bound, 0)
}

// ResolveCrop decides which decoded rows of a segment are kept.
//
// The first segment keeps everything. The last segment keeps exactly the
// remaining unseen content taken from its bottom, ignoring the overlap hint.
// Any other segment loses its leading overlap, scaled from logical rows into
// decoded rows; if 5 rows or fewer survive it is dropped.
func ResolveCrop(seg *Segment, decodedHeight, overlapPixels int, first bool) Crop {
	if first {
		return Crop{Top: 0, Height: decodedHeight}
	}
	h := seg.logicalHeight(decodedHeight)

	if seg.IsLastSegment {
		needed := h
		if seg.RemainingContentHeight != nil {
			needed = *seg.RemainingContentHeight
		}
		needed = min(needed, decodedHeight)
		if needed <= 0 {
			return Crop{Top: decodedHeight, Drop: true}
		}
		return Crop{Top: decodedHeight - needed, Height: needed}
	}

	overlap := OverlapBound(h, overlapPixels)
	scaled := int(math.Round(float64(overlap) * float64(decodedHeight) / float64(h)))
	effective := decodedHeight - scaled
	if effective <= minEffectiveHeight {
		return Crop{Top: scaled, Height: max(effective, 0), Drop: true}
	}
	return Crop{Top: scaled, Height: effective}
}
