package scrollshot

import "github.com/gogpu/scrollshot/diag"

// DefaultOverlapPixels is the overlap hint used when a request leaves
// Config.OverlapPixels negative.
const DefaultOverlapPixels = 20

// Segment is one captured tile of a scrolling viewport.
type Segment struct {
	// Data is the encoded raster (PNG, JPEG, BMP, TIFF or WebP).
	Data []byte

	// Y is the vertical offset the capture loop intended for this tile and
	// ActualScrollY is where the viewport really was. Both are diagnostic.
	Y             int
	ActualScrollY int

	// Height is the logical height of the tile. The decoded image may be
	// taller when it was captured at a higher device pixel ratio. Zero or
	// less means the decoded height.
	Height int

	// IsLastSegment marks the final tile. RemainingContentHeight, set only
	// on that tile, is the number of unseen content rows it carries.
	IsLastSegment          bool
	RemainingContentHeight *int
}

// Remaining returns a pointer to n, for RemainingContentHeight.
func Remaining(n int) *int { return &n }

// logicalHeight returns the declared height or decodedHeight when unset.
func (s *Segment) logicalHeight(decodedHeight int) int {
	if s.Height <= 0 {
		return decodedHeight
	}
	return s.Height
}

// Config carries the capture loop's intent.
type Config struct {
	// OverlapPixels is the vertical overlap the capture loop tried to leave
	// between consecutive tiles. Negative means DefaultOverlapPixels.
	OverlapPixels int
}

// DefaultConfig returns a Config with the default overlap.
func DefaultConfig() Config {
	return Config{OverlapPixels: DefaultOverlapPixels}
}

func (c Config) overlap() int {
	if c.OverlapPixels < 0 {
		return DefaultOverlapPixels
	}
	return c.OverlapPixels
}

// StitchRequest is the input to Stitcher.Stitch. The hints are advisory;
// the canvas width always comes from the first decoded segment and the
// height from what is actually placed.
type StitchRequest struct {
	Segments        []Segment
	TotalWidthHint  int
	TotalHeightHint int
	Config          Config
}

// segmentInfo dumps the declared geometry of every segment.
func (r *StitchRequest) segmentInfo() []diag.SegmentInfo {
	out := make([]diag.SegmentInfo, len(r.Segments))
	for i, s := range r.Segments {
		out[i] = diag.SegmentInfo{
			Y:             s.Y,
			ActualScrollY: s.ActualScrollY,
			Height:        s.Height,
			IsLastSegment: s.IsLastSegment,
		}
	}
	return out
}
