package scrollshot

import (
	img "github.com/gogpu/scrollshot/internal/image"
)

// decodedSegment is a segment with its pixels.
type decodedSegment struct {
	index  int
	seg    *Segment
	buf    *img.ImageBuf
	format string
}

// decodeSegment decodes segment i of req.
func decodeSegment(req *StitchRequest, i int) (*decodedSegment, error) {
	seg := &req.Segments[i]
	buf, format, err := img.Decode(seg.Data)
	if err != nil {
		return nil, newStitchError(KindDecode, i, err)
	}
	Logger().Debug("scrollshot: decoded segment",
		"segment", i,
		"format", format,
		"width", buf.Width(),
		"height", buf.Height(),
		"logicalHeight", seg.Height)
	return &decodedSegment{index: i, seg: seg, buf: buf, format: format}, nil
}

// DecodeSegment decodes a segment's raster and reports its encoding.
func DecodeSegment(seg Segment) (*Canvas, string, error) {
	buf, format, err := img.Decode(seg.Data)
	if err != nil {
		return nil, "", newStitchError(KindDecode, -1, err)
	}
	return wrapCanvas(buf), format, nil
}
