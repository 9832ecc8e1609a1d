package scrollshot

import "context"

// composeBatched composites the request in batches of opts.batchSize
// segments, then stacks the batch canvases.
//
// Only segment 0 is treated as a first segment. The first segment of every
// later batch is cropped like any other against the end of the previous
// batch, so the merge adds no further cropping. Segments are decoded batch by
// batch; rescaled layers go back to the pool after each batch commit.
func (s *Stitcher) composeBatched(ctx context.Context, req *StitchRequest, first *decodedSegment, out *Output) (*Canvas, error) {
	width := first.buf.Width()
	merge := NewCompositor(width, s.opts.interp, nil)
	defer merge.Release()

	n := len(req.Segments)
	for batch, start := 0, 0; start < n; batch, start = batch+1, start+s.opts.batchSize {
		end := min(start+s.opts.batchSize, n)
		canvas, layers, err := s.composeBatch(ctx, req, first, start, end, out)
		if err != nil {
			return nil, err
		}
		if canvas == nil {
			continue
		}

		offset := merge.Height()
		for _, l := range layers {
			l.Top += offset
			out.Layers = append(out.Layers, l)
		}
		if _, err := merge.Place(batch, canvas.buf, Crop{Top: 0, Height: canvas.Height()}); err != nil {
			return nil, err
		}
		Logger().Debug("scrollshot: batch committed",
			"batch", batch,
			"segments", end-start,
			"height", canvas.Height(),
			"top", offset)
	}

	canvas, placement, err := merge.Commit(ctx)
	if err != nil {
		return nil, err
	}
	out.addPlacement(placement)
	return canvas, nil
}

// composeBatch composites segments [start, end) onto their own canvas.
// It returns a nil canvas when every segment of the batch was dropped.
func (s *Stitcher) composeBatch(ctx context.Context, req *StitchRequest, first *decodedSegment, start, end int, out *Output) (*Canvas, []Layer, error) {
	comp := NewCompositor(first.buf.Width(), s.opts.interp, s.pool)
	defer comp.Release()

	if err := s.placeSegments(ctx, req, first, comp, start, end, out); err != nil {
		return nil, nil, err
	}
	if comp.Height() == 0 {
		return nil, nil, nil
	}
	canvas, placement, err := comp.Commit(ctx)
	if err != nil {
		return nil, nil, err
	}
	out.addPlacement(placement)
	return canvas, comp.Layers(), nil
}
