package scrollshot

import (
	"context"
	"fmt"
	"time"

	img "github.com/gogpu/scrollshot/internal/image"
)

// CompositeInstruction places one layer on a canvas. Left is always 0 for
// single-column stitching.
type CompositeInstruction struct {
	Input   *Canvas
	Top     int
	Left    int
	Segment int // source segment, or batch index when merging batches
}

// PlacementWarning records a layer that extends past the canvas. The layer
// is still drawn, clipped to the canvas.
type PlacementWarning struct {
	Segment      int
	Top, Left    int
	Width        int
	Height       int
	CanvasWidth  int
	CanvasHeight int
}

// String describes the overflow.
func (w PlacementWarning) String() string {
	return fmt.Sprintf("layer %dx%d at (%d,%d) exceeds canvas %dx%d",
		w.Width, w.Height, w.Left, w.Top, w.CanvasWidth, w.CanvasHeight)
}

// Layer reports one placed layer in final canvas coordinates.
type Layer struct {
	Segment    int // index in the request
	CropTop    int // first decoded row kept
	CropHeight int // decoded rows kept
	Top        int // row on the output canvas
	Width      int
	Height     int // rows on the output canvas, after rescaling
}

// Compositor stacks layers of a fixed width from top to bottom.
//
// Place crops and rescales each layer and appends an instruction at the
// running offset. Commit draws them all onto a fresh white canvas whose
// height is exactly the accumulated offset.
type Compositor struct {
	width    int
	interp   Interpolation
	pool     *img.Pool
	currentY int

	instructions []CompositeInstruction
	layers       []Layer
	owned        []*img.ImageBuf // rescaled buffers taken from pool
}

// NewCompositor creates a compositor for canvases of the given width.
// pool may be nil.
func NewCompositor(width int, interp Interpolation, pool *img.Pool) *Compositor {
	return &Compositor{width: width, interp: interp, pool: pool}
}

// Width returns the canonical width.
func (c *Compositor) Width() int { return c.width }

// Height returns the running offset: the sum of placed layer heights.
func (c *Compositor) Height() int { return c.currentY }

// Layers returns the placed layers in placement order.
func (c *Compositor) Layers() []Layer { return c.layers }

// Instructions returns the pending instructions.
func (c *Compositor) Instructions() []CompositeInstruction { return c.instructions }

// Place crops src to crop, normalizes it to the canonical width and appends
// it below the previous layer.
func (c *Compositor) Place(segment int, src *img.ImageBuf, crop Crop) (Layer, error) {
	if crop.Drop || crop.Height <= 0 {
		return Layer{}, newStitchError(KindInvalidGeometry, segment,
			fmt.Errorf("%w: empty crop", ErrInvalidGeometry))
	}
	band, err := src.SubImage(img.Rect{X: 0, Y: crop.Top, Width: src.Width(), Height: crop.Height})
	if err != nil {
		return Layer{}, newStitchError(KindInvalidGeometry, segment,
			fmt.Errorf("crop rows [%d,%d) of %d: %w", crop.Top, crop.Top+crop.Height, src.Height(), err))
	}

	scaled, err := img.ResizeToWidth(band, c.width, c.interp, c.pool)
	if err != nil {
		return Layer{}, newStitchError(KindInvalidGeometry, segment, err)
	}
	if scaled != band {
		c.owned = append(c.owned, scaled)
	}

	layer := Layer{
		Segment:    segment,
		CropTop:    crop.Top,
		CropHeight: crop.Height,
		Top:        c.currentY,
		Width:      scaled.Width(),
		Height:     scaled.Height(),
	}
	c.instructions = append(c.instructions, CompositeInstruction{
		Input:   wrapCanvas(scaled),
		Top:     c.currentY,
		Left:    0,
		Segment: segment,
	})
	c.layers = append(c.layers, layer)
	c.currentY += scaled.Height()

	Logger().Debug("scrollshot: placed layer",
		"segment", segment,
		"cropTop", crop.Top,
		"cropHeight", crop.Height,
		"top", layer.Top,
		"height", layer.Height,
		"rescaled", scaled != band)
	return layer, nil
}

// Commit draws the placed layers. The returned canvas is independent of the
// compositor, so Release may be called right after.
func (c *Compositor) Commit(ctx context.Context) (*Canvas, []PlacementWarning, error) {
	return Compose(ctx, c.width, c.currentY, c.instructions)
}

// Release returns rescaled buffers to the pool and drops all instructions.
func (c *Compositor) Release() {
	if c.pool != nil {
		for _, b := range c.owned {
			c.pool.Put(b)
		}
	}
	c.owned = nil
	c.instructions = nil
}

// Compose draws instructions onto a new opaque white width x height canvas.
//
// A negative position fails with KindInvalidGeometry. A layer extending past
// the canvas is drawn clipped and reported as a PlacementWarning. The context
// deadline is checked before each layer; once it has passed Compose fails
// with KindCompositeTimeout.
func Compose(ctx context.Context, width, height int, instructions []CompositeInstruction) (*Canvas, []PlacementWarning, error) {
	if width <= 0 || height <= 0 {
		return nil, nil, newStitchError(KindInvalidGeometry, -1,
			fmt.Errorf("%w: canvas %dx%d", ErrInvalidGeometry, width, height))
	}

	var warnings []PlacementWarning
	for _, in := range instructions {
		if in.Top < 0 || in.Left < 0 {
			return nil, nil, newStitchError(KindInvalidGeometry, in.Segment,
				fmt.Errorf("%w: negative position (%d,%d)", ErrInvalidGeometry, in.Left, in.Top))
		}
		if in.Input == nil {
			return nil, nil, newStitchError(KindInvalidGeometry, in.Segment,
				fmt.Errorf("%w: missing layer", ErrInvalidGeometry))
		}
		if in.Left+in.Input.Width() > width || in.Top+in.Input.Height() > height {
			w := PlacementWarning{
				Segment:      in.Segment,
				Top:          in.Top,
				Left:         in.Left,
				Width:        in.Input.Width(),
				Height:       in.Input.Height(),
				CanvasWidth:  width,
				CanvasHeight: height,
			}
			Logger().Warn("scrollshot: layer exceeds canvas", "segment", in.Segment, "detail", w.String())
			warnings = append(warnings, w)
		}
	}

	canvas, err := NewCanvas(width, height)
	if err != nil {
		return nil, nil, newStitchError(KindInvalidGeometry, -1, err)
	}
	for _, in := range instructions {
		if err := deadlineErr(ctx); err != nil {
			return nil, nil, newStitchError(KindCompositeTimeout, in.Segment,
				fmt.Errorf("%w: %w", ErrCompositeTimeout, err))
		}
		img.Blit(canvas.buf, in.Input.buf, in.Left, in.Top)
	}
	return canvas, warnings, nil
}

// deadlineErr reports a done context, or a deadline that has passed even if
// the context's timer has not fired yet.
func deadlineErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return nil
}
