package scrollshot

import (
	"fmt"

	img "github.com/gogpu/scrollshot/internal/image"
)

// TrimScrollbar removes a strip of px columns from the right edge of c.
//
// The result shares c's pixels. A canvas no wider than px cannot be trimmed:
// c is returned unchanged together with a KindTrim error, which callers treat
// as a warning. px <= 0 returns c as is.
func TrimScrollbar(c *Canvas, px int) (*Canvas, error) {
	if px <= 0 {
		return c, nil
	}
	if c.Width() <= px {
		return c, newStitchError(KindTrim, -1,
			fmt.Errorf("%w: canvas width %d not wider than %d px strip", ErrTrim, c.Width(), px))
	}
	view, err := c.buf.SubImage(img.Rect{X: 0, Y: 0, Width: c.Width() - px, Height: c.Height()})
	if err != nil {
		return c, newStitchError(KindTrim, -1, fmt.Errorf("%w: %w", ErrTrim, err))
	}
	return wrapCanvas(view), nil
}
