package scrollshot

import (
	"image"
	"image/color"

	img "github.com/gogpu/scrollshot/internal/image"
)

// Canvas is an RGBA pixel buffer holding a stitched image or one of its
// layers. Pixels are premultiplied, as in image.RGBA.
type Canvas struct {
	buf *img.ImageBuf
}

// NewCanvas creates an opaque white canvas.
func NewCanvas(width, height int) (*Canvas, error) {
	buf, err := img.NewImageBuf(width, height)
	if err != nil {
		return nil, err
	}
	buf.Fill(0xff, 0xff, 0xff, 0xff)
	return &Canvas{buf: buf}, nil
}

// CanvasFromImage copies any image into a new canvas.
func CanvasFromImage(src image.Image) (*Canvas, error) {
	buf, err := img.FromStdImage(src)
	if err != nil {
		return nil, err
	}
	return &Canvas{buf: buf}, nil
}

// wrapCanvas wraps buf without copying.
func wrapCanvas(buf *img.ImageBuf) *Canvas {
	return &Canvas{buf: buf}
}

// Width returns the width of the canvas.
func (c *Canvas) Width() int {
	return c.buf.Width()
}

// Height returns the height of the canvas.
func (c *Canvas) Height() int {
	return c.buf.Height()
}

// Pix returns the pixel row y, 4 bytes per pixel.
func (c *Canvas) Pix(y int) []byte {
	return c.buf.RowBytes(y)
}

// ToImage copies the canvas into a new image.RGBA.
func (c *Canvas) ToImage() *image.RGBA {
	return c.buf.Clone().RGBA()
}

// Encode encodes the canvas as png, jpeg, bmp or tiff.
func (c *Canvas) Encode(format string) ([]byte, error) {
	return c.buf.EncodeToBytes(format)
}

// Equal reports whether both canvases have the same size and pixels.
func (c *Canvas) Equal(other *Canvas) bool {
	if other == nil {
		return false
	}
	return c.buf.Equal(other.buf)
}

// At implements the image.Image interface.
func (c *Canvas) At(x, y int) color.Color {
	if x < 0 || x >= c.buf.Width() || y < 0 || y >= c.buf.Height() {
		return color.RGBA{}
	}
	r, g, b, a := c.buf.GetRGBA(x, y)
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// Bounds implements the image.Image interface.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.buf.Width(), c.buf.Height())
}

// ColorModel implements the image.Image interface.
func (c *Canvas) ColorModel() color.Model {
	return color.RGBAModel
}
