// Package image provides the raster buffers behind scrollshot's stitching pipeline.
//
// Every buffer is 8-bit RGBA with premultiplied alpha, laid out exactly like
// the standard library's image.RGBA so that a buffer can be handed to
// golang.org/x/image/draw and to the standard encoders without copying.
package image

import (
	"errors"
	stdimage "image"
)

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrOutOfBounds is returned when a region lies outside image bounds.
	ErrOutOfBounds = errors.New("image: region out of bounds")
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

// Rect is a rectangular region in pixel coordinates.
type Rect struct {
	X, Y          int // Top-left corner
	Width, Height int // Dimensions
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ImageBuf is a premultiplied RGBA8 pixel buffer.
//
// Sub-images created with SubImage share memory with their parent, which is
// how crops are expressed without copying segment data.
//
// Thread safety: ImageBuf is safe for concurrent reads. Writes require
// external synchronization.
type ImageBuf struct {
	data   []byte
	width  int
	height int
	stride int
	view   bool // shares another buffer's memory
}

// NewImageBuf creates a zeroed (transparent black) buffer.
func NewImageBuf(width, height int) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	stride := width * BytesPerPixel
	return &ImageBuf{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}, nil
}

// Clone creates a tightly packed deep copy of the buffer.
func (b *ImageBuf) Clone() *ImageBuf {
	c, _ := NewImageBuf(b.width, b.height)
	for y := range b.height {
		copy(c.RowBytes(y), b.RowBytes(y))
	}
	return c
}

// Width returns the image width in pixels.
func (b *ImageBuf) Width() int {
	return b.width
}

// Height returns the image height in pixels.
func (b *ImageBuf) Height() int {
	return b.height
}

// Stride returns the number of bytes per row (including padding).
func (b *ImageBuf) Stride() int {
	return b.stride
}

// Bounds returns the image dimensions as (width, height).
func (b *ImageBuf) Bounds() (int, int) {
	return b.width, b.height
}

// Data returns the raw pixel data slice.
func (b *ImageBuf) Data() []byte {
	return b.data
}

// RowBytes returns the pixels of row y, without stride padding.
// Returns nil if y is out of bounds.
func (b *ImageBuf) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	return b.data[start : start+b.width*BytesPerPixel]
}

// PixelOffset returns the byte offset of pixel (x, y) in the data slice.
// Returns -1 if coordinates are out of bounds.
func (b *ImageBuf) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*BytesPerPixel
}

// GetRGBA returns the premultiplied color at (x, y).
// Returns (0,0,0,0) if coordinates are out of bounds.
func (b *ImageBuf) GetRGBA(x, y int) (r, g, bl, a uint8) {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return 0, 0, 0, 0
	}
	p := b.data[off : off+4 : off+4]
	return p[0], p[1], p[2], p[3]
}

// SetRGBA sets the premultiplied color at (x, y).
// Returns ErrOutOfBounds if coordinates are outside image bounds.
func (b *ImageBuf) SetRGBA(x, y int, r, g, bl, a uint8) error {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	p := b.data[off : off+4 : off+4]
	p[0], p[1], p[2], p[3] = r, g, bl, a
	return nil
}

// Fill sets all pixels to the given premultiplied color.
func (b *ImageBuf) Fill(r, g, bl, a uint8) {
	if b.height == 0 {
		return
	}
	first := b.RowBytes(0)
	for x := 0; x < len(first); x += BytesPerPixel {
		first[x], first[x+1], first[x+2], first[x+3] = r, g, bl, a
	}
	for y := 1; y < b.height; y++ {
		copy(b.RowBytes(y), first)
	}
}

// SubImage returns a view into a rectangular region of the image.
// The returned ImageBuf shares the underlying data with the original.
// Returns ErrOutOfBounds if the region is empty or not fully inside the image.
func (b *ImageBuf) SubImage(r Rect) (*ImageBuf, error) {
	if r.X < 0 || r.Y < 0 || r.Empty() {
		return nil, ErrOutOfBounds
	}
	if r.X+r.Width > b.width || r.Y+r.Height > b.height {
		return nil, ErrOutOfBounds
	}

	offset := r.Y*b.stride + r.X*BytesPerPixel
	end := (r.Y+r.Height-1)*b.stride + (r.X+r.Width)*BytesPerPixel

	return &ImageBuf{
		data:   b.data[offset:end],
		width:  r.Width,
		height: r.Height,
		stride: b.stride,
		view:   true,
	}, nil
}

// RGBA returns a standard library view sharing the buffer's memory.
func (b *ImageBuf) RGBA() *stdimage.RGBA {
	return &stdimage.RGBA{
		Pix:    b.data,
		Stride: b.stride,
		Rect:   stdimage.Rect(0, 0, b.width, b.height),
	}
}

// Equal reports whether two buffers have the same size and pixels.
func (b *ImageBuf) Equal(other *ImageBuf) bool {
	if other == nil || b.width != other.width || b.height != other.height {
		return false
	}
	for y := range b.height {
		if string(b.RowBytes(y)) != string(other.RowBytes(y)) {
			return false
		}
	}
	return true
}
