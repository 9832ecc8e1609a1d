package image

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // registers the WebP decoder
)

// Encoding names as reported by image.Decode.
const (
	EncodingPNG  = "png"
	EncodingJPEG = "jpeg"
	EncodingBMP  = "bmp"
	EncodingTIFF = "tiff"
	EncodingWebP = "webp"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the image format cannot be encoded.
	ErrUnsupportedFormat = errors.New("image: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")
)

// jpegQuality is used whenever output has to be re-encoded as JPEG.
const jpegQuality = 92

// Decode decodes an encoded raster, auto-detecting the format.
// It returns the pixels and the encoding name.
func Decode(data []byte) (*ImageBuf, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	img, format, err := stdimage.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("image: decode: %w", err)
	}
	buf, err := FromStdImage(img)
	if err != nil {
		return nil, "", err
	}
	return buf, format, nil
}

// DecodeConfig reads only the header of an encoded raster.
func DecodeConfig(data []byte) (stdimage.Config, string, error) {
	if len(data) == 0 {
		return stdimage.Config{}, "", ErrEmptyData
	}
	cfg, format, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return stdimage.Config{}, "", fmt.Errorf("image: decode config: %w", err)
	}
	return cfg, format, nil
}

// FromStdImage converts a standard library image into a packed ImageBuf.
func FromStdImage(img stdimage.Image) (*ImageBuf, error) {
	bounds := img.Bounds()
	buf, err := NewImageBuf(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	// Fast path for RGBA images
	if rgba, ok := img.(*stdimage.RGBA); ok {
		for y := range buf.height {
			srcStart := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.RowBytes(y), rgba.Pix[srcStart:srcStart+buf.width*BytesPerPixel])
		}
		return buf, nil
	}

	// image/draw premultiplies NRGBA, YCbCr, Gray and paletted sources on its own fast paths.
	draw.Draw(buf.RGBA(), buf.RGBA().Rect, img, bounds.Min, draw.Src)
	return buf, nil
}

// OutputEncoding returns the encoding used when re-encoding an image that was
// decoded from format. Formats without an encoder fall back to PNG.
func OutputEncoding(format string) string {
	switch format {
	case EncodingPNG, EncodingJPEG, EncodingBMP, EncodingTIFF:
		return format
	default:
		return EncodingPNG
	}
}

// Extension returns the file extension, including the dot, for an encoding.
func Extension(format string) string {
	switch format {
	case EncodingJPEG:
		return ".jpg"
	case EncodingBMP:
		return ".bmp"
	case EncodingTIFF:
		return ".tiff"
	case EncodingWebP:
		return ".webp"
	default:
		return ".png"
	}
}

// MIMEType returns the media type for an encoding.
func MIMEType(format string) string {
	switch format {
	case EncodingJPEG:
		return "image/jpeg"
	case EncodingBMP:
		return "image/bmp"
	case EncodingTIFF:
		return "image/tiff"
	case EncodingWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Encode writes img to w in the given encoding.
func Encode(w io.Writer, img stdimage.Image, format string) error {
	var err error
	switch format {
	case EncodingPNG:
		err = png.Encode(w, img)
	case EncodingJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case EncodingBMP:
		err = bmp.Encode(w, img)
	case EncodingTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("image: encode %s: %w", format, err)
	}
	return nil
}

// EncodeToBytes encodes the buffer and returns the bytes.
func (b *ImageBuf) EncodeToBytes(format string) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, b.RGBA(), format); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
