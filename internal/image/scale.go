package image

import (
	"math"

	xdraw "golang.org/x/image/draw"
)

// InterpolationMode defines how pixels are resampled when a layer is resized.
type InterpolationMode uint8

const (
	// InterpNearest selects the closest pixel (no interpolation).
	// Fast but produces blocky results when scaling.
	InterpNearest InterpolationMode = iota

	// InterpApproxBilinear is a fast approximation of bilinear filtering.
	InterpApproxBilinear

	// InterpBilinear performs linear interpolation between neighboring pixels.
	InterpBilinear

	// InterpCatmullRom uses Catmull-Rom cubic splines.
	// Highest quality, slowest.
	InterpCatmullRom
)

// String returns a string representation of the interpolation mode.
func (m InterpolationMode) String() string {
	switch m {
	case InterpNearest:
		return "Nearest"
	case InterpApproxBilinear:
		return "ApproxBilinear"
	case InterpBilinear:
		return "Bilinear"
	case InterpCatmullRom:
		return "CatmullRom"
	default:
		return "Unknown"
	}
}

// ParseInterpolation maps a configuration name to a mode.
// Unknown names report false.
func ParseInterpolation(name string) (InterpolationMode, bool) {
	switch name {
	case "nearest":
		return InterpNearest, true
	case "approx-bilinear", "approxbilinear":
		return InterpApproxBilinear, true
	case "bilinear":
		return InterpBilinear, true
	case "catmullrom", "catmull-rom", "":
		return InterpCatmullRom, true
	default:
		return InterpCatmullRom, false
	}
}

func (m InterpolationMode) scaler() xdraw.Scaler {
	switch m {
	case InterpNearest:
		return xdraw.NearestNeighbor
	case InterpApproxBilinear:
		return xdraw.ApproxBiLinear
	case InterpBilinear:
		return xdraw.BiLinear
	default:
		return xdraw.CatmullRom
	}
}

// ScaledHeight returns the height a layer of size (width, height) takes once
// its width is normalized to targetWidth, keeping the aspect ratio.
// Rounding is half away from zero and the result is never below 1.
func ScaledHeight(width, height, targetWidth int) int {
	if width <= 0 {
		return height
	}
	h := int(math.Round(float64(height) * float64(targetWidth) / float64(width)))
	return max(h, 1)
}

// Resize resamples src into a new buffer of exactly width x height.
// The X and Y factors are independent ("fill" scaling).
// If pool is non-nil the destination is taken from it.
func Resize(src *ImageBuf, width, height int, mode InterpolationMode, pool *Pool) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	var dst *ImageBuf
	if pool != nil {
		dst = pool.Get(width, height)
	} else {
		var err error
		if dst, err = NewImageBuf(width, height); err != nil {
			return nil, err
		}
	}
	if dst == nil {
		return nil, ErrInvalidDimensions
	}
	srcImg := src.RGBA()
	dstImg := dst.RGBA()
	mode.scaler().Scale(dstImg, dstImg.Rect, srcImg, srcImg.Rect, xdraw.Src, nil)
	return dst, nil
}

// ResizeToWidth normalizes src to targetWidth, scaling the height by the same
// factor. It returns src unchanged when the width already matches.
func ResizeToWidth(src *ImageBuf, targetWidth int, mode InterpolationMode, pool *Pool) (*ImageBuf, error) {
	if src.width == targetWidth {
		return src, nil
	}
	return Resize(src, targetWidth, ScaledHeight(src.width, src.height, targetWidth), mode, pool)
}
