package image

// Blit composites src onto dst with its top-left corner at (x, y) using
// Porter-Duff source-over on premultiplied pixels.
//
// The destination rectangle is clamped to dst, so layers that extend past
// the destination are drawn partially rather than rejected. The returned
// Rect is the region of dst that was actually written; it is empty when the
// layer lies completely outside dst.
func Blit(dst, src *ImageBuf, x, y int) Rect {
	dstRect := Rect{X: x, Y: y, Width: src.width, Height: src.height}
	srcX, srcY := 0, 0

	// Clamp destination rectangle to image bounds
	if dstRect.X < 0 {
		srcX = -dstRect.X
		dstRect.Width += dstRect.X
		dstRect.X = 0
	}
	if dstRect.Y < 0 {
		srcY = -dstRect.Y
		dstRect.Height += dstRect.Y
		dstRect.Y = 0
	}
	if dstRect.X+dstRect.Width > dst.width {
		dstRect.Width = dst.width - dstRect.X
	}
	if dstRect.Y+dstRect.Height > dst.height {
		dstRect.Height = dst.height - dstRect.Y
	}
	if dstRect.Empty() {
		return Rect{}
	}

	n := dstRect.Width * BytesPerPixel
	for row := range dstRect.Height {
		s := src.RowBytes(srcY + row)[srcX*BytesPerPixel : srcX*BytesPerPixel+n]
		d := dst.RowBytes(dstRect.Y + row)[dstRect.X*BytesPerPixel : dstRect.X*BytesPerPixel+n]
		if opaqueRow(s) {
			copy(d, s)
			continue
		}
		blendRow(d, s)
	}
	return dstRect
}

// opaqueRow reports whether every pixel of a row has full alpha.
func opaqueRow(row []byte) bool {
	for i := 3; i < len(row); i += BytesPerPixel {
		if row[i] != 0xff {
			return false
		}
	}
	return true
}

// blendRow performs premultiplied source-over for one row.
// out = src + dst * (1 - src_a)
func blendRow(dst, src []byte) {
	for i := 0; i < len(src); i += BytesPerPixel {
		sa := uint32(src[i+3])
		switch sa {
		case 0xff:
			copy(dst[i:i+4], src[i:i+4])
		case 0:
			// Fully transparent source, destination unchanged
		default:
			inv := 255 - sa
			for c := range 4 {
				dst[i+c] = uint8(uint32(src[i+c]) + (uint32(dst[i+c])*inv+127)/255)
			}
		}
	}
}
