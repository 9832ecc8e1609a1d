package scrollshot

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/gogpu/scrollshot/diag"
	"github.com/gogpu/scrollshot/persist"
)

// pageColor is the color of row y of a synthetic page. Every row is distinct
// over the first 65536 rows, so stitched rows can be traced to the page.
func pageColor(y int) color.NRGBA {
	return color.NRGBA{R: uint8(y), G: uint8(y >> 8), B: 100, A: 255}
}

// pageImage renders rows [top, top+height) of the page, each logical row
// repeated scale times.
func pageImage(width, top, height, scale int) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, width, height*scale))
	for y := range height * scale {
		c := pageColor(top + y/scale)
		for x := range width {
			im.SetNRGBA(x, y, c)
		}
	}
	return im
}

func encodePNG(t *testing.T, im image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, im); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pageSegment captures rows [top, top+height) of the page as a PNG segment.
func pageSegment(t *testing.T, width, top, height int) Segment {
	t.Helper()
	return Segment{
		Data:          encodePNG(t, pageImage(width, top, height, 1)),
		Y:             top,
		ActualScrollY: top,
		Height:        height,
	}
}

// scrollCapture captures a page of contentHeight rows with a viewport of
// viewport rows, scrolling by viewport-overlap each step. The final segment
// carries the remaining unseen rows.
func scrollCapture(t *testing.T, width, viewport, overlap, contentHeight int) []Segment {
	t.Helper()
	var segs []Segment
	seen := 0
	for top := 0; ; top += viewport - overlap {
		if top+viewport >= contentHeight {
			top = contentHeight - viewport
			s := pageSegment(t, width, top, viewport)
			s.IsLastSegment = true
			s.RemainingContentHeight = Remaining(contentHeight - seen)
			return append(segs, s)
		}
		segs = append(segs, pageSegment(t, width, top, viewport))
		seen = top + viewport
	}
}

// checkPageRows reports rows of c that do not match the page.
func checkPageRows(t *testing.T, c *Canvas, rows ...int) {
	t.Helper()
	for _, y := range rows {
		want := pageColor(y)
		r, g, b, _ := c.buf.GetRGBA(c.Width()/2, y)
		if r != want.R || g != want.G || b != want.B {
			t.Errorf("row %d = (%d,%d,%d), want (%d,%d,%d)", y, r, g, b, want.R, want.G, want.B)
		}
	}
}

// memorySink returns a sink that writes to an in-memory clipboard and a
// private temp directory.
func memorySink(t *testing.T, mode persist.Mode) (*persist.Sink, *persist.MemoryClipboard) {
	t.Helper()
	mem := &persist.MemoryClipboard{}
	return persist.NewSink(
		persist.WithMode(mode),
		persist.WithImageClipboard(mem),
		persist.WithFileWriter(mem),
		persist.WithTracker(persist.NewTracker(t.TempDir(), "")),
	), mem
}

func TestCanvas(t *testing.T) {
	c, err := NewCanvas(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.At(1, 1); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("At(1,1) = %v, want opaque white", got)
	}
	if got := c.At(5, 5); got != (color.RGBA{}) {
		t.Errorf("At(5,5) = %v, want transparent", got)
	}
	if c.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("Bounds() = %v", c.Bounds())
	}

	from, err := CanvasFromImage(pageImage(3, 7, 2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if got := from.ToImage().RGBAAt(0, 1); got.R != 8 || got.B != 100 {
		t.Errorf("ToImage row 1 = %v, want page row 8", got)
	}
	if _, err := NewCanvas(0, 5); err == nil {
		t.Error("NewCanvas(0, 5) error = nil, want error")
	}
}

func TestDecodeSegment(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, pageImage(8, 0, 8, 1), nil); err != nil {
		t.Fatal(err)
	}
	c, format, err := DecodeSegment(Segment{Data: buf.Bytes()})
	if err != nil {
		t.Fatalf("DecodeSegment() error = %v", err)
	}
	if format != "jpeg" || c.Width() != 8 || c.Height() != 8 {
		t.Errorf("DecodeSegment() = %dx%d %q", c.Width(), c.Height(), format)
	}
	if _, _, err := DecodeSegment(Segment{Data: []byte("nope")}); err == nil {
		t.Error("DecodeSegment(garbage) error = nil")
	}
}

func TestNewStitcherDefaults(t *testing.T) {
	s := NewStitcher()
	if s.opts.batchSize != DefaultBatchSize || s.opts.scrollbarWidth != DefaultScrollbarWidth ||
		s.opts.compositeTimeout != DefaultCompositeTimeout || s.opts.interp != InterpCatmullRom {
		t.Errorf("defaults = %+v", s.opts)
	}
	if _, ok := s.Recorder().(*diag.Memory); !ok {
		t.Errorf("Recorder() = %T, want *diag.Memory", s.Recorder())
	}
	if s.Sink() != nil {
		t.Error("Sink() != nil by default")
	}

	s = NewStitcher(WithBatchSize(0), WithCompositeTimeout(-1), WithScrollbarWidth(-3), WithInterpolation(InterpNearest))
	if s.opts.batchSize != DefaultBatchSize || s.opts.compositeTimeout != DefaultCompositeTimeout ||
		s.opts.scrollbarWidth != 0 || s.opts.interp != InterpNearest {
		t.Errorf("options = %+v", s.opts)
	}
}

func TestParseInterpolation(t *testing.T) {
	if m, ok := ParseInterpolation("bilinear"); !ok || m != InterpBilinear {
		t.Errorf("ParseInterpolation(bilinear) = %v, %v", m, ok)
	}
	if _, ok := ParseInterpolation("lanczos"); ok {
		t.Error("ParseInterpolation(lanczos) ok = true")
	}
}

func TestConfigOverlapDefault(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, DefaultOverlapPixels},
		{0, 0},
		{35, 35},
	}
	for _, tt := range tests {
		if got := (Config{OverlapPixels: tt.in}).overlap(); got != tt.want {
			t.Errorf("Config{%d}.overlap() = %d, want %d", tt.in, got, tt.want)
		}
	}
	if DefaultConfig().OverlapPixels != DefaultOverlapPixels {
		t.Error("DefaultConfig() overlap mismatch")
	}
}

func TestStitchRequestSegmentInfo(t *testing.T) {
	req := StitchRequest{Segments: []Segment{
		{Y: 0, ActualScrollY: 0, Height: 800},
		{Y: 780, ActualScrollY: 790, Height: 400, IsLastSegment: true},
	}}
	got := req.segmentInfo()
	want := []diag.SegmentInfo{
		{Y: 0, ActualScrollY: 0, Height: 800},
		{Y: 780, ActualScrollY: 790, Height: 400, IsLastSegment: true},
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("segmentInfo() = %+v, want %+v", got, want)
	}
}
