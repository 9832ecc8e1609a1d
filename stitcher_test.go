package scrollshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/gogpu/scrollshot/persist"
)

func layerHeights(layers []Layer) []int {
	out := make([]int, len(layers))
	for i, l := range layers {
		out[i] = l.Height
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStitch_SingleSegmentIdentity(t *testing.T) {
	seg := pageSegment(t, 64, 0, 50)
	s := NewStitcher()

	canvas, out, err := s.Compose(context.Background(), StitchRequest{Segments: []Segment{seg}})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	decoded, _, err := DecodeSegment(seg)
	if err != nil {
		t.Fatal(err)
	}
	if !canvas.Equal(decoded) {
		t.Error("single segment canvas differs from the decoded segment")
	}
	if len(out.Layers) != 1 || out.Layers[0].CropTop != 0 || out.Layers[0].Height != 50 {
		t.Errorf("Layers = %+v", out.Layers)
	}

	res, err := s.Stitch(context.Background(), StitchRequest{Segments: []Segment{seg}})
	if err != nil {
		t.Fatalf("Stitch() error = %v", err)
	}
	if res.Width != 44 || res.Height != 50 || res.Fallback || len(res.Warnings) != 0 {
		t.Errorf("Stitch() = %dx%d fallback=%v warnings=%v, want 44x50 clean", res.Width, res.Height, res.Fallback, res.Warnings)
	}
	if res.Persistence != nil {
		t.Error("Persistence set without a sink")
	}
}

func TestStitch_ExampleScenario(t *testing.T) {
	last := pageSegment(t, 100, 1330, 400)
	last.IsLastSegment = true
	last.RemainingContentHeight = Remaining(150)
	req := StitchRequest{
		Segments: []Segment{
			pageSegment(t, 100, 0, 800),
			pageSegment(t, 100, 780, 800),
			last,
		},
		Config: Config{OverlapPixels: 20},
	}

	sink, mem := memorySink(t, persist.ModeImage)
	s := NewStitcher(WithSink(sink))

	canvas, out, err := s.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(out.Layers) != 3 {
		t.Fatalf("Layers = %+v, want 3", out.Layers)
	}
	if l := out.Layers[1]; l.CropTop != 20 || l.CropHeight != 780 || l.Top != 800 {
		t.Errorf("layer 1 = %+v, want 20 rows cropped at top 800", l)
	}
	if l := out.Layers[2]; l.CropTop != 250 || l.CropHeight != 150 || l.Top != 1580 {
		t.Errorf("layer 2 = %+v, want the bottom 150 rows at top 1580", l)
	}
	if canvas.Height() != 800+780+150 || canvas.Width() != 100 {
		t.Errorf("canvas = %dx%d, want 100x1730", canvas.Width(), canvas.Height())
	}
	checkPageRows(t, canvas, 0, 400, 799, 800, 801, 1579, 1580, 1650, 1729)

	res, err := s.Stitch(context.Background(), req)
	if err != nil {
		t.Fatalf("Stitch() error = %v", err)
	}
	if res.Width != 80 || res.Height != 1730 || res.Format != "png" || res.Strategy != StrategyDirect {
		t.Errorf("Stitch() = %dx%d %s %v", res.Width, res.Height, res.Format, res.Strategy)
	}
	if res.Persistence == nil || !res.Persistence.Success {
		t.Fatalf("Persistence = %+v, want success", res.Persistence)
	}
	if got, _ := mem.Image(); !bytes.Equal(got, res.Image) {
		t.Error("clipboard does not hold the stitched image")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Image))
	if err != nil || format != "png" || cfg.Width != 80 || cfg.Height != 1730 {
		t.Errorf("encoded output = %dx%d %q (%v)", cfg.Width, cfg.Height, format, err)
	}
}

func TestStitch_WidthCanonicalization(t *testing.T) {
	hiDPI := Segment{
		Data:   encodePNG(t, pageImage(120, 180, 200, 2)),
		Y:      180,
		Height: 200,
	}
	last := pageSegment(t, 60, 230, 200)
	last.IsLastSegment = true
	last.RemainingContentHeight = Remaining(50)
	req := StitchRequest{
		Segments: []Segment{pageSegment(t, 60, 0, 200), hiDPI, last},
		Config:   DefaultConfig(),
	}

	s := NewStitcher(WithInterpolation(InterpNearest))
	canvas, out, err := s.Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	for _, l := range out.Layers {
		if l.Width != 60 {
			t.Errorf("layer %d width = %d, want 60", l.Segment, l.Width)
		}
	}
	if got, want := layerHeights(out.Layers), []int{200, 180, 50}; !equalInts(got, want) {
		t.Errorf("layer heights = %v, want %v", got, want)
	}
	if out.Layers[1].CropTop != 40 {
		t.Errorf("2x segment CropTop = %d, want 40 (20 logical rows)", out.Layers[1].CropTop)
	}
	if canvas.Width() != 60 || canvas.Height() != 430 {
		t.Errorf("canvas = %dx%d, want 60x430", canvas.Width(), canvas.Height())
	}
	checkPageRows(t, canvas, 0, 199, 200, 201, 300, 379, 380, 429)
}

func TestStitch_MonotonicPlacement(t *testing.T) {
	segs := scrollCapture(t, 40, 100, 20, 700)
	s := NewStitcher()
	canvas, out, err := s.Compose(context.Background(), StitchRequest{Segments: segs, Config: DefaultConfig()})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(out.Layers) != len(segs) {
		t.Fatalf("Layers = %d, want %d", len(out.Layers), len(segs))
	}
	y := 0
	for i, l := range out.Layers {
		if l.Top != y {
			t.Errorf("layer %d Top = %d, want %d", i, l.Top, y)
		}
		if l.Height <= 0 {
			t.Errorf("layer %d Height = %d", i, l.Height)
		}
		y += l.Height
	}
	if canvas.Height() != y || y != 700 {
		t.Errorf("canvas height = %d, sum of layers = %d, want 700", canvas.Height(), y)
	}
	checkPageRows(t, canvas, 0, 99, 100, 350, 699)
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		n      int
		height int
		want   Strategy
	}{
		{"small", nil, 8, 6000, StrategyDirect},
		{"at limits", nil, 10, 8000, StrategyDirect},
		{"many segments", nil, 11, 0, StrategyBatched},
		{"tall", nil, 3, 8001, StrategyBatched},
		{"forced direct", []Option{WithStrategy(StrategyDirect)}, 12, 9000, StrategyDirect},
		{"forced batched", []Option{WithStrategy(StrategyBatched)}, 2, 100, StrategyBatched},
		{"custom limits", []Option{WithDirectLimits(3, 1000)}, 4, 0, StrategyBatched},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewStitcher(tt.opts...).SelectStrategy(tt.n, tt.height); got != tt.want {
				t.Errorf("SelectStrategy(%d, %d) = %v, want %v", tt.n, tt.height, got, tt.want)
			}
		})
	}
}

func TestStitch_StrategyEquivalence(t *testing.T) {
	long := StitchRequest{
		Segments:        scrollCapture(t, 60, 400, 20, 4350),
		TotalHeightHint: 9000,
		Config:          DefaultConfig(),
	}
	if len(long.Segments) != 12 {
		t.Fatalf("capture produced %d segments, want 12", len(long.Segments))
	}

	batched, bout, err := NewStitcher().Compose(context.Background(), long)
	if err != nil {
		t.Fatalf("batched Compose() error = %v", err)
	}
	if bout.Strategy != StrategyBatched {
		t.Errorf("Strategy = %v, want batched", bout.Strategy)
	}
	want := []int{400, 380, 380, 380, 380, 380, 380, 380, 380, 380, 380, 150}
	if got := layerHeights(bout.Layers); !equalInts(got, want) {
		t.Errorf("batched layer heights = %v, want %v", got, want)
	}
	// Batch boundaries fall after segments 4 and 9.
	checkPageRows(t, batched, 0, 1919, 1920, 1921, 3819, 3820, 4199, 4200, 4349)

	short := StitchRequest{
		Segments:        scrollCapture(t, 60, 400, 20, 2830),
		TotalHeightHint: 6000,
		Config:          DefaultConfig(),
	}
	_, dout, err := NewStitcher().Compose(context.Background(), short)
	if err != nil {
		t.Fatalf("direct Compose() error = %v", err)
	}
	if dout.Strategy != StrategyDirect || len(dout.Layers) != 8 {
		t.Errorf("short request = %v with %d layers, want direct with 8", dout.Strategy, len(dout.Layers))
	}
	if got, want := layerHeights(dout.Layers), []int{400, 380, 380, 380, 380, 380, 380, 150}; !equalInts(got, want) {
		t.Errorf("direct layer heights = %v, want %v", got, want)
	}

	forced, fout, err := NewStitcher(WithStrategy(StrategyDirect)).Compose(context.Background(), long)
	if err != nil {
		t.Fatalf("forced direct Compose() error = %v", err)
	}
	if len(fout.Layers) != len(bout.Layers) {
		t.Fatalf("layer count direct %d, batched %d", len(fout.Layers), len(bout.Layers))
	}
	for i := range fout.Layers {
		if fout.Layers[i] != bout.Layers[i] {
			t.Errorf("layer %d: direct %+v, batched %+v", i, fout.Layers[i], bout.Layers[i])
		}
	}
	if !forced.Equal(batched) {
		t.Error("direct and batched canvases differ for equal-width segments")
	}
}

func TestStitch_BatchedSmallBatches(t *testing.T) {
	segs := scrollCapture(t, 30, 60, 10, 400)
	s := NewStitcher(WithStrategy(StrategyBatched), WithBatchSize(2))
	canvas, out, err := s.Compose(context.Background(), StitchRequest{Segments: segs, Config: Config{OverlapPixels: 10}})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if canvas.Height() != 400 || len(out.Layers) != len(segs) {
		t.Errorf("canvas height = %d, layers = %d, want 400 and %d", canvas.Height(), len(out.Layers), len(segs))
	}
	checkPageRows(t, canvas, 0, 59, 60, 110, 111, 399)
}

func TestStitch_DroppedSegment(t *testing.T) {
	sliver := Segment{Data: encodePNG(t, pageImage(60, 100, 6, 1)), Y: 100, Height: 100}
	last := pageSegment(t, 60, 100, 100)
	last.IsLastSegment = true
	last.RemainingContentHeight = Remaining(100)

	out, err := NewStitcher().Stitch(context.Background(), StitchRequest{
		Segments: []Segment{pageSegment(t, 60, 0, 100), sliver, last},
		Config:   DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Stitch() error = %v", err)
	}
	if len(out.Layers) != 2 || out.Height != 200 {
		t.Errorf("layers = %d, height = %d, want 2 and 200", len(out.Layers), out.Height)
	}
	found := false
	for _, w := range out.Warnings {
		if w.Kind == KindDroppedSegment && w.Segment == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want a dropped segment 1", out.Warnings)
	}
}

func TestStitch_SameEncoding(t *testing.T) {
	tests := []struct {
		format string
		encode func(*bytes.Buffer, image.Image) error
	}{
		{"jpeg", func(b *bytes.Buffer, m image.Image) error { return jpeg.Encode(b, m, nil) }},
		{"bmp", func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) }},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var segs []Segment
			for i, top := range []int{0, 30} {
				var buf bytes.Buffer
				if err := tt.encode(&buf, pageImage(48, top, 40, 1)); err != nil {
					t.Fatal(err)
				}
				seg := Segment{Data: buf.Bytes(), Y: top, Height: 40}
				if i == 1 {
					seg.IsLastSegment = true
					seg.RemainingContentHeight = Remaining(30)
				}
				segs = append(segs, seg)
			}
			out, err := NewStitcher().Stitch(context.Background(), StitchRequest{Segments: segs, Config: Config{OverlapPixels: 10}})
			if err != nil {
				t.Fatalf("Stitch() error = %v", err)
			}
			if out.Format != tt.format || out.Fallback {
				t.Errorf("Format = %q fallback = %v, want %q", out.Format, out.Fallback, tt.format)
			}
			cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Image))
			if err != nil || format != tt.format || cfg.Width != 28 || cfg.Height != 70 {
				t.Errorf("output = %dx%d %q (%v), want 28x70 %s", cfg.Width, cfg.Height, format, err, tt.format)
			}
		})
	}
}

func TestStitch_NarrowCanvasKeepsScrollbar(t *testing.T) {
	out, err := NewStitcher().Stitch(context.Background(), StitchRequest{Segments: []Segment{pageSegment(t, 15, 0, 10)}})
	if err != nil {
		t.Fatalf("Stitch() error = %v", err)
	}
	if out.Width != 15 || out.Fallback {
		t.Errorf("Width = %d fallback = %v, want untrimmed 15", out.Width, out.Fallback)
	}
	if len(out.Warnings) != 1 || out.Warnings[0].Kind != KindTrim {
		t.Errorf("Warnings = %v, want one TrimFailure", out.Warnings)
	}
}

func TestStitch_DualModeRegistrationFailure(t *testing.T) {
	mem := &persist.MemoryClipboard{FileErr: errors.New("no pasteboard")}
	tracker := persist.NewTracker(t.TempDir(), "")
	sink := persist.NewSink(persist.WithMode(persist.ModeDual),
		persist.WithImageClipboard(mem), persist.WithFileWriter(mem), persist.WithTracker(tracker))

	out, err := NewStitcher(WithSink(sink)).Stitch(context.Background(),
		StitchRequest{Segments: []Segment{pageSegment(t, 50, 0, 20)}})
	if err != nil {
		t.Fatalf("Stitch() error = %v", err)
	}
	p := out.Persistence
	if p == nil || !p.Success || !p.ImageOnly || p.FilePath == "" {
		t.Fatalf("Persistence = %+v, want image-only success with a file", p)
	}
	if len(out.Warnings) != 1 || out.Warnings[0].Kind != KindClipboardRegistration {
		t.Errorf("Warnings = %v, want one ClipboardRegistrationFailure", out.Warnings)
	}
	if len(tracker.Tracked()) != 1 {
		t.Errorf("tracked files = %v, want the temp file", tracker.Tracked())
	}
}

func TestStrategyString(t *testing.T) {
	for s, want := range map[Strategy]string{
		StrategyAuto:    "auto",
		StrategyDirect:  "direct",
		StrategyBatched: "batched",
		Strategy(9):     "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Strategy(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"", StrategyAuto, true},
		{"auto", StrategyAuto, true},
		{"direct", StrategyDirect, true},
		{"batched", StrategyBatched, true},
		{"parallel", StrategyAuto, false},
	}
	for _, tt := range tests {
		if got, ok := ParseStrategy(tt.in); got != tt.want || ok != tt.ok {
			t.Errorf("ParseStrategy(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStitch_DecodeWorkersAgree(t *testing.T) {
	segs := scrollCapture(t, 30, 60, 10, 400)
	req := StitchRequest{Segments: segs, Config: Config{OverlapPixels: 10}}

	serial, _, err := NewStitcher(WithDecodeWorkers(1)).Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose(1 worker) error = %v", err)
	}
	concurrent, _, err := NewStitcher(WithDecodeWorkers(8)).Compose(context.Background(), req)
	if err != nil {
		t.Fatalf("Compose(8 workers) error = %v", err)
	}
	if !serial.Equal(concurrent) {
		t.Error("decoding with 8 workers changed the composite")
	}
}
