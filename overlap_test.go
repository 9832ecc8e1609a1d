package scrollshot

import "testing"

func TestOverlapBound(t *testing.T) {
	tests := []struct {
		h, configured, want int
	}{
		{800, 20, 20},
		{800, 500, 240}, // 30% cap
		{20, 20, 6},
		{14, 20, 4},   // h-10 cap
		{12, 20, 2},
		{8, 20, 0},    // never negative
		{800, 0, 0},
		{800, -5, 0},
	}
	for _, tt := range tests {
		if got := OverlapBound(tt.h, tt.configured); got != tt.want {
			t.Errorf("OverlapBound(%d, %d) = %d, want %d", tt.h, tt.configured, got, tt.want)
		}
	}
}

func TestOverlapBoundProperty(t *testing.T) {
	for h := 1; h <= 400; h++ {
		for _, cfg := range []int{0, 5, 20, 100, 1000} {
			got := OverlapBound(h, cfg)
			limit := min(cfg, h*3/10, h-10)
			if got < 0 || got > max(limit, 0) {
				t.Fatalf("OverlapBound(%d, %d) = %d, outside [0, %d]", h, cfg, got, max(limit, 0))
			}
			if h >= 10 && h-got < minNewRows {
				t.Fatalf("OverlapBound(%d, %d) = %d leaves fewer than %d rows", h, cfg, got, minNewRows)
			}
		}
	}
}

func TestResolveCrop(t *testing.T) {
	tests := []struct {
		name     string
		seg      Segment
		decodedH int
		overlap  int
		first    bool
		want     Crop
	}{
		{"first keeps everything", Segment{Height: 800}, 800, 20, true, Crop{Top: 0, Height: 800}},
		{"middle", Segment{Height: 800}, 800, 20, false, Crop{Top: 20, Height: 780}},
		{"middle at 2x", Segment{Height: 400}, 800, 20, false, Crop{Top: 40, Height: 760}},
		{"middle at 1.5x rounds", Segment{Height: 100}, 150, 15, false, Crop{Top: 23, Height: 127}},
		{"short middle", Segment{Height: 20}, 20, 20, false, Crop{Top: 6, Height: 14}},
		{"unset height uses decoded", Segment{}, 500, 20, false, Crop{Top: 20, Height: 480}},
		{"dropped", Segment{Height: 100}, 6, 20, false, Crop{Top: 1, Height: 5, Drop: true}},
		{"last with remaining", Segment{Height: 400, IsLastSegment: true, RemainingContentHeight: Remaining(150)},
			400, 20, false, Crop{Top: 250, Height: 150}},
		{"last ignores overlap", Segment{Height: 400, IsLastSegment: true, RemainingContentHeight: Remaining(400)},
			400, 20, false, Crop{Top: 0, Height: 400}},
		{"last remaining clamps", Segment{Height: 400, IsLastSegment: true, RemainingContentHeight: Remaining(900)},
			400, 20, false, Crop{Top: 0, Height: 400}},
		{"last without remaining", Segment{Height: 300, IsLastSegment: true}, 400, 20, false, Crop{Top: 100, Height: 300}},
		{"last nothing remaining", Segment{Height: 400, IsLastSegment: true, RemainingContentHeight: Remaining(0)},
			400, 20, false, Crop{Top: 400, Drop: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCrop(&tt.seg, tt.decodedH, tt.overlap, tt.first)
			if got != tt.want {
				t.Errorf("ResolveCrop() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveCropLastExactness(t *testing.T) {
	for _, remaining := range []int{1, 7, 150, 399, 400, 401, 1000} {
		seg := Segment{Height: 400, IsLastSegment: true, RemainingContentHeight: Remaining(remaining)}
		got := ResolveCrop(&seg, 400, 20, false)
		want := min(remaining, 400)
		if got.Height != want || got.Top+got.Height != 400 {
			t.Errorf("remaining %d: crop = %+v, want %d rows ending at 400", remaining, got, want)
		}
	}
}
