package scrollshot

import (
	"time"

	"github.com/gogpu/scrollshot/diag"
	img "github.com/gogpu/scrollshot/internal/image"
	"github.com/gogpu/scrollshot/persist"
)

// Defaults used by NewStitcher.
const (
	DefaultBatchSize         = 5
	DefaultDirectMaxSegments = 10
	DefaultDirectMaxHeight   = 8000
	DefaultScrollbarWidth    = 20
	DefaultCompositeTimeout  = 30 * time.Second
)

// Interpolation selects the resampling filter used for width normalization.
type Interpolation = img.InterpolationMode

// Interpolation filters, fastest first.
const (
	InterpNearest        = img.InterpNearest
	InterpApproxBilinear = img.InterpApproxBilinear
	InterpBilinear       = img.InterpBilinear
	InterpCatmullRom     = img.InterpCatmullRom
)

// ParseInterpolation maps "nearest", "approx-bilinear", "bilinear" or
// "catmullrom" to a filter. Unknown names report false.
func ParseInterpolation(name string) (Interpolation, bool) {
	return img.ParseInterpolation(name)
}

// Option configures a Stitcher during creation.
// Use functional options to customize Stitcher behavior.
//
// Example:
//
//	// Defaults: batches of 5, 20 px scrollbar, 30 s composite budget
//	s := scrollshot.NewStitcher()
//
//	// Persist through the system clipboard and a temp file
//	s := scrollshot.NewStitcher(scrollshot.WithSink(persist.NewSink(persist.WithMode(persist.ModeDual))))
type Option func(*options)

// options holds optional configuration for Stitcher creation.
type options struct {
	batchSize         int
	directMaxSegments int
	directMaxHeight   int
	scrollbarWidth    int
	compositeTimeout  time.Duration
	interp            Interpolation
	strategy          Strategy
	sink              *persist.Sink
	recorder          diag.Recorder
	decodeWorkers     int
}

// defaultOptions returns the default stitcher options.
func defaultOptions() options {
	return options{
		batchSize:         DefaultBatchSize,
		directMaxSegments: DefaultDirectMaxSegments,
		directMaxHeight:   DefaultDirectMaxHeight,
		scrollbarWidth:    DefaultScrollbarWidth,
		compositeTimeout:  DefaultCompositeTimeout,
		interp:            InterpCatmullRom,
		strategy:          StrategyAuto,
	}
}

// WithBatchSize sets the number of segments composited per batch.
// Values below 1 keep the default.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.batchSize = n
		}
	}
}

// WithDirectLimits sets the largest request, by segment count and by height
// hint, that is still composited directly instead of in batches.
func WithDirectLimits(maxSegments, maxHeight int) Option {
	return func(o *options) {
		o.directMaxSegments = maxSegments
		o.directMaxHeight = maxHeight
	}
}

// WithScrollbarWidth sets the width of the strip trimmed from the right
// edge. Zero disables trimming.
func WithScrollbarWidth(px int) Option {
	return func(o *options) {
		o.scrollbarWidth = max(px, 0)
	}
}

// WithCompositeTimeout bounds the compositing stage of a request.
// Zero or less keeps the default.
func WithCompositeTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.compositeTimeout = d
		}
	}
}

// WithInterpolation sets the filter used to normalize layer widths.
func WithInterpolation(m Interpolation) Option {
	return func(o *options) {
		o.interp = m
	}
}

// WithStrategy forces the direct or batched composition path.
// StrategyAuto restores the size-based choice.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithSink sets where results are persisted. Without a sink, Stitch only
// returns the encoded image.
func WithSink(s *persist.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithRecorder sets the diagnostics recorder. The default keeps the last
// diag.DefaultMemoryRecords records in memory.
func WithRecorder(r diag.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithDecodeWorkers sets how many segments are decoded at once. Zero or less
// uses GOMAXPROCS.
func WithDecodeWorkers(n int) Option {
	return func(o *options) {
		o.decodeWorkers = n
	}
}
