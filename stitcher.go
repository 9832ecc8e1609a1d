package scrollshot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/scrollshot/diag"
	img "github.com/gogpu/scrollshot/internal/image"
	"github.com/gogpu/scrollshot/internal/parallel"
	"github.com/gogpu/scrollshot/persist"
)

// Strategy is the composition path of a request.
type Strategy uint8

const (
	// StrategyAuto picks direct or batched from the request size.
	StrategyAuto Strategy = iota

	// StrategyDirect composites every segment onto one canvas.
	StrategyDirect

	// StrategyBatched composites fixed-size batches, then stacks them.
	StrategyBatched
)

// String returns a string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyDirect:
		return "direct"
	case StrategyBatched:
		return "batched"
	default:
		return "unknown"
	}
}

// ParseStrategy maps "auto", "direct" or "batched" to a Strategy.
// Unknown names report false.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "auto", "":
		return StrategyAuto, true
	case "direct":
		return StrategyDirect, true
	case "batched":
		return StrategyBatched, true
	default:
		return StrategyAuto, false
	}
}

// Output is the result of a stitch request.
type Output struct {
	RequestID string

	// Image is the encoded result, in the encoding of the first segment
	// (WebP input comes back as PNG). For a fallback result it is the first
	// segment's original bytes.
	Image  []byte
	Format string
	Width  int
	Height int

	Strategy  Strategy
	Layers    []Layer
	Placement []PlacementWarning
	Warnings  []Warning

	// Persistence is what the sink wrote; nil when the stitcher has no sink.
	Persistence *persist.Result

	// Fallback is set when the stitch failed and Image is the first segment.
	// Cause holds the failure.
	Fallback bool
	Cause    error
}

func (o *Output) addWarning(kind ErrorKind, segment int, msg string) {
	w := Warning{Kind: kind, Segment: segment, Message: msg}
	Logger().Warn("scrollshot: "+kind.String(), "request", o.RequestID, "segment", segment, "msg", msg)
	o.Warnings = append(o.Warnings, w)
}

func (o *Output) addPlacement(ws []PlacementWarning) {
	for _, w := range ws {
		o.Placement = append(o.Placement, w)
		o.Warnings = append(o.Warnings, Warning{Kind: KindGeometry, Segment: w.Segment, Message: w.String()})
	}
}

// Stitcher turns ordered, overlapping viewport captures into one image.
//
// Calls to Stitch are serialized: a Stitcher handles one request at a time.
type Stitcher struct {
	mu      sync.Mutex
	opts    options
	pool    *img.Pool
	decoder *parallel.Pool
}

// NewStitcher creates a stitcher.
func NewStitcher(opts ...Option) *Stitcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.recorder == nil {
		o.recorder = diag.NewMemory(0)
	}
	return &Stitcher{
		opts:    o,
		pool:    img.NewPool(2 * o.batchSize),
		decoder: parallel.NewPool(o.decodeWorkers),
	}
}

// Recorder returns the diagnostics recorder.
func (s *Stitcher) Recorder() diag.Recorder { return s.opts.recorder }

// Sink returns the persistence sink, or nil.
func (s *Stitcher) Sink() *persist.Sink { return s.opts.sink }

// SelectStrategy returns the composition path for a request with n segments
// and the given height hint. Requests above the direct limits are batched.
func (s *Stitcher) SelectStrategy(n, totalHeightHint int) Strategy {
	if s.opts.strategy != StrategyAuto {
		return s.opts.strategy
	}
	if n > s.opts.directMaxSegments || totalHeightHint > s.opts.directMaxHeight {
		return StrategyBatched
	}
	return StrategyDirect
}

// Stitch composites req, trims the scrollbar, encodes the result and hands
// it to the sink.
//
// Only an empty request and an undecodable first segment return an error.
// Every other failure delivers the first segment instead, with Fallback set
// and a FallbackWarning; non-fatal problems are listed in Output.Warnings.
func (s *Stitcher) Stitch(ctx context.Context, req StitchRequest) (*Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Output{RequestID: uuid.NewString()}
	if len(req.Segments) == 0 {
		err := newStitchError(KindEmptyRequest, -1, ErrEmptyRequest)
		s.record(ctx, out.RequestID, &req, err, false)
		return nil, err
	}

	first, err := decodeSegment(&req, 0)
	if err != nil {
		s.record(ctx, out.RequestID, &req, err, false)
		return nil, err
	}

	canvas, err := s.compose(ctx, &req, first, out)
	if err != nil {
		return s.fallback(ctx, &req, first, out, err), nil
	}

	trimmed, err := TrimScrollbar(canvas, s.opts.scrollbarWidth)
	if err != nil {
		out.addWarning(KindTrim, -1, err.Error())
	}

	out.Format = img.OutputEncoding(first.format)
	data, err := trimmed.Encode(out.Format)
	if err != nil {
		return s.fallback(ctx, &req, first, out,
			newStitchError(KindEncode, -1, fmt.Errorf("%w: %w", ErrEncode, err))), nil
	}
	out.Image = data
	out.Width, out.Height = trimmed.Width(), trimmed.Height()

	Logger().Info("scrollshot: stitched",
		"request", out.RequestID,
		"strategy", out.Strategy.String(),
		"segments", len(req.Segments),
		"layers", len(out.Layers),
		"width", out.Width,
		"height", out.Height)

	s.persist(ctx, out)
	return out, nil
}

// Compose runs the composition stage alone and returns the untrimmed canvas.
// Failures are returned as *StitchError rather than routed to the fallback.
func (s *Stitcher) Compose(ctx context.Context, req StitchRequest) (*Canvas, *Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Output{RequestID: uuid.NewString()}
	if len(req.Segments) == 0 {
		return nil, nil, newStitchError(KindEmptyRequest, -1, ErrEmptyRequest)
	}
	first, err := decodeSegment(&req, 0)
	if err != nil {
		return nil, nil, err
	}
	canvas, err := s.compose(ctx, &req, first, out)
	if err != nil {
		return nil, out, err
	}
	out.Width, out.Height = canvas.Width(), canvas.Height()
	return canvas, out, nil
}

// compose picks the strategy and composites under the composite deadline.
func (s *Stitcher) compose(ctx context.Context, req *StitchRequest, first *decodedSegment, out *Output) (*Canvas, error) {
	if len(req.Segments) == 1 {
		out.Strategy = StrategyDirect
		out.Layers = []Layer{{
			Segment:    0,
			CropHeight: first.buf.Height(),
			Width:      first.buf.Width(),
			Height:     first.buf.Height(),
		}}
		return wrapCanvas(first.buf), nil
	}

	out.Strategy = s.SelectStrategy(len(req.Segments), req.TotalHeightHint)
	Logger().Info("scrollshot: strategy selected",
		"request", out.RequestID,
		"strategy", out.Strategy.String(),
		"segments", len(req.Segments),
		"heightHint", req.TotalHeightHint,
		"width", first.buf.Width())

	ctx, cancel := context.WithTimeout(ctx, s.opts.compositeTimeout)
	defer cancel()

	if out.Strategy == StrategyBatched {
		return s.composeBatched(ctx, req, first, out)
	}
	return s.composeDirect(ctx, req, first, out)
}

// composeDirect composites every segment onto one canvas.
func (s *Stitcher) composeDirect(ctx context.Context, req *StitchRequest, first *decodedSegment, out *Output) (*Canvas, error) {
	comp := NewCompositor(first.buf.Width(), s.opts.interp, s.pool)
	defer comp.Release()

	if err := s.placeSegments(ctx, req, first, comp, 0, len(req.Segments), out); err != nil {
		return nil, err
	}
	canvas, placement, err := comp.Commit(ctx)
	if err != nil {
		return nil, err
	}
	out.Layers = append(out.Layers, comp.Layers()...)
	out.addPlacement(placement)
	return canvas, nil
}

// placeSegments decodes segments [start, end), resolves their crops and
// places them on comp. Segment 0 is never cropped.
//
// Decoding runs on the decoder pool; placement stays in segment order and
// stops at the first failing segment.
func (s *Stitcher) placeSegments(ctx context.Context, req *StitchRequest, first *decodedSegment, comp *Compositor, start, end int, out *Output) error {
	decoded := make([]*decodedSegment, end-start)
	errs := s.decoder.Map(ctx, end-start, func(j int) error {
		i := start + j
		if i == 0 {
			decoded[j] = first
			return nil
		}
		d, err := decodeSegment(req, i)
		decoded[j] = d
		return err
	})

	overlap := req.Config.overlap()
	for j, d := range decoded {
		i := start + j
		if err := errs[j]; err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return newStitchError(KindCompositeTimeout, i, err)
			}
			return err
		}
		crop := ResolveCrop(d.seg, d.buf.Height(), overlap, i == 0)
		if crop.Drop {
			out.addWarning(KindDroppedSegment, i,
				fmt.Sprintf("segment dropped: %d new rows of %d", crop.Height, d.buf.Height()))
			continue
		}
		if _, err := comp.Place(i, d.buf, crop); err != nil {
			return err
		}
	}
	return nil
}

// persist hands the output image to the sink and folds the outcome into the
// output's warnings.
func (s *Stitcher) persist(ctx context.Context, out *Output) {
	sink := s.opts.sink
	if sink == nil {
		return
	}
	res, err := sink.Persist(ctx, persist.Payload{Data: out.Image, Format: out.Format})

	switch {
	case err != nil:
		out.addWarning(KindPersistence, -1, err.Error())
	case res.Warning != "" && res.FilePath != "" && res.ImageOnly:
		out.addWarning(KindClipboardRegistration, -1, res.Warning)
	case res.Warning != "":
		out.addWarning(KindPersistence, -1, res.Warning)
	}
	if res.SweepErr != nil {
		out.addWarning(KindSweep, -1, res.SweepErr.Error())
	}

	if out.Fallback {
		warning := FallbackWarning
		if res.Warning != "" {
			warning += "; " + res.Warning
		}
		res.Warning = warning
	}
	out.Persistence = &res
}

// record writes a diagnostics record for a failed request.
func (s *Stitcher) record(ctx context.Context, requestID string, req *StitchRequest, cause error, fallback bool) {
	kind, segment := "Unknown", -1
	var se *StitchError
	if errors.As(cause, &se) {
		kind, segment = se.Kind.String(), se.Segment
	}
	r := diag.NewRecord(requestID, kind, segment, cause, req.segmentInfo())
	r.Fallback = fallback
	if err := s.opts.recorder.Record(ctx, r); err != nil {
		Logger().Warn("scrollshot: diagnostics record failed", "request", requestID, "err", err)
	}
}
