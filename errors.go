package scrollshot

import (
	"errors"
	"fmt"

	"github.com/gogpu/scrollshot/persist"
)

// Sentinel errors. A *StitchError matches the sentinel of its Kind with
// errors.Is.
var (
	// ErrEmptyRequest is returned when a request has no segments.
	ErrEmptyRequest = errors.New("scrollshot: empty request")

	// ErrDecode is reported when a segment cannot be decoded.
	ErrDecode = errors.New("scrollshot: segment decode failed")

	// ErrCompositeTimeout is reported when compositing exceeds its deadline.
	ErrCompositeTimeout = errors.New("scrollshot: composite timed out")

	// ErrInvalidGeometry is reported for layouts that cannot be composited,
	// such as a negative placement or an empty canvas.
	ErrInvalidGeometry = errors.New("scrollshot: invalid geometry")

	// ErrEncode is reported when the stitched canvas cannot be encoded.
	ErrEncode = errors.New("scrollshot: encode failed")

	// ErrTrim is reported when the scrollbar strip cannot be removed.
	ErrTrim = errors.New("scrollshot: scrollbar trim failed")

	// ErrClipboardRegistration is reported when the temp file could not be
	// registered on the platform clipboard.
	ErrClipboardRegistration = persist.ErrClipboardRegistration

	// ErrSweep is reported when a stale temp file could not be deleted.
	ErrSweep = persist.ErrSweep
)

// ErrorKind classifies failures and warnings.
type ErrorKind uint8

const (
	// KindEmptyRequest: no segments. Fatal.
	KindEmptyRequest ErrorKind = iota + 1
	// KindDecode: a segment could not be decoded. Fatal for segment 0 only.
	KindDecode
	// KindCompositeTimeout: the composite deadline passed.
	KindCompositeTimeout
	// KindInvalidGeometry: a layout that cannot be composited.
	KindInvalidGeometry
	// KindEncode: the stitched image could not be encoded.
	KindEncode
	// KindGeometry: a layer extends past the canvas. Warning only.
	KindGeometry
	// KindDroppedSegment: a segment contributed too few rows and was skipped.
	KindDroppedSegment
	// KindTrim: the scrollbar could not be trimmed. Warning only.
	KindTrim
	// KindClipboardRegistration: the file clipboard step failed. Warning only.
	KindClipboardRegistration
	// KindSweep: stale temp files could not be deleted. Warning only.
	KindSweep
	// KindPersistence: persisting the result failed or was degraded.
	KindPersistence
	// KindFallback: the first segment was delivered instead of a stitch.
	KindFallback
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindEmptyRequest:
		return "EmptyRequest"
	case KindDecode:
		return "DecodeError"
	case KindCompositeTimeout:
		return "CompositeTimeout"
	case KindInvalidGeometry:
		return "InvalidGeometry"
	case KindEncode:
		return "EncodeError"
	case KindGeometry:
		return "GeometryWarning"
	case KindDroppedSegment:
		return "DroppedSegment"
	case KindTrim:
		return "TrimFailure"
	case KindClipboardRegistration:
		return "ClipboardRegistrationFailure"
	case KindSweep:
		return "SweepFailure"
	case KindPersistence:
		return "PersistenceFailure"
	case KindFallback:
		return "FallbackUsed"
	default:
		return "Unknown"
	}
}

// sentinel returns the sentinel error for the kind, or nil.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindEmptyRequest:
		return ErrEmptyRequest
	case KindDecode:
		return ErrDecode
	case KindCompositeTimeout:
		return ErrCompositeTimeout
	case KindInvalidGeometry, KindGeometry:
		return ErrInvalidGeometry
	case KindEncode:
		return ErrEncode
	case KindTrim:
		return ErrTrim
	case KindClipboardRegistration:
		return ErrClipboardRegistration
	case KindSweep:
		return ErrSweep
	default:
		return nil
	}
}

// StitchError is the error every pipeline stage returns.
type StitchError struct {
	Kind    ErrorKind
	Segment int // index of the offending segment, -1 if none
	Err     error
}

func newStitchError(kind ErrorKind, segment int, err error) *StitchError {
	return &StitchError{Kind: kind, Segment: segment, Err: err}
}

// Error implements the error interface.
func (e *StitchError) Error() string {
	msg := "scrollshot: " + e.Kind.String()
	if e.Segment >= 0 {
		msg += fmt.Sprintf(" (segment %d)", e.Segment)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StitchError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's Kind.
func (e *StitchError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Fatal reports whether the error has to be surfaced to the caller rather
// than routed to the fallback handler.
func (e *StitchError) Fatal() bool {
	return e.Kind == KindEmptyRequest || (e.Kind == KindDecode && e.Segment == 0)
}

// Warning is a non-fatal condition accumulated on an Output.
type Warning struct {
	Kind    ErrorKind
	Segment int // -1 if not tied to a segment
	Message string
}

// String formats the warning for logs and summaries.
func (w Warning) String() string {
	if w.Segment >= 0 {
		return fmt.Sprintf("%s (segment %d): %s", w.Kind, w.Segment, w.Message)
	}
	return w.Kind.String() + ": " + w.Message
}
