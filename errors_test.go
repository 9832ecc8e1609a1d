package scrollshot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStitchErrorIs(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("stage: %w", newStitchError(KindDecode, 3, cause))

	if !errors.Is(err, ErrDecode) {
		t.Error("errors.Is(err, ErrDecode) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrCompositeTimeout) {
		t.Error("errors.Is(err, ErrCompositeTimeout) = true")
	}
	var se *StitchError
	if !errors.As(err, &se) || se.Segment != 3 {
		t.Fatalf("errors.As = %v", se)
	}
	if msg := se.Error(); !strings.Contains(msg, "DecodeError") || !strings.Contains(msg, "segment 3") {
		t.Errorf("Error() = %q", msg)
	}
}

func TestStitchErrorFatal(t *testing.T) {
	tests := []struct {
		kind    ErrorKind
		segment int
		want    bool
	}{
		{KindEmptyRequest, -1, true},
		{KindDecode, 0, true},
		{KindDecode, 2, false},
		{KindCompositeTimeout, -1, false},
		{KindInvalidGeometry, 1, false},
		{KindEncode, -1, false},
	}
	for _, tt := range tests {
		if got := newStitchError(tt.kind, tt.segment, nil).Fatal(); got != tt.want {
			t.Errorf("%v segment %d Fatal() = %v, want %v", tt.kind, tt.segment, got, tt.want)
		}
	}
}

func TestErrorKindString(t *testing.T) {
	for k := KindEmptyRequest; k <= KindFallback; k++ {
		if s := k.String(); s == "Unknown" || s == "" {
			t.Errorf("ErrorKind(%d).String() = %q", k, s)
		}
	}
	if ErrorKind(0).String() != "Unknown" {
		t.Error("ErrorKind(0) should be Unknown")
	}
}

func TestWarningString(t *testing.T) {
	w := Warning{Kind: KindDroppedSegment, Segment: 4, Message: "segment dropped"}
	if got := w.String(); got != "DroppedSegment (segment 4): segment dropped" {
		t.Errorf("String() = %q", got)
	}
	w = Warning{Kind: KindTrim, Segment: -1, Message: "too narrow"}
	if got := w.String(); got != "TrimFailure: too narrow" {
		t.Errorf("String() = %q", got)
	}
}

func TestReexportedPersistErrors(t *testing.T) {
	err := newStitchError(KindClipboardRegistration, -1, nil)
	if !errors.Is(err, ErrClipboardRegistration) {
		t.Error("KindClipboardRegistration does not match ErrClipboardRegistration")
	}
	if !errors.Is(newStitchError(KindSweep, -1, nil), ErrSweep) {
		t.Error("KindSweep does not match ErrSweep")
	}
}
