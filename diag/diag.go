// Package diag keeps diagnostics for stitch requests that did not complete
// normally.
//
// Every failure the stitcher routes to its fallback, and every hard failure,
// produces one Record: the error, its kind and a dump of the geometry of each
// segment in the request. Records go to a Recorder. Memory keeps the most
// recent ones in a ring; SQLite appends them to a table.
package diag

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SegmentInfo is the geometry of one segment as the capture loop declared it.
type SegmentInfo struct {
	Y             int  `json:"y"`
	ActualScrollY int  `json:"actualScrollY"`
	Height        int  `json:"height"`
	IsLastSegment bool `json:"isLastSegment"`
}

// Record describes one failed or degraded request.
type Record struct {
	ID        string
	RequestID string
	Time      time.Time
	Kind      string // error kind name, e.g. "DecodeError"
	Segment   int    // offending segment, -1 when not tied to one
	Error     string
	Fallback  bool // the fallback result was delivered
	Segments  []SegmentInfo
}

// NewRecord fills in a fresh ID and the current time.
func NewRecord(requestID, kind string, segment int, err error, segments []SegmentInfo) Record {
	r := Record{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Time:      time.Now().UTC(),
		Kind:      kind,
		Segment:   segment,
		Segments:  segments,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Recorder stores diagnostic records.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// Nop drops every record.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Record) error { return nil }
