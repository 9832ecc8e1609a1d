package diag

import (
	"context"
	"slices"
	"sync"
)

// DefaultMemoryRecords is the ring size used when NewMemory gets n <= 0.
const DefaultMemoryRecords = 64

// Memory keeps the last n records in memory.
type Memory struct {
	mu      sync.Mutex
	records []Record
	next    int
	full    bool
}

// NewMemory creates a ring recorder holding n records.
func NewMemory(n int) *Memory {
	if n <= 0 {
		n = DefaultMemoryRecords
	}
	return &Memory{records: make([]Record, n)}
}

// Record implements Recorder. The oldest record is overwritten once the ring
// is full.
func (m *Memory) Record(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Segments = slices.Clone(r.Segments)
	m.records[m.next] = r
	m.next++
	if m.next == len(m.records) {
		m.next = 0
		m.full = true
	}
	return nil
}

// Records returns the held records, oldest first.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return slices.Clone(m.records[:m.next])
	}
	out := make([]Record, 0, len(m.records))
	out = append(out, m.records[m.next:]...)
	return append(out, m.records[:m.next]...)
}

// Len returns the number of held records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return len(m.records)
	}
	return m.next
}
