package image

import "sync"

// Pool recycles ImageBuf backing arrays between batches.
//
// Idle buffers are grouped by width only. Layers of one capture share the
// canonical width while their heights vary with the crop, so Get hands out
// the smallest idle buffer of the right width whose backing array is large
// enough, resliced to the requested height.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	idle     map[int][]*ImageBuf
	perWidth int
}

// NewPool creates a pool keeping at most perWidth idle buffers of each width.
// Zero means unlimited.
func NewPool(perWidth int) *Pool {
	return &Pool{
		idle:     make(map[int][]*ImageBuf),
		perWidth: perWidth,
	}
}

// Get returns a zeroed width x height buffer, or nil for invalid dimensions.
func (p *Pool) Get(width, height int) *ImageBuf {
	if width <= 0 || height <= 0 {
		return nil
	}
	need := width * BytesPerPixel * height

	p.mu.Lock()
	idle := p.idle[width]
	best := -1
	for i, b := range idle {
		if cap(b.data) >= need && (best < 0 || cap(b.data) < cap(idle[best].data)) {
			best = i
		}
	}
	if best < 0 {
		p.mu.Unlock()
		buf, _ := NewImageBuf(width, height)
		return buf
	}
	buf := idle[best]
	idle[best] = idle[len(idle)-1]
	p.idle[width] = idle[:len(idle)-1]
	p.mu.Unlock()

	buf.data = buf.data[:need]
	buf.height = height
	clear(buf.data)
	return buf
}

// Put returns a buffer for reuse. Sub-image views are ignored since they
// alias another buffer's memory.
func (p *Pool) Put(buf *ImageBuf) {
	if buf == nil || buf.view {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	idle := p.idle[buf.width]
	if p.perWidth > 0 && len(idle) >= p.perWidth {
		return
	}
	p.idle[buf.width] = append(idle, buf)
}

// Len returns the number of idle buffers of the given width.
func (p *Pool) Len(width int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle[width])
}
