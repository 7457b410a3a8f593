package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentcore/core"
)

// SlidingWindow is a bounded, process-local core.Memory. It keeps the most
// recent capacity turns in a ring buffer and evicts the oldest turn first.
//
// Concurrency: protected by RWMutex. Appends are serialized against each other
// and against Snapshot; Snapshot hands out copies, so an eviction never
// touches turns a run is still reading.
type SlidingWindow struct {
	mu       sync.RWMutex
	buf      []core.Turn
	head     int // index of the oldest turn
	size     int
	nextSeq  uint64
	capacity int
}

// NewSlidingWindow creates a window holding at most capacity turns.
func NewSlidingWindow(capacity int) (*SlidingWindow, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("sliding window capacity must be >= 1, got %d", capacity)
	}
	return &SlidingWindow{buf: make([]core.Turn, capacity), capacity: capacity}, nil
}

// MustSlidingWindow is like NewSlidingWindow but panics on invalid capacity.
func MustSlidingWindow(capacity int) *SlidingWindow {
	w, err := NewSlidingWindow(capacity)
	if err != nil {
		panic(err)
	}
	return w
}

// Append stores turn, assigning the next sequence number and a timestamp when
// the turn has none. The oldest turn is overwritten once the window is full.
func (w *SlidingWindow) Append(turn core.Turn) {
	t := turn.Clone()
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextSeq++
	t.Seq = w.nextSeq

	if w.size < w.capacity {
		w.buf[(w.head+w.size)%w.capacity] = t
		w.size++
		return
	}
	w.buf[w.head] = t
	w.head = (w.head + 1) % w.capacity
}

// Snapshot returns a copy of the stored turns, oldest first.
func (w *SlidingWindow) Snapshot() []core.Turn {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]core.Turn, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.head+i)%w.capacity].Clone()
	}
	return out
}

// Clear empties the window. Sequence numbers keep increasing across clears.
func (w *SlidingWindow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	clear(w.buf)
	w.head = 0
	w.size = 0
}

// Len returns the number of stored turns.
func (w *SlidingWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Capacity returns the configured capacity.
func (w *SlidingWindow) Capacity() int { return w.capacity }
