package inspect

import (
	"sync"
	"time"
)

// Entry is one observed cycle.
type Entry struct {
	Seq      uint64         `json:"seq"`
	Op       string         `json:"op"`
	Patches  int            `json:"patches"`
	Kinds    map[string]int `json:"kinds,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
	Error    string         `json:"error,omitempty"`
	At       time.Time      `json:"at"`
	Frame    []byte         `json:"-"`
}

// History is a ring buffer of recent cycles. The oldest entry is
// overwritten when it is full.
type History struct {
	mu       sync.RWMutex
	entries  []*Entry
	head     int // next write position
	count    int
	capacity int
}

// NewHistory creates a history holding up to capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 100
	}
	return &History{
		entries:  make([]*Entry, capacity),
		capacity: capacity,
	}
}

// Add appends e, evicting the oldest entry if the buffer is full.
func (h *History) Add(e *Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = e
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
}

// at returns the i-th entry from the oldest. Callers hold mu.
func (h *History) at(i int) *Entry {
	return h.entries[(h.head-h.count+i+h.capacity)%h.capacity]
}

// Since returns the entries with Seq > after, oldest first.
func (h *History) Since(after uint64) []*Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Entry
	for i := 0; i < h.count; i++ {
		if e := h.at(i); e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}

// Get returns the entry for seq, if it is still buffered.
func (h *History) Get(seq uint64) (*Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := 0; i < h.count; i++ {
		if e := h.at(i); e.Seq == seq {
			return e, true
		}
	}
	return nil, false
}

// MinSeq returns the oldest buffered sequence, or 0 when empty.
func (h *History) MinSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return 0
	}
	return h.at(0).Seq
}

// MaxSeq returns the newest buffered sequence, or 0 when empty.
func (h *History) MaxSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return 0
	}
	return h.at(h.count - 1).Seq
}

// Count returns the number of buffered entries.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.entries {
		h.entries[i] = nil
	}
	h.head = 0
	h.count = 0
}
