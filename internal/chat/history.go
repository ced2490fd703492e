package chat

import "sync"

// Entry is one resolved question/answer pair. Immutable once recorded.
type Entry struct {
	Question string
	Answer   string // HTML/markdown as returned by the backend
	Sources  []string
}

// History is the append-ordered conversation log. Entries are stored in
// arrival order and read newest-first; nothing is ever edited, reordered,
// or evicted for the lifetime of the session.
//
// The zero value is NOT useful - use NewHistory() to create instances.
type History struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{
		entries: make([]Entry, 0),
	}
}

// Record appends an entry to the log. O(1) amortized.
func (h *History) Record(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
}

// All returns the log newest-first. The returned slice is a copy; callers
// must not assume it aliases internal state.
func (h *History) All() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[len(h.entries)-1-i] = e
	}
	return out
}

// Latest returns the most recent entry, if any.
func (h *History) Latest() (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
