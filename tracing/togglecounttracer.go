package tracing

import "sync"

// ToggleCountTracer counts value changes and triggers per name. The counts
// approximate the switching activity of each net.
type ToggleCountTracer struct {
	lock   sync.Mutex
	names  []string
	counts map[string]uint64
}

// NewToggleCountTracer creates a ToggleCountTracer.
func NewToggleCountTracer() *ToggleCountTracer {
	return &ToggleCountTracer{
		counts: make(map[string]uint64),
	}
}

// Trace counts the record.
func (t *ToggleCountTracer) Trace(r Record) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.counts[r.Name]; !ok {
		t.names = append(t.names, r.Name)
	}

	t.counts[r.Name]++
}

// Names returns the traced names in order of first appearance.
func (t *ToggleCountTracer) Names() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.names...)
}

// Count returns the number of records seen for name.
func (t *ToggleCountTracer) Count(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[name]
}
