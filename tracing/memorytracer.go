package tracing

import "sync"

// MemoryTracer keeps the most recent records in memory.
type MemoryTracer struct {
	mu       sync.Mutex
	capacity int
	records  []Record
	dropped  uint64
}

// NewMemoryTracer creates a MemoryTracer. A capacity of 0 keeps every record.
func NewMemoryTracer(capacity int) *MemoryTracer {
	return &MemoryTracer{capacity: capacity}
}

// Trace stores the record, dropping the oldest one if the tracer is full.
func (t *MemoryTracer) Trace(r Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.capacity > 0 && len(t.records) == t.capacity {
		copy(t.records, t.records[1:])
		t.records = t.records[:len(t.records)-1]
		t.dropped++
	}

	t.records = append(t.records, r)
}

// Records returns a copy of the stored records, oldest first.
func (t *MemoryTracer) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Record, len(t.records))
	copy(out, t.records)

	return out
}

// Dropped returns the number of records discarded because of the capacity.
func (t *MemoryTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.dropped
}
