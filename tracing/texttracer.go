package tracing

import (
	"io"
	"sync"
)

// TextTracer writes one line per record. The output only depends on the
// simulation, so two runs of the same model produce identical traces.
type TextTracer struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewTextTracer creates a TextTracer writing into w.
func NewTextTracer(w io.Writer) *TextTracer {
	return &TextTracer{w: w}
}

// Trace writes the record.
func (t *TextTracer) Trace(r Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return
	}

	_, t.err = io.WriteString(t.w, Format(r))
}

// Err returns the first write error.
func (t *TextTracer) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}
