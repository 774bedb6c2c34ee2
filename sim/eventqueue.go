package sim

import (
	"container/heap"

	"github.com/sarchlab/vsim/event"
)

// scheduledCallback is a queue entry. The sequence number is assigned when
// the callback is scheduled and breaks ties between entries with equal time.
type scheduledCallback struct {
	time VTime
	seq  uint64
	cb   event.Callback
}

// callbackQueue is a stable priority queue of callbacks. The front of the queue
// is always the entry with the smallest (time, seq).
//
// The queue is only accessed from the goroutine that owns the baton, so it
// carries no lock.
type callbackQueue struct {
	entries callbackHeap
}

func newCallbackQueue() *callbackQueue {
	q := &callbackQueue{}
	q.entries = make(callbackHeap, 0)
	heap.Init(&q.entries)

	return q
}

func (q *callbackQueue) Push(c *scheduledCallback) {
	heap.Push(&q.entries, c)
}

func (q *callbackQueue) Pop() *scheduledCallback {
	if q.entries.Len() == 0 {
		return nil
	}

	return heap.Pop(&q.entries).(*scheduledCallback)
}

func (q *callbackQueue) Peek() *scheduledCallback {
	if q.entries.Len() == 0 {
		return nil
	}

	return q.entries[0]
}

func (q *callbackQueue) Len() int {
	return q.entries.Len()
}

func (q *callbackQueue) Clear() {
	for i := range q.entries {
		q.entries[i] = nil
	}

	q.entries = q.entries[:0]
}

type callbackHeap []*scheduledCallback

func (h callbackHeap) Len() int { return len(h) }

// Less orders entries by time and then by the order they were scheduled.
func (h callbackHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}

	return h[i].seq < h[j].seq
}

func (h callbackHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *callbackHeap) Push(x any) {
	*h = append(*h, x.(*scheduledCallback))
}

func (h *callbackHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return c
}
