// Package tick provides a cooperative next-tick scheduler and a fixed-rate
// driver for it. A Queue is the host side of pool.Scheduler: callbacks queued
// during tick N run on tick N+1, never re-entrantly.
package tick

import "sync"

// Queue collects callbacks for the next tick.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	ticks   uint64
	closed  bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// NextTick schedules fn to run once on the next call to Tick.
// Requests after Close are ignored.
func (q *Queue) NextTick(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.pending = append(q.pending, fn)
}

// Tick runs, in FIFO order, the callbacks queued before it started and
// returns how many ran. Callbacks scheduled while the tick runs wait for the
// next one.
func (q *Queue) Tick() int {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	batch := q.pending
	q.pending = nil
	q.ticks++
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending returns the number of callbacks waiting for the next tick.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Ticks returns how many ticks have run.
func (q *Queue) Ticks() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ticks
}

// Drain ticks until nothing is pending or limit ticks have run, and returns the
// number of ticks it ran. A limit of 0 means no limit.
func (q *Queue) Drain(limit int) int {
	n := 0
	for q.Pending() > 0 {
		if limit > 0 && n >= limit {
			break
		}
		q.Tick()
		n++
	}
	return n
}

// Close drops pending callbacks; later NextTick and Tick calls do nothing.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.pending = nil
}
