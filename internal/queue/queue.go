// Package queue provides an unbounded, growable FIFO used wherever a
// producer and consumer run at independent rates and data loss is worse
// than latency: the pipeline's IQ and PCM handoffs, and the ASR worker's
// audio FIFO. It is the Go-native stand-in for the original pipeline's
// plain queue.Queue() buffers.
package queue

import (
	"sync"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// WarnDepth and LogDepth match operators.py's shared PCM buffer backpressure
// heuristic: depth > WarnDepth logs a warning, depth > LogDepth (but <=
// WarnDepth) logs at info level. Below that, growth is unremarkable.
const (
	WarnDepth = 10
	LogDepth  = 5
)

// Queue is an unbounded FIFO. Push never blocks and never drops; backpressure
// is surfaced purely through depth-threshold logging, never by discarding
// data.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	name  string

	logger logging.Logger
}

// New builds an empty Queue. name identifies the queue in backpressure log
// lines (e.g. "channel 3 IQ input").
func New[T any](name string, logger logging.Logger) *Queue[T] {
	return &Queue[T]{name: name, logger: logger}
}

// Push appends v to the tail of the queue. It never blocks and never drops.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	depth := len(q.items)
	q.mu.Unlock()

	switch {
	case depth > WarnDepth:
		q.logger.Warnf("%s: queue backpressure, depth %d", q.name, depth)
	case depth > LogDepth:
		q.logger.Infof("%s: queue growing, depth %d", q.name, depth)
	}
}

// TryPop removes and returns the head of the queue. ok is false if the
// queue is empty. Non-blocking, for poll-style consumers.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return v, false
	}
	v = q.items[0]
	q.items[0] = *new(T)
	q.items = q.items[1:]
	return v, true
}

// Len reports the current queue depth.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
