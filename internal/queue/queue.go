// Package queue provides the fixed-capacity FIFO channels connecting the
// acquisition adapters, the fusion worker and its consumers. A queue is safe
// for any number of concurrent producers and consumers; FIFO order is
// guaranteed per producer.
package queue

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrFull is returned by Put when the queue stayed full for the whole
	// timeout. Transient backpressure, not fatal: the caller decides drop
	// versus retry.
	ErrFull = errors.New("queue full")
	// ErrEmpty is returned by Get when no item arrived within the timeout,
	// letting workers poll a shutdown flag between attempts.
	ErrEmpty = errors.New("queue empty")
)

// Queue is a bounded FIFO with blocking-with-timeout put and get.
type Queue[T any] struct {
	ch chan T
}

// New creates a queue with the given fixed capacity. Capacity must be
// positive; a bad capacity is a startup error, never a mid-run one.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d", capacity)
	}
	return &Queue[T]{ch: make(chan T, capacity)}, nil
}

// Put appends item, waiting up to timeout for space. A zero or negative
// timeout makes the attempt non-blocking.
func (q *Queue[T]) Put(item T, timeout time.Duration) error {
	select {
	case q.ch <- item:
		return nil
	default:
	}
	if timeout <= 0 {
		return ErrFull
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case q.ch <- item:
		return nil
	case <-t.C:
		return ErrFull
	}
}

// PutLatest appends item, evicting the oldest queued item if the queue is
// full. Used for the display channel, where the newest snapshot always wins.
func (q *Queue[T]) PutLatest(item T) {
	for {
		select {
		case q.ch <- item:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// Get removes and returns the oldest item, waiting up to timeout. A zero or
// negative timeout makes the attempt non-blocking.
func (q *Queue[T]) Get(timeout time.Duration) (T, error) {
	var zero T
	select {
	case item := <-q.ch:
		return item, nil
	default:
	}
	if timeout <= 0 {
		return zero, ErrEmpty
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case item := <-q.ch:
		return item, nil
	case <-t.C:
		return zero, ErrEmpty
	}
}

// TryGet removes and returns the oldest item without blocking.
func (q *Queue[T]) TryGet() (T, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of currently queued items.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int { return cap(q.ch) }
