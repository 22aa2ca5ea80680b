package ingress

import (
	"context"
	"time"

	"github.com/harunnryd/hibiki/internal/errors"
)

// Queue is a bounded inbound event buffer. Adapters submit into it from their
// own goroutines; the dispatch loop drains it non-blockingly between ticks.
type Queue struct {
	events       chan Event
	submitWindow time.Duration
}

func NewQueue(size int, submitWindow time.Duration) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		events:       make(chan Event, size),
		submitWindow: submitWindow,
	}
}

// Submit enqueues an event, waiting at most the configured submit window when
// the buffer is full.
func (q *Queue) Submit(ctx context.Context, evt Event) error {
	select {
	case q.events <- evt:
		return nil
	default:
	}

	timer := time.NewTimer(q.submitWindow)
	defer timer.Stop()

	select {
	case q.events <- evt:
		return nil
	case <-timer.C:
		return errors.Transient("inbound queue full")
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "submit cancelled")
	}
}

// Poll returns the next queued event without blocking.
func (q *Queue) Poll() (Event, bool) {
	select {
	case evt := <-q.events:
		return evt, true
	default:
		return Event{}, false
	}
}

// Len reports the number of buffered events.
func (q *Queue) Len() int {
	return len(q.events)
}
