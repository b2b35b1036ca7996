// Package audit records the lifecycle of ingest units so operators can tell
// which (title, snapshot date) units failed and why. A fetch gap surfaced
// here is what distinguishes "no data for 2019" from a true zero.
package audit

import (
	"context"
	"time"
)

// Event is one ingest unit state transition.
type Event struct {
	RunID     string    `json:"run_id"`
	Title     int       `json:"title"`
	Date      string    `json:"date"` // snapshot date, YYYY-MM-DD
	State     string    `json:"state"`
	Sections  int       `json:"sections,omitempty"`
	Error     string    `json:"error,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives audit events. Implementations must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher fans events out to every configured sink with fail-open
// semantics: a sink failure is logged by the caller's logger but never
// fails the ingest operation that emitted the event.
type Publisher struct {
	sinks []Sink
}

func NewPublisher(sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks}
}

// Emit delivers the event to all sinks, returning the first error after all
// sinks have been attempted.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	var firstErr error
	for _, s := range p.sinks {
		if err := s.Append(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
