package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events by run ID. It backs the admin API's run-status
// endpoint and the tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RunID] = append(s.events[event.RunID], event)
	return nil
}

// ListByRun returns all events for one ingest run in emission order.
func (s *InMemoryStore) ListByRun(_ context.Context, runID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[runID]...), nil
}
