package memory

import (
	"context"
	"sync"

	audit "rollcall/pkg/platform/audit"
)

// InMemoryStore keeps audit events in process. It backs development runs and
// lets tests assert on what was emitted.
type InMemoryStore struct {
	mu      sync.RWMutex
	events  []audit.Event
	failFor map[string]error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{failFor: make(map[string]error)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[event.Action]; ok {
		return err
	}
	s.events = append(s.events, event)
	return nil
}

// FailOn makes Append return err for the given action. Tests use it to
// exercise fail-closed paths.
func (s *InMemoryStore) FailOn(action audit.AuditEvent, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFor[string(action)] = err
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

func (s *InMemoryStore) ListByAction(_ context.Context, action audit.AuditEvent) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Action == string(action) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.failFor = make(map[string]error)
}
