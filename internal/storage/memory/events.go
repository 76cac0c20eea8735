package memory

import (
	"context"
	"slices"

	eventmodels "rollcall/internal/event/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type EventStore struct {
	db *DB
}

func (s *EventStore) Create(ctx context.Context, event *eventmodels.Event) error {
	return s.db.write(ctx, func(t *tables) error {
		if _, exists := t.events[event.ID]; exists {
			return sentinel.ErrAlreadyUsed
		}
		if _, ok := t.accounts[event.OwnerID]; !ok {
			return sentinel.ErrNotFound
		}
		row := *event
		t.events[event.ID] = &row
		t.stamp(event.ID)
		return nil
	})
}

func (s *EventStore) FindByID(ctx context.Context, eventID id.EventID) (*eventmodels.Event, error) {
	var out *eventmodels.Event
	err := s.db.read(ctx, func(t *tables) error {
		event, ok := t.events[eventID]
		if !ok {
			return sentinel.ErrNotFound
		}
		row := *event
		out = &row
		return nil
	})
	return out, err
}

// ListByOwner returns the owner's events, newest first.
func (s *EventStore) ListByOwner(ctx context.Context, ownerID id.AccountID) ([]*eventmodels.Event, error) {
	out := []*eventmodels.Event{}
	err := s.db.read(ctx, func(t *tables) error {
		for _, event := range t.events {
			if event.OwnerID == ownerID {
				row := *event
				out = append(out, &row)
			}
		}
		slices.SortFunc(out, func(a, b *eventmodels.Event) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return compareSeq(t, b.ID, a.ID)
		})
		return nil
	})
	return out, err
}

// LockForDelete reports what deleting the event would remove. Inside a
// transaction the counts stay accurate until Delete runs.
func (s *EventStore) LockForDelete(ctx context.Context, eventID id.EventID) (*eventmodels.DeleteResult, error) {
	var out *eventmodels.DeleteResult
	err := s.db.read(ctx, func(t *tables) error {
		if _, ok := t.events[eventID]; !ok {
			return sentinel.ErrNotFound
		}
		res := &eventmodels.DeleteResult{EventID: eventID}
		for _, p := range t.participants {
			if p.EventID == eventID {
				res.Participants++
			}
		}
		for _, c := range t.checkIns {
			if c.EventID == eventID {
				res.CheckIns++
			}
		}
		out = res
		return nil
	})
	return out, err
}

// Delete removes the event with its participants and check-ins.
func (s *EventStore) Delete(ctx context.Context, eventID id.EventID) error {
	return s.db.write(ctx, func(t *tables) error {
		if _, ok := t.events[eventID]; !ok {
			return sentinel.ErrNotFound
		}
		for key, checkInID := range t.checkInKeys {
			if key.eventID == eventID {
				delete(t.checkInKeys, key)
				delete(t.checkIns, checkInID)
				delete(t.seq, checkInID)
			}
		}
		for key, participantID := range t.participantKeys {
			if key.eventID == eventID {
				delete(t.participantKeys, key)
				delete(t.participants, participantID)
				delete(t.seq, participantID)
			}
		}
		delete(t.events, eventID)
		delete(t.seq, eventID)
		return nil
	})
}
