package memory

import (
	"context"
	"slices"

	participantmodels "rollcall/internal/participant/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type ParticipantStore struct {
	db *DB
}

// Upsert inserts p or, when (EventID, IDNumber) already exists, overwrites
// the demographics of the existing row. The stored row is returned; its ID
// and CreatedAt never change.
func (s *ParticipantStore) Upsert(ctx context.Context, p *participantmodels.Participant) (*participantmodels.Participant, error) {
	var out *participantmodels.Participant
	err := s.db.write(ctx, func(t *tables) error {
		if _, ok := t.events[p.EventID]; !ok {
			return sentinel.ErrNotFound
		}
		key := participantKey{eventID: p.EventID, idNumber: p.IDNumber}
		if existingID, ok := t.participantKeys[key]; ok {
			row := *t.participants[existingID]
			row.Demographics = p.Demographics
			row.UpdatedAt = p.UpdatedAt
			t.participants[existingID] = &row
			copied := row
			out = &copied
			return nil
		}
		row := *p
		t.participants[p.ID] = &row
		t.participantKeys[key] = p.ID
		t.stamp(p.ID)
		copied := row
		out = &copied
		return nil
	})
	return out, err
}

func (s *ParticipantStore) FindByKey(ctx context.Context, eventID id.EventID, idNumber string) (*participantmodels.Participant, error) {
	var out *participantmodels.Participant
	err := s.db.read(ctx, func(t *tables) error {
		participantID, ok := t.participantKeys[participantKey{eventID: eventID, idNumber: idNumber}]
		if !ok {
			return sentinel.ErrNotFound
		}
		row := *t.participants[participantID]
		out = &row
		return nil
	})
	return out, err
}

// ListByEvent returns the event's participants, newest first.
func (s *ParticipantStore) ListByEvent(ctx context.Context, eventID id.EventID) ([]*participantmodels.Participant, error) {
	var out []*participantmodels.Participant
	err := s.db.read(ctx, func(t *tables) error {
		out = participantsOf(t, eventID)
		return nil
	})
	return out, err
}

func participantsOf(t *tables, eventID id.EventID) []*participantmodels.Participant {
	out := []*participantmodels.Participant{}
	for _, p := range t.participants {
		if p.EventID == eventID {
			row := *p
			out = append(out, &row)
		}
	}
	slices.SortFunc(out, func(a, b *participantmodels.Participant) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareSeq(t, b.ID, a.ID)
	})
	return out
}
