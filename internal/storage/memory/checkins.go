package memory

import (
	"context"
	"slices"
	"time"

	checkinmodels "rollcall/internal/checkin/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type CheckInStore struct {
	db *DB
}

func dayKey(day time.Time) string {
	return day.Format(time.DateOnly)
}

func (s *CheckInStore) Exists(ctx context.Context, participantID id.ParticipantID, eventID id.EventID, day time.Time) (bool, error) {
	var found bool
	err := s.db.read(ctx, func(t *tables) error {
		_, found = t.checkInKeys[checkInKey{participantID: participantID, eventID: eventID, day: dayKey(day)}]
		return nil
	})
	return found, err
}

// Insert records a check-in. A second log for the same participant, event and
// day returns sentinel.ErrAlreadyUsed.
func (s *CheckInStore) Insert(ctx context.Context, log *checkinmodels.CheckInLog) error {
	return s.db.write(ctx, func(t *tables) error {
		p, ok := t.participants[log.ParticipantID]
		if !ok || p.EventID != log.EventID {
			return sentinel.ErrNotFound
		}
		if _, ok := t.accounts[log.RecordedBy]; !ok {
			return sentinel.ErrNotFound
		}
		key := checkInKey{participantID: log.ParticipantID, eventID: log.EventID, day: dayKey(log.CheckInDate)}
		if _, exists := t.checkInKeys[key]; exists {
			return sentinel.ErrAlreadyUsed
		}
		row := *log
		t.checkIns[log.ID] = &row
		t.checkInKeys[key] = log.ID
		t.stamp(log.ID)
		return nil
	})
}

// ListHistoryByEvent returns every participant of the event, newest first,
// each with its check-ins newest first.
func (s *CheckInStore) ListHistoryByEvent(ctx context.Context, eventID id.EventID) ([]*checkinmodels.ParticipantHistory, error) {
	var out []*checkinmodels.ParticipantHistory
	err := s.db.read(ctx, func(t *tables) error {
		byParticipant := make(map[id.ParticipantID][]*checkinmodels.CheckInLog)
		for _, c := range t.checkIns {
			if c.EventID == eventID {
				row := *c
				byParticipant[c.ParticipantID] = append(byParticipant[c.ParticipantID], &row)
			}
		}
		participants := participantsOf(t, eventID)
		out = make([]*checkinmodels.ParticipantHistory, 0, len(participants))
		for _, p := range participants {
			logs := byParticipant[p.ID]
			sortNewestFirst(t, logs)
			if logs == nil {
				logs = []*checkinmodels.CheckInLog{}
			}
			out = append(out, &checkinmodels.ParticipantHistory{Participant: p, CheckIns: logs})
		}
		return nil
	})
	return out, err
}

// ListByEventOnDate returns the day's check-ins, newest first, joined with the
// participant and the recording account.
func (s *CheckInStore) ListByEventOnDate(ctx context.Context, eventID id.EventID, day time.Time) ([]*checkinmodels.DayEntry, error) {
	var out []*checkinmodels.DayEntry
	err := s.db.read(ctx, func(t *tables) error {
		want := dayKey(day)
		var logs []*checkinmodels.CheckInLog
		for _, c := range t.checkIns {
			if c.EventID == eventID && c.Day() == want {
				row := *c
				logs = append(logs, &row)
			}
		}
		sortNewestFirst(t, logs)
		out = make([]*checkinmodels.DayEntry, 0, len(logs))
		for _, c := range logs {
			p := *t.participants[c.ParticipantID]
			entry := &checkinmodels.DayEntry{CheckIn: c, Participant: &p}
			if acct, ok := t.accounts[c.RecordedBy]; ok {
				entry.Recorder = acct.Summary()
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

func sortNewestFirst(t *tables, logs []*checkinmodels.CheckInLog) {
	slices.SortFunc(logs, func(a, b *checkinmodels.CheckInLog) int {
		if c := b.CheckedInAt.Compare(a.CheckedInAt); c != 0 {
			return c
		}
		return compareSeq(t, b.ID, a.ID)
	})
}
