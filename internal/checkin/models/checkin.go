package models

import (
	"time"

	accountmodels "rollcall/internal/account/models"
	participantmodels "rollcall/internal/participant/models"
	id "rollcall/pkg/domain"
)

// CheckInLog records one attendance credit. At most one log exists per
// (ParticipantID, EventID, CheckInDate); storage enforces it.
type CheckInLog struct {
	ID            id.CheckInID     `json:"id"`
	ParticipantID id.ParticipantID `json:"participantId"`
	EventID       id.EventID       `json:"eventId"`
	CheckInDate   time.Time        `json:"-"`
	CheckedInAt   time.Time        `json:"checkedInAt"`
	RecordedBy    id.AccountID     `json:"recordedBy"`
}

// Day returns the calendar day as YYYY-MM-DD.
func (l *CheckInLog) Day() string {
	return l.CheckInDate.Format(time.DateOnly)
}

// ParticipantHistory is a participant with every check-in recorded for it,
// newest first.
type ParticipantHistory struct {
	Participant *participantmodels.Participant
	CheckIns    []*CheckInLog
}

// DayEntry is one check-in on a given day joined with the participant as it
// currently stands and the account that recorded it.
type DayEntry struct {
	CheckIn     *CheckInLog
	Participant *participantmodels.Participant
	Recorder    accountmodels.Summary
}

// CalendarDay normalizes t to midnight of its calendar day in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
