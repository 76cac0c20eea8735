// Package domain holds the typed identifiers shared across modules.
//
// Each identifier is a distinct named type over uuid.UUID so an EventID can
// never be passed where an AccountID is expected. Parse functions are the only
// trust-boundary entry points and reject empty, malformed and nil UUIDs.
package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	dErrors "rollcall/pkg/domain-errors"
)

type (
	AccountID     uuid.UUID
	EventID       uuid.UUID
	ParticipantID uuid.UUID
	CheckInID     uuid.UUID
)

func NewAccountID() AccountID         { return AccountID(uuid.New()) }
func NewEventID() EventID             { return EventID(uuid.New()) }
func NewParticipantID() ParticipantID { return ParticipantID(uuid.New()) }
func NewCheckInID() CheckInID         { return CheckInID(uuid.New()) }

func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account")
	return AccountID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event")
	return EventID(u), err
}

func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID(s, "participant")
	return ParticipantID(u), err
}

func ParseCheckInID(s string) (CheckInID, error) {
	u, err := parseUUID(s, "check-in")
	return CheckInID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}

func (i AccountID) String() string { return uuid.UUID(i).String() }
func (i AccountID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i AccountID) MarshalText() ([]byte, error) {
	return uuid.UUID(i).MarshalText()
}
func (i *AccountID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i AccountID) Value() (driver.Value, error)  { return uuid.UUID(i).String(), nil }
func (i *AccountID) Scan(src any) error           { return (*uuid.UUID)(i).Scan(src) }

func (i EventID) String() string { return uuid.UUID(i).String() }
func (i EventID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i EventID) MarshalText() ([]byte, error) {
	return uuid.UUID(i).MarshalText()
}
func (i *EventID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i EventID) Value() (driver.Value, error)  { return uuid.UUID(i).String(), nil }
func (i *EventID) Scan(src any) error           { return (*uuid.UUID)(i).Scan(src) }

func (i ParticipantID) String() string { return uuid.UUID(i).String() }
func (i ParticipantID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i ParticipantID) MarshalText() ([]byte, error) {
	return uuid.UUID(i).MarshalText()
}
func (i *ParticipantID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i ParticipantID) Value() (driver.Value, error)  { return uuid.UUID(i).String(), nil }
func (i *ParticipantID) Scan(src any) error           { return (*uuid.UUID)(i).Scan(src) }

func (i CheckInID) String() string { return uuid.UUID(i).String() }
func (i CheckInID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i CheckInID) MarshalText() ([]byte, error) {
	return uuid.UUID(i).MarshalText()
}
func (i *CheckInID) UnmarshalText(b []byte) error { return (*uuid.UUID)(i).UnmarshalText(b) }
func (i CheckInID) Value() (driver.Value, error)  { return uuid.UUID(i).String(), nil }
func (i *CheckInID) Scan(src any) error           { return (*uuid.UUID)(i).Scan(src) }
