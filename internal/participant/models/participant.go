package models

import (
	"strings"
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Participant is an individual registered against one event, keyed by
// (EventID, IDNumber). Demographics are replaced by every accepted check-in.
type Participant struct {
	ID        id.ParticipantID `json:"id"`
	EventID   id.EventID       `json:"eventId"`
	IDNumber  string           `json:"idNumber"`
	Demographics
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Demographics are caller-supplied and not verified against the registry.
type Demographics struct {
	Name        string `json:"name"`
	DateOfBirth Date   `json:"dateOfBirth"`
	Sex         string `json:"sex"`
	Region      string `json:"region,omitempty"`
	MidRegion   string `json:"midRegion,omitempty"`
	LocalRegion string `json:"localRegion,omitempty"`
}

// DemographicsInput is the raw form posted by clients.
type DemographicsInput struct {
	Name        string
	DateOfBirth string
	Sex         string
	Region      string
	MidRegion   string
	LocalRegion string
}

// ParseDemographics validates the raw input. today bounds the date of birth.
func ParseDemographics(in DemographicsInput, today time.Time) (Demographics, error) {
	name := strings.TrimSpace(in.Name)
	sex := strings.TrimSpace(in.Sex)
	if name == "" {
		return Demographics{}, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if sex == "" {
		return Demographics{}, dErrors.New(dErrors.CodeValidation, "sex is required")
	}
	dob, err := parseDate(strings.TrimSpace(in.DateOfBirth))
	if err != nil {
		return Demographics{}, err
	}
	if dob.After(NewDate(today).Time) {
		return Demographics{}, dErrors.New(dErrors.CodeValidation, "dateOfBirth cannot be in the future")
	}
	return Demographics{
		Name:        name,
		DateOfBirth: Date{Time: dob},
		Sex:         sex,
		Region:      strings.TrimSpace(in.Region),
		MidRegion:   strings.TrimSpace(in.MidRegion),
		LocalRegion: strings.TrimSpace(in.LocalRegion),
	}, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp and keeps only
// the date.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "dateOfBirth is required")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "dateOfBirth must be YYYY-MM-DD")
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// NormalizeIDNumber trims surrounding whitespace. The registry is the
// authority on format so nothing else is rewritten.
func NormalizeIDNumber(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "idNumber is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeValidation, "idNumber must be 64 characters or less")
	}
	return s, nil
}

// Date is a calendar date rendered as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+time.DateOnly+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
