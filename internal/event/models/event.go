package models

import (
	"strings"
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// Event is a location-scoped gathering owned by exactly one Owner account.
//
// Invariants:
//   - Name and Region are non-empty
//   - LocalRegion is only set when MidRegion is set
//   - OwnerID never changes after creation
//
// Deleting an event removes its participants and their check-in logs.
type Event struct {
	ID          id.EventID   `json:"id"`
	Name        string       `json:"name"`
	Region      string       `json:"region"`
	MidRegion   string       `json:"midRegion,omitempty"`
	LocalRegion string       `json:"localRegion,omitempty"`
	OwnerID     id.AccountID `json:"ownerId"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// CreateEventRequest is the POST /events payload.
type CreateEventRequest struct {
	Name        string `json:"name"`
	Region      string `json:"region"`
	MidRegion   string `json:"midRegion,omitempty"`
	LocalRegion string `json:"localRegion,omitempty"`
}

func (r *CreateEventRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Region = strings.TrimSpace(r.Region)
	r.MidRegion = strings.TrimSpace(r.MidRegion)
	r.LocalRegion = strings.TrimSpace(r.LocalRegion)
}

// DeleteResult reports what a cascading delete removed.
type DeleteResult struct {
	EventID      id.EventID `json:"eventId"`
	Participants int        `json:"participants"`
	CheckIns     int        `json:"checkIns"`
}

const maxNameLength = 200

func NewEvent(eventID id.EventID, req CreateEventRequest, ownerID id.AccountID, now time.Time) (*Event, error) {
	req.Normalize()
	if req.Name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event name cannot be empty")
	}
	if len(req.Name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event name must be 200 characters or less")
	}
	if req.Region == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event region is required")
	}
	if req.LocalRegion != "" && req.MidRegion == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "localRegion requires midRegion")
	}
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event owner is required")
	}
	return &Event{
		ID:          eventID,
		Name:        req.Name,
		Region:      req.Region,
		MidRegion:   req.MidRegion,
		LocalRegion: req.LocalRegion,
		OwnerID:     ownerID,
		CreatedAt:   now,
	}, nil
}
