package models

import (
	checkinmodels "rollcall/internal/checkin/models"
	participantmodels "rollcall/internal/participant/models"
	id "rollcall/pkg/domain"
)

// SearchRequest asks the registry about one identity number in the context of
// an event.
type SearchRequest struct {
	EventID  id.EventID
	IDNumber string
}

// CheckInRequest carries the demographics a field agent submits with a
// check-in. They are stored as given and not verified against the registry.
type CheckInRequest struct {
	EventID      id.EventID
	IDNumber     string
	Demographics participantmodels.DemographicsInput
}

type CheckInResult struct {
	CheckIn     *checkinmodels.CheckInLog
	Participant *participantmodels.Participant
}
