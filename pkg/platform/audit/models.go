package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventCategory classifies audit events by retention and delivery guarantees.
type EventCategory string

const (
	// CategoryCompliance events must be persisted before the action they
	// describe takes effect. Publishing failures abort the action.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access denials and account hierarchy changes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity. Publishing is best effort.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventAccountCreated    AuditEvent = "account_created"
	EventDelegateAttached  AuditEvent = "delegate_attached"
	EventEventCreated      AuditEvent = "event_created"
	EventEventDeleted      AuditEvent = "event_deleted"
	EventAccessDenied      AuditEvent = "access_denied"
	EventIdentityVerified  AuditEvent = "participant_verified"
	EventCheckInRecorded   AuditEvent = "check_in_recorded"
	EventCheckInRejected   AuditEvent = "check_in_rejected"
	EventLookupRateLimited AuditEvent = "lookup_rate_limited"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventEventDeleted:      CategoryCompliance,
	EventCheckInRecorded:   CategoryCompliance,
	EventAccountCreated:    CategorySecurity,
	EventDelegateAttached:  CategorySecurity,
	EventAccessDenied:      CategorySecurity,
	EventLookupRateLimited: CategorySecurity,
	EventEventCreated:      CategoryOperations,
	EventIdentityVerified:  CategoryOperations,
	EventCheckInRejected:   CategoryOperations,
}

// Category returns the category for the event. Unknown events default to
// CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// ActorID is the account that performed the action.
	ActorID string `json:"actor_id"`
	// EventID scopes the action to a check-in event, when there is one.
	EventID   string `json:"event_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Device    string `json:"device,omitempty"`
	// SubjectIDHash is a SHA-256 of the participant's identity number. The
	// raw number never enters the audit trail.
	SubjectIDHash string `json:"subject_id_hash,omitempty"`
	// Counts carries cascade sizes for deletions.
	Counts map[string]int `json:"counts,omitempty"`
}

// HashSubjectID returns the hex SHA-256 of an identity number.
func HashSubjectID(idNumber string) string {
	if idNumber == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(idNumber))
	return hex.EncodeToString(sum[:])
}
