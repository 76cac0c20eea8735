// Package service orchestrates searches and check-ins across the event
// directory, the identity gateway, the participant registry and the ledger.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	accountmodels "rollcall/internal/account/models"
	"rollcall/internal/attendance/models"
	checkinmodels "rollcall/internal/checkin/models"
	eventmodels "rollcall/internal/event/models"
	participantmodels "rollcall/internal/participant/models"
	"rollcall/internal/platform/device"
	"rollcall/internal/registry"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/audit"
	"rollcall/pkg/requestcontext"
)

type EventDirectory interface {
	GetEventForAccount(ctx context.Context, eventID id.EventID, acct *accountmodels.Account) (*eventmodels.Event, error)
}

type IdentityGateway interface {
	Lookup(ctx context.Context, acct *accountmodels.Account, event *eventmodels.Event, idNumber string) (*registry.CitizenRecord, error)
}

type ParticipantRegistry interface {
	ResolveForCheckIn(ctx context.Context, eventID id.EventID, idNumber string, in participantmodels.DemographicsInput) (*participantmodels.Participant, error)
}

type Ledger interface {
	RecordCheckIn(ctx context.Context, participantID id.ParticipantID, eventID id.EventID, recordedBy id.AccountID, when time.Time) (*checkinmodels.CheckInLog, error)
	ListForEvent(ctx context.Context, eventID id.EventID) ([]*checkinmodels.ParticipantHistory, error)
	ListForEventOnDate(ctx context.Context, eventID id.EventID, day time.Time) ([]*checkinmodels.DayEntry, error)
	ParseDay(raw string) (time.Time, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	events         EventDirectory
	gateway        IdentityGateway
	participants   ParticipantRegistry
	ledger         Ledger
	tx             TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(events EventDirectory, gateway IdentityGateway, participants ParticipantRegistry, ledger Ledger, tx TxRunner, opts ...Option) (*Service, error) {
	switch {
	case events == nil:
		return nil, errors.New("event directory is required")
	case gateway == nil:
		return nil, errors.New("identity gateway is required")
	case participants == nil:
		return nil, errors.New("participant registry is required")
	case ledger == nil:
		return nil, errors.New("check-in ledger is required")
	case tx == nil:
		return nil, errors.New("tx runner is required")
	}
	s := &Service{
		events:       events,
		gateway:      gateway,
		participants: participants,
		ledger:       ledger,
		tx:           tx,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search verifies an identity number against the registry within the event's
// location. Nothing is stored.
func (s *Service) Search(ctx context.Context, acct *accountmodels.Account, req models.SearchRequest) (*registry.CitizenRecord, error) {
	event, err := s.events.GetEventForAccount(ctx, req.EventID, acct)
	if err != nil {
		return nil, err
	}
	record, err := s.gateway.Lookup(ctx, acct, event, req.IDNumber)
	switch {
	case err == nil:
		s.emit(ctx, audit.Event{
			Action:        string(audit.EventIdentityVerified),
			ActorID:       acct.ID.String(),
			EventID:       event.ID.String(),
			Decision:      "found",
			SubjectIDHash: audit.HashSubjectID(record.IDNumber),
		})
		return record, nil
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		s.emit(ctx, audit.Event{
			Action:   string(audit.EventIdentityVerified),
			ActorID:  acct.ID.String(),
			EventID:  event.ID.String(),
			Decision: "not_found",
		})
	case dErrors.HasCode(err, dErrors.CodeRateLimited):
		s.emit(ctx, audit.Event{
			Action:   string(audit.EventLookupRateLimited),
			ActorID:  acct.ID.String(),
			EventID:  event.ID.String(),
			Decision: "denied",
		})
	}
	return nil, err
}

// CheckIn upserts the participant and records today's attendance in one
// transaction. A rejected duplicate rolls back the demographic overwrite, so
// only accepted check-ins change the participant.
func (s *Service) CheckIn(ctx context.Context, acct *accountmodels.Account, req models.CheckInRequest) (*models.CheckInResult, error) {
	event, err := s.events.GetEventForAccount(ctx, req.EventID, acct)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if _, err := participantmodels.ParseDemographics(req.Demographics, now); err != nil {
		return nil, err
	}

	deviceLabel := device.ParseUserAgent(requestcontext.UserAgent(ctx))
	subjectHash := audit.HashSubjectID(req.IDNumber)
	if idNumber, err := participantmodels.NormalizeIDNumber(req.IDNumber); err == nil {
		subjectHash = audit.HashSubjectID(idNumber)
	}

	var result models.CheckInResult
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.participants.ResolveForCheckIn(txCtx, event.ID, req.IDNumber, req.Demographics)
		if err != nil {
			return err
		}
		log, err := s.ledger.RecordCheckIn(txCtx, p.ID, event.ID, acct.ID, now)
		if err != nil {
			return err
		}
		if s.auditPublisher != nil {
			if err := s.auditPublisher.Emit(txCtx, audit.Event{
				Action:        string(audit.EventCheckInRecorded),
				ActorID:       acct.ID.String(),
				EventID:       event.ID.String(),
				Subject:       p.ID.String(),
				Decision:      "recorded",
				Device:        deviceLabel,
				SubjectIDHash: subjectHash,
			}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write check-in audit record")
			}
		}
		result = models.CheckInResult{CheckIn: log, Participant: p}
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeAlreadyCheckedIn) {
			s.emit(ctx, audit.Event{
				Action:        string(audit.EventCheckInRejected),
				ActorID:       acct.ID.String(),
				EventID:       event.ID.String(),
				Decision:      "rejected",
				Reason:        "already checked in today",
				Device:        deviceLabel,
				SubjectIDHash: subjectHash,
			})
			return nil, err
		}
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record check-in")
	}

	s.logger.InfoContext(ctx, "check-in recorded",
		"event_id", event.ID.String(),
		"participant_id", result.Participant.ID.String(),
		"check_in_date", result.CheckIn.Day(),
		"actor_id", acct.ID.String(),
		"device", deviceLabel,
	)
	return &result, nil
}

// History returns every participant of the event with all check-ins.
func (s *Service) History(ctx context.Context, acct *accountmodels.Account, eventID id.EventID) ([]*checkinmodels.ParticipantHistory, error) {
	if _, err := s.events.GetEventForAccount(ctx, eventID, acct); err != nil {
		return nil, err
	}
	return s.ledger.ListForEvent(ctx, eventID)
}

// DayLog returns the check-ins of one calendar day, given as YYYY-MM-DD.
func (s *Service) DayLog(ctx context.Context, acct *accountmodels.Account, eventID id.EventID, date string) ([]*checkinmodels.DayEntry, error) {
	if _, err := s.events.GetEventForAccount(ctx, eventID, acct); err != nil {
		return nil, err
	}
	day, err := s.ledger.ParseDay(date)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListForEventOnDate(ctx, eventID, day)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
