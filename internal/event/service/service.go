package service

import (
	"context"
	"errors"
	"log/slog"

	accountmodels "rollcall/internal/account/models"
	"rollcall/internal/event/metrics"
	"rollcall/internal/event/models"
	"rollcall/internal/policy"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/audit"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	ListByOwner(ctx context.Context, ownerID id.AccountID) ([]*models.Event, error)
	LockForDelete(ctx context.Context, eventID id.EventID) (*models.DeleteResult, error)
	Delete(ctx context.Context, eventID id.EventID) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the event directory. Every call takes the acting account
// explicitly; nothing is read from ambient request state.
type Service struct {
	store          Store
	tx             TxRunner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, tx TxRunner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if tx == nil {
		return nil, errors.New("tx runner is required")
	}
	s := &Service{store: store, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateEvent registers an event owned by the calling owner.
func (s *Service) CreateEvent(ctx context.Context, acct *accountmodels.Account, req models.CreateEventRequest) (*models.Event, error) {
	if !acct.IsOwner() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only owners can create events")
	}
	event, err := models.NewEvent(id.NewEventID(), req, acct.ID, requestcontext.Now(ctx))
	if err != nil {
		if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
			return nil, dErrors.New(dErrors.CodeValidation, de.Message)
		}
		return nil, err
	}
	if err := s.store.Create(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create event")
	}
	s.metrics.IncrementCreated()
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventEventCreated),
		ActorID: acct.ID.String(),
		EventID: event.ID.String(),
	})
	return event, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	event, err := s.store.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	return event, nil
}

// GetEventForAccount resolves the event and applies the access rule. Absence
// is reported before denial.
func (s *Service) GetEventForAccount(ctx context.Context, eventID id.EventID, acct *accountmodels.Account) (*models.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccess(event, acct) {
		s.denied(ctx, event, acct, "not owner or delegate of event owner")
		return nil, dErrors.New(dErrors.CodeForbidden, "access to event denied")
	}
	return event, nil
}

// ListEvents returns the events the account works on, newest first.
func (s *Service) ListEvents(ctx context.Context, acct *accountmodels.Account) ([]*models.Event, error) {
	ownerID, ok := acct.ScopeOwnerID()
	if !ok {
		return []*models.Event{}, nil
	}
	events, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// DeleteEvent removes the event with its participants and check-in logs. The
// compliance audit record is written first, inside the same transaction; if it
// cannot be written nothing is deleted.
func (s *Service) DeleteEvent(ctx context.Context, eventID id.EventID, acct *accountmodels.Account) (*models.DeleteResult, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanDelete(event, acct) {
		s.denied(ctx, event, acct, "only the creating owner may delete")
		return nil, dErrors.New(dErrors.CodeForbidden, "only the event owner can delete this event")
	}

	var result *models.DeleteResult
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		counts, err := s.store.LockForDelete(txCtx, eventID)
		if err != nil {
			return err
		}
		if s.auditPublisher != nil {
			if err := s.auditPublisher.Emit(txCtx, audit.Event{
				Action:  string(audit.EventEventDeleted),
				ActorID: acct.ID.String(),
				EventID: eventID.String(),
				Subject: event.Name,
				Counts: map[string]int{
					"participants": counts.Participants,
					"check_ins":    counts.CheckIns,
				},
			}); err != nil {
				return err
			}
		}
		if err := s.store.Delete(txCtx, eventID); err != nil {
			return err
		}
		result = counts
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete event")
	}

	s.metrics.ObserveDeleted(result.Participants, result.CheckIns)
	s.logger.InfoContext(ctx, "event deleted",
		"event_id", eventID.String(),
		"actor_id", acct.ID.String(),
		"participants", result.Participants,
		"check_ins", result.CheckIns,
	)
	return result, nil
}

func (s *Service) denied(ctx context.Context, event *models.Event, acct *accountmodels.Account, reason string) {
	actor := ""
	if acct != nil {
		actor = acct.ID.String()
	}
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventAccessDenied),
		ActorID:  actor,
		EventID:  event.ID.String(),
		Decision: "denied",
		Reason:   reason,
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
