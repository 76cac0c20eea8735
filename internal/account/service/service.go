package service

import (
	"context"
	"errors"
	"log/slog"

	"rollcall/internal/account/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/audit"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, acct *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	ListDelegates(ctx context.Context, ownerID id.AccountID) ([]*models.Account, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages owner and delegate accounts. Credentials live elsewhere;
// this only keeps the data the access rules need.
type Service struct {
	store          Store
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

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) CreateOwner(ctx context.Context, name, email string) (*models.Account, error) {
	acct, err := models.NewOwner(id.NewAccountID(), name, email, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	if err := s.store.Create(ctx, acct); err != nil {
		return nil, s.translateCreateError(err)
	}
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventAccountCreated),
		ActorID: acct.ID.String(),
		Subject: string(acct.Role),
	})
	return acct, nil
}

// AttachDelegate creates a delegate working on behalf of ownerID. The owner
// must be a top-level owner.
func (s *Service) AttachDelegate(ctx context.Context, ownerID id.AccountID, name, email string) (*models.Account, error) {
	owner, err := s.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	acct, err := models.NewDelegate(id.NewAccountID(), name, email, owner, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	if err := s.store.Create(ctx, acct); err != nil {
		return nil, s.translateCreateError(err)
	}
	s.emit(ctx, audit.Event{
		Action:  string(audit.EventDelegateAttached),
		ActorID: owner.ID.String(),
		Subject: acct.ID.String(),
	})
	return acct, nil
}

func (s *Service) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	acct, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return acct, nil
}

func (s *Service) ListDelegates(ctx context.Context, ownerID id.AccountID) ([]*models.Account, error) {
	delegates, err := s.store.ListDelegates(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list delegates")
	}
	return delegates, nil
}

func (s *Service) translateCreateError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "owner not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeValidation, "delegates can only be attached to a top-level owner")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
}

// Convert invariant violations to validation errors for API response
func toValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		de, _ := dErrors.As(err)
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
