package service

import (
	"context"
	"errors"
	"log/slog"

	"rollcall/internal/participant/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

type Store interface {
	Upsert(ctx context.Context, p *models.Participant) (*models.Participant, error)
	FindByKey(ctx context.Context, eventID id.EventID, idNumber string) (*models.Participant, error)
	ListByEvent(ctx context.Context, eventID id.EventID) ([]*models.Participant, error)
}

// Service keeps one participant row per (event, id number).
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("participant store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ResolveForCheckIn validates the submitted demographics and upserts the
// participant. An existing row keeps its ID and has every demographic field
// replaced.
func (s *Service) ResolveForCheckIn(ctx context.Context, eventID id.EventID, idNumber string, in models.DemographicsInput) (*models.Participant, error) {
	idNumber, err := models.NormalizeIDNumber(idNumber)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	demographics, err := models.ParseDemographics(in, now)
	if err != nil {
		return nil, err
	}

	p, err := s.store.Upsert(ctx, &models.Participant{
		ID:           id.NewParticipantID(),
		EventID:      eventID,
		IDNumber:     idNumber,
		Demographics: demographics,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save participant")
	}
	return p, nil
}

func (s *Service) FindByKey(ctx context.Context, eventID id.EventID, idNumber string) (*models.Participant, error) {
	idNumber, err := models.NormalizeIDNumber(idNumber)
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindByKey(ctx, eventID, idNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "participant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participant")
	}
	return p, nil
}

// ListByEvent returns the event's participants, newest first.
func (s *Service) ListByEvent(ctx context.Context, eventID id.EventID) ([]*models.Participant, error) {
	list, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participants")
	}
	return list, nil
}
