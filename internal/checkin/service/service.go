package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rollcall/internal/checkin/metrics"
	"rollcall/internal/checkin/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

var tracer = otel.Tracer("rollcall/internal/checkin")

type Store interface {
	Exists(ctx context.Context, participantID id.ParticipantID, eventID id.EventID, day time.Time) (bool, error)
	Insert(ctx context.Context, log *models.CheckInLog) error
	ListHistoryByEvent(ctx context.Context, eventID id.EventID) ([]*models.ParticipantHistory, error)
	ListByEventOnDate(ctx context.Context, eventID id.EventID, day time.Time) ([]*models.DayEntry, error)
}

// Service is the append-only attendance ledger. At most one log exists per
// participant, event and calendar day in the reporting location.
type Service struct {
	store    Store
	location *time.Location
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocation sets the time zone that defines a calendar day. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("check-in store is required")
	}
	s := &Service{store: store, location: time.UTC, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Location() *time.Location {
	return s.location
}

// RecordCheckIn appends a log for the participant on the calendar day of when.
// A second attempt on the same day fails with CodeAlreadyCheckedIn; it is never
// retried or reported as success.
func (s *Service) RecordCheckIn(ctx context.Context, participantID id.ParticipantID, eventID id.EventID, recordedBy id.AccountID, when time.Time) (*models.CheckInLog, error) {
	day := models.CalendarDay(when, s.location)
	ctx, span := tracer.Start(ctx, "checkin.record",
		trace.WithAttributes(
			attribute.String("event.id", eventID.String()),
			attribute.String("checkin.day", day.Format(time.DateOnly)),
		),
	)
	defer span.End()

	exists, err := s.store.Exists(ctx, participantID, eventID, day)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exists check failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing check-in")
	}
	if exists {
		return nil, s.duplicate(ctx, span)
	}

	log := &models.CheckInLog{
		ID:            id.NewCheckInID(),
		ParticipantID: participantID,
		EventID:       eventID,
		CheckInDate:   day,
		CheckedInAt:   when,
		RecordedBy:    recordedBy,
	}
	if err := s.store.Insert(ctx, log); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, s.duplicate(ctx, span)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "participant not found for event")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record check-in")
	}
	s.metrics.IncrementRecorded()
	return log, nil
}

func (s *Service) duplicate(ctx context.Context, span trace.Span) error {
	s.metrics.IncrementDuplicate()
	span.SetAttributes(attribute.Bool("checkin.duplicate", true))
	s.logger.DebugContext(ctx, "duplicate check-in rejected")
	return dErrors.New(dErrors.CodeAlreadyCheckedIn, "participant already checked in today")
}

// ListForEvent returns every participant of the event, newest first, each with
// its check-ins newest first.
func (s *Service) ListForEvent(ctx context.Context, eventID id.EventID) ([]*models.ParticipantHistory, error) {
	history, err := s.store.ListHistoryByEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check-in history")
	}
	return history, nil
}

// ListForEventOnDate returns the check-ins of one day, newest first.
func (s *Service) ListForEventOnDate(ctx context.Context, eventID id.EventID, day time.Time) ([]*models.DayEntry, error) {
	entries, err := s.store.ListByEventOnDate(ctx, eventID, models.CalendarDay(day, s.location))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check-ins for date")
	}
	return entries, nil
}

// ParseDay parses YYYY-MM-DD as a calendar day in the reporting location.
func (s *Service) ParseDay(raw string) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), s.location)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	return day, nil
}
