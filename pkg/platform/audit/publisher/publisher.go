// Package publisher routes audit events to a store according to their
// category.
//
// Compliance events are written synchronously and fail closed: if the write
// fails the caller gets an error and must abandon its operation. Security and
// operations events are best effort; failures are logged and swallowed.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	audit "rollcall/pkg/platform/audit"
	"rollcall/pkg/requestcontext"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills request-scoped fields and writes the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	err := p.store.Append(ctx, event)
	if err == nil {
		return nil
	}
	if event.Category == audit.CategoryCompliance {
		p.logger.ErrorContext(ctx, "compliance audit failed",
			"action", event.Action,
			"actor_id", event.ActorID,
			"event_id", event.EventID,
			"request_id", event.RequestID,
			"error", err,
		)
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}
	p.logger.WarnContext(ctx, "audit event dropped",
		"action", event.Action,
		"category", event.Category,
		"request_id", event.RequestID,
		"error", err,
	)
	return nil
}
