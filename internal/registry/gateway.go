package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	accountmodels "rollcall/internal/account/models"
	eventmodels "rollcall/internal/event/models"
	participantmodels "rollcall/internal/participant/models"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/circuit"
	request "rollcall/pkg/platform/middleware/request"
)

// Gateway is the identity verification entry point. It never touches local
// storage, so a failed or timed-out lookup leaves nothing behind.
type Gateway struct {
	provider Provider
	limiter  Limiter
	logger   *slog.Logger
	metrics  *Metrics
	breaker  *circuit.Breaker
	timeout  time.Duration
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithLimiter(l Limiter) Option {
	return func(g *Gateway) {
		g.limiter = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithBreaker fails lookups fast while the provider is timing out or down.
func WithBreaker(b *circuit.Breaker) Option {
	return func(g *Gateway) {
		g.breaker = b
	}
}

// WithTimeout bounds each lookup. Zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = d
	}
}

func NewGateway(provider Provider, opts ...Option) (*Gateway, error) {
	if provider == nil {
		return nil, errors.New("registry provider is required")
	}
	g := &Gateway{provider: provider, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Lookup verifies idNumber within the event's location filters.
func (g *Gateway) Lookup(ctx context.Context, acct *accountmodels.Account, event *eventmodels.Event, idNumber string) (*CitizenRecord, error) {
	filters, err := FiltersForEvent(event)
	if err != nil {
		g.metrics.incr("precondition_failed")
		return nil, err
	}
	idNumber, err = participantmodels.NormalizeIDNumber(idNumber)
	if err != nil {
		return nil, err
	}

	if g.limiter != nil && acct != nil {
		allowed, err := g.limiter.Allow(ctx, acct.ID.String())
		if err != nil {
			g.logger.WarnContext(ctx, "lookup rate limiter unavailable; allowing request",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
		} else if !allowed {
			g.metrics.incr("rate_limited")
			return nil, dErrors.New(dErrors.CodeRateLimited, "too many identity lookups; try again shortly")
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if g.breaker != nil && !g.breaker.Allow() {
		g.metrics.incr("circuit_open")
		return nil, dErrors.New(dErrors.CodeLookupService, "identity registry temporarily unavailable")
	}

	start := time.Now()
	record, err := g.provider.Lookup(ctx, Query{IDNumber: idNumber, Filters: filters})
	category := GetCategory(err)
	g.recordOutcome(ctx, err, category)
	if err == nil {
		g.metrics.observe("found", start)
		return record, nil
	}
	if category == ErrorNotFound {
		g.metrics.observe("not_found", start)
		return nil, dErrors.New(dErrors.CodeNotFound, "no matching identity record")
	}

	g.metrics.observe(string(category), start)
	var pe *ProviderError
	retryable := errors.As(err, &pe) && pe.Retryable
	g.logger.ErrorContext(ctx, "identity lookup failed",
		"provider", g.provider.ID(),
		"category", category,
		"retryable", retryable,
		"event_id", event.ID.String(),
		"filter_depth", filters.Depth(),
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
	return nil, dErrors.Wrap(err, dErrors.CodeLookupService, "identity lookup failed")
}

// recordOutcome feeds the breaker. Only timeouts and outages count against
// the provider; a miss is a healthy answer.
func (g *Gateway) recordOutcome(ctx context.Context, err error, category ErrorCategory) {
	if g.breaker == nil {
		return
	}
	if err != nil && (category == ErrorTimeout || category == ErrorProviderOutage) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "identity registry circuit opened", "provider", g.provider.ID())
		}
		return
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "identity registry circuit closed", "provider", g.provider.ID())
	}
}

// Health reports whether the configured provider is reachable.
func (g *Gateway) Health(ctx context.Context) error {
	return g.provider.Health(ctx)
}
