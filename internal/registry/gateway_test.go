package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	accountmodels "rollcall/internal/account/models"
	eventmodels "rollcall/internal/event/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/circuit"
)

type GatewaySuite struct {
	suite.Suite
	ctx      context.Context
	provider *StaticProvider
	metrics  *Metrics
	gateway  *Gateway
	acct     *accountmodels.Account
	event    *eventmodels.Event
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func (s *GatewaySuite) SetupTest() {
	s.ctx = context.Background()
	s.provider = NewStaticProvider("static", CitizenRecord{
		IDNumber: "19900102-1234", Name: "Ada", Region: "North", MidRegion: "Lakes", LocalRegion: "Ward 4",
	})
	s.metrics = NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := NewGateway(s.provider,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithLimiter(NewMemoryLimiter(3, time.Minute)),
		WithTimeout(time.Second),
	)
	s.Require().NoError(err)
	s.gateway = g

	s.acct = &accountmodels.Account{ID: id.NewAccountID(), Role: accountmodels.RoleOwner}
	s.event = &eventmodels.Event{ID: id.NewEventID(), Region: "North", MidRegion: "Lakes", OwnerID: s.acct.ID}
}

func (s *GatewaySuite) TestNewRequiresProvider() {
	_, err := NewGateway(nil)
	s.Error(err)
}

func (s *GatewaySuite) TestLookupFound() {
	rec, err := s.gateway.Lookup(s.ctx, s.acct, s.event, " 19900102-1234 ")
	s.Require().NoError(err)
	s.Equal("Ada", rec.Name)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Lookups.WithLabelValues("found")))
}

func (s *GatewaySuite) TestLookupOutsideFiltersIsNotFound() {
	event := &eventmodels.Event{ID: id.NewEventID(), Region: "South", OwnerID: s.acct.ID}
	_, err := s.gateway.Lookup(s.ctx, s.acct, event, "19900102-1234")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *GatewaySuite) TestLookupMissingRegion() {
	event := &eventmodels.Event{ID: id.NewEventID(), OwnerID: s.acct.ID}
	_, err := s.gateway.Lookup(s.ctx, s.acct, event, "19900102-1234")
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *GatewaySuite) TestLookupEmptyIDNumber() {
	_, err := s.gateway.Lookup(s.ctx, s.acct, s.event, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *GatewaySuite) TestProviderFailureIsLookupServiceError() {
	s.provider.FailWith(NewProviderError(ErrorProviderOutage, "static", "down", nil))
	_, err := s.gateway.Lookup(s.ctx, s.acct, s.event, "19900102-1234")
	s.True(dErrors.HasCode(err, dErrors.CodeLookupService))
	s.False(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *GatewaySuite) TestRateLimited() {
	for range 3 {
		_, _ = s.gateway.Lookup(s.ctx, s.acct, s.event, "19900102-1234")
	}
	_, err := s.gateway.Lookup(s.ctx, s.acct, s.event, "19900102-1234")
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))

	other := &accountmodels.Account{ID: id.NewAccountID(), Role: accountmodels.RoleOwner}
	_, err = s.gateway.Lookup(s.ctx, other, s.event, "19900102-1234")
	s.NoError(err)
}

func (s *GatewaySuite) TestLimiterFailureFailsOpen() {
	g, err := NewGateway(s.provider, WithLimiter(failingLimiter{}), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	_, err = g.Lookup(s.ctx, s.acct, s.event, "19900102-1234")
	s.NoError(err)
}

func (s *GatewaySuite) TestBreakerFailsFastDuringOutage() {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	breaker := circuit.New("citizen", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }))
	g, err := NewGateway(s.provider, WithMetrics(s.metrics), WithBreaker(breaker))
	s.Require().NoError(err)

	s.provider.FailWith(NewProviderError(ErrorProviderOutage, "static", "down", nil))
	for range 2 {
		_, err := g.Lookup(s.ctx, s.acct, s.event, "19900102-1234")
		s.True(dErrors.HasCode(err, dErrors.CodeLookupService))
	}
	s.True(breaker.IsOpen())

	s.provider.FailWith(nil)
	_, err = g.Lookup(s.ctx, s.acct, s.event, "19900102-1234")
	s.True(dErrors.HasCode(err, dErrors.CodeLookupService))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Lookups.WithLabelValues("circuit_open")))

	now = now.Add(time.Minute)
	rec, err := g.Lookup(s.ctx, s.acct, s.event, "19900102-1234")
	s.Require().NoError(err)
	s.Equal("Ada", rec.Name)
	s.False(breaker.IsOpen())
}

func (s *GatewaySuite) TestBreakerIgnoresMisses() {
	breaker := circuit.New("citizen", circuit.WithFailureThreshold(1))
	g, err := NewGateway(s.provider, WithBreaker(breaker))
	s.Require().NoError(err)

	_, err = g.Lookup(s.ctx, s.acct, s.event, "00000000-0000")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.False(breaker.IsOpen())
}
