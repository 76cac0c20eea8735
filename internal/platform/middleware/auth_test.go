package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountmodels "rollcall/internal/account/models"
	"rollcall/internal/platform/metrics"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) { return s.claims, s.err }

type stubAccounts struct {
	acct *accountmodels.Account
	err  error
}

func (s stubAccounts) FindByID(context.Context, id.AccountID) (*accountmodels.Account, error) {
	return s.acct, s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	owner, err := accountmodels.NewOwner(id.NewAccountID(), "Field Office", "office@example.org", time.Now())
	require.NoError(t, err)

	var got *accountmodels.Account
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetAccount(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		header   string
		val      stubValidator
		accounts stubAccounts
		status   int
	}{
		{"missing header", "", stubValidator{}, stubAccounts{}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", stubValidator{}, stubAccounts{}, http.StatusUnauthorized},
		{"invalid token", "Bearer bad", stubValidator{err: errors.New("expired")}, stubAccounts{}, http.StatusUnauthorized},
		{"malformed subject", "Bearer ok", stubValidator{claims: &JWTClaims{AccountID: "nope"}}, stubAccounts{}, http.StatusUnauthorized},
		{
			"unknown account", "Bearer ok",
			stubValidator{claims: &JWTClaims{AccountID: owner.ID.String()}},
			stubAccounts{err: dErrors.New(dErrors.CodeNotFound, "account not found")},
			http.StatusUnauthorized,
		},
		{
			"store failure", "Bearer ok",
			stubValidator{claims: &JWTClaims{AccountID: owner.ID.String()}},
			stubAccounts{err: dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "failed to load account")},
			http.StatusInternalServerError,
		},
		{
			"valid", "Bearer ok",
			stubValidator{claims: &JWTClaims{AccountID: owner.ID.String()}},
			stubAccounts{acct: owner},
			http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			h := RequireAuth(tt.val, tt.accounts, logger)(next)
			req := httptest.NewRequest(http.MethodGet, "/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusNoContent {
				require.NotNil(t, got)
				assert.Equal(t, owner.ID, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestGetAccountEmptyContext(t *testing.T) {
	assert.Nil(t, GetAccount(context.Background()))
}

func TestLatencyMiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(LatencyMiddleware(m))
	r.Get("/events/{eventId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/def", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/events/{eventId}", "418")))
}
