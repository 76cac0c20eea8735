package testutil

import (
	"net/http"
	"time"

	accountmodels "rollcall/internal/account/models"
	"rollcall/internal/platform/middleware"
	"rollcall/pkg/requestcontext"
)

// AsAccount attaches acct to the request the way RequireAuth does after a
// successful token check.
func AsAccount(req *http.Request, acct *accountmodels.Account) *http.Request {
	return req.WithContext(middleware.WithAccount(req.Context(), acct))
}

// At pins the request time. Check-in days are derived from it.
func At(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
