package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	accountmodels "rollcall/internal/account/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	request "rollcall/pkg/platform/middleware/request"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	AccountID string
}

// AccountResolver loads the account a token was issued to.
type AccountResolver interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*accountmodels.Account, error)
}

type contextKeyAccount struct{}

// WithAccount stores the authenticated account. Exposed for tests.
func WithAccount(ctx context.Context, acct *accountmodels.Account) context.Context {
	return context.WithValue(ctx, contextKeyAccount{}, acct)
}

// GetAccount retrieves the authenticated account from the context, or nil.
func GetAccount(ctx context.Context) *accountmodels.Account {
	acct, ok := ctx.Value(contextKeyAccount{}).(*accountmodels.Account)
	if !ok {
		return nil
	}
	return acct
}

// RequireAuth validates the bearer token and resolves it to a live account.
// Tokens for accounts that no longer exist are rejected.
func RequireAuth(validator JWTValidator, accounts AccountResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			accountID, err := id.ParseAccountID(claims.AccountID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed subject",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			acct, err := accounts.FindByID(ctx, accountID)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					logger.WarnContext(ctx, "unauthorized access - unknown account",
						"account_id", accountID.String(),
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
					return
				}
				logger.ErrorContext(ctx, "failed to resolve account",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(ctx, acct)))
		})
	}
}
