package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,TokenIssuer

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/account/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	request "rollcall/pkg/platform/middleware/request"
)

// Service defines the account operations exposed to operators.
type Service interface {
	CreateOwner(ctx context.Context, name, email string) (*models.Account, error)
	AttachDelegate(ctx context.Context, ownerID id.AccountID, name, email string) (*models.Account, error)
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	ListDelegates(ctx context.Context, ownerID id.AccountID) ([]*models.Account, error)
}

// TokenIssuer mints access tokens for field clients.
type TokenIssuer interface {
	GenerateAccessToken(accountID id.AccountID, expiresIn time.Duration) (string, error)
}

type Handler struct {
	service Service
	tokens  TokenIssuer
	logger  *slog.Logger
}

func New(service Service, tokens TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, logger: logger}
}

// Register mounts the admin account routes. The caller guards them with the
// admin token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/accounts", h.handleCreateOwner)
	r.Get("/admin/accounts/{accountId}", h.handleGetAccount)
	r.Post("/admin/accounts/{accountId}/delegates", h.handleAttachDelegate)
	r.Post("/admin/accounts/{accountId}/tokens", h.handleIssueToken)
}

type createAccountRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type issueTokenRequest struct {
	TTL string `json:"ttl,omitempty"`
}

type accountResponse struct {
	Account   *models.Account   `json:"account"`
	Delegates []*models.Account `json:"delegates,omitempty"`
}

const (
	defaultTokenTTL = 12 * time.Hour
	maxTokenTTL     = 7 * 24 * time.Hour
)

func (h *Handler) handleCreateOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid create account request")
		return
	}
	acct, err := h.service.CreateOwner(ctx, req.Name, req.Email)
	if err != nil {
		h.writeError(ctx, w, err, "failed to create owner")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, accountResponse{Account: acct})
}

func (h *Handler) handleAttachDelegate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseAccountID(chi.URLParam(r, "accountId"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid account id")
		return
	}
	var req createAccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid attach delegate request")
		return
	}
	acct, err := h.service.AttachDelegate(ctx, ownerID, req.Name, req.Email)
	if err != nil {
		h.writeError(ctx, w, err, "failed to attach delegate")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, accountResponse{Account: acct})
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountId"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid account id")
		return
	}
	acct, err := h.service.FindByID(ctx, accountID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to load account")
		return
	}
	resp := accountResponse{Account: acct}
	if acct.IsOwner() {
		resp.Delegates, err = h.service.ListDelegates(ctx, acct.ID)
		if err != nil {
			h.writeError(ctx, w, err, "failed to list delegates")
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountId"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid account id")
		return
	}
	var req issueTokenRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(ctx, w, err, "invalid token request")
			return
		}
	}
	ttl := defaultTokenTTL
	if req.TTL != "" {
		ttl, err = time.ParseDuration(req.TTL)
		if err != nil || ttl <= 0 || ttl > maxTokenTTL {
			h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, "ttl must be a positive duration of at most 168h"), "invalid token ttl")
			return
		}
	}
	if _, err := h.service.FindByID(ctx, accountID); err != nil {
		h.writeError(ctx, w, err, "failed to load account")
		return
	}
	token, err := h.tokens.GenerateAccessToken(accountID, ttl)
	if err != nil {
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"), "failed to issue token")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"accessToken": token,
		"tokenType":   "Bearer",
		"expiresIn":   int(ttl.Seconds()),
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	requestID := request.GetRequestID(ctx)
	if dErrors.IsServerError(dErrors.CodeOf(err)) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestID)
	} else {
		h.logger.WarnContext(ctx, msg, "error", err, "request_id", requestID)
	}
	httputil.WriteError(w, err)
}
