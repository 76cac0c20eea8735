package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	accountmodels "rollcall/internal/account/models"
	"rollcall/internal/event/models"
	"rollcall/internal/platform/middleware"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	request "rollcall/pkg/platform/middleware/request"
)

// Service defines the event directory operations.
type Service interface {
	CreateEvent(ctx context.Context, acct *accountmodels.Account, req models.CreateEventRequest) (*models.Event, error)
	GetEventForAccount(ctx context.Context, eventID id.EventID, acct *accountmodels.Account) (*models.Event, error)
	ListEvents(ctx context.Context, acct *accountmodels.Account) ([]*models.Event, error)
	DeleteEvent(ctx context.Context, eventID id.EventID, acct *accountmodels.Account) (*models.DeleteResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the event routes. They expect an authenticated account in
// the request context.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.handleCreate)
	r.Get("/events", h.handleList)
	r.Get("/events/{eventId}", h.handleGet)
	r.Delete("/events/{eventId}", h.handleDelete)
}

type eventResponse struct {
	Event *models.Event `json:"event"`
}

type eventsResponse struct {
	Events []*models.Event `json:"events"`
}

type deleteResponse struct {
	Deleted      bool `json:"deleted"`
	Participants int  `json:"participants"`
	CheckIns     int  `json:"checkIns"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	var req models.CreateEventRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid create event request")
		return
	}
	event, err := h.service.CreateEvent(ctx, acct, req)
	if err != nil {
		h.writeError(ctx, w, err, "failed to create event")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, eventResponse{Event: event})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	events, err := h.service.ListEvents(ctx, acct)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list events")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, eventsResponse{Events: events})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid event id")
		return
	}
	event, err := h.service.GetEventForAccount(ctx, eventID, acct)
	if err != nil {
		h.writeError(ctx, w, err, "failed to load event")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, eventResponse{Event: event})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid event id")
		return
	}
	res, err := h.service.DeleteEvent(ctx, eventID, acct)
	if err != nil {
		h.writeError(ctx, w, err, "failed to delete event")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deleteResponse{
		Deleted:      true,
		Participants: res.Participants,
		CheckIns:     res.CheckIns,
	})
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) (*accountmodels.Account, bool) {
	acct := middleware.GetAccount(r.Context())
	if acct == nil {
		// RequireAuth was not mounted in front of this route
		h.logger.ErrorContext(r.Context(), "account missing from context despite auth middleware",
			"request_id", request.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return nil, false
	}
	return acct, true
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
