package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accountmodels "rollcall/internal/account/models"
	"rollcall/internal/attendance/models"
	checkinmodels "rollcall/internal/checkin/models"
	participantmodels "rollcall/internal/participant/models"
	"rollcall/internal/platform/middleware"
	"rollcall/internal/registry"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	request "rollcall/pkg/platform/middleware/request"
)

// Service defines the field operations: identity search, check-in and the
// attendance reports.
type Service interface {
	Search(ctx context.Context, acct *accountmodels.Account, req models.SearchRequest) (*registry.CitizenRecord, error)
	CheckIn(ctx context.Context, acct *accountmodels.Account, req models.CheckInRequest) (*models.CheckInResult, error)
	History(ctx context.Context, acct *accountmodels.Account, eventID id.EventID) ([]*checkinmodels.ParticipantHistory, error)
	DayLog(ctx context.Context, acct *accountmodels.Account, eventID id.EventID, date string) ([]*checkinmodels.DayEntry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/participants/search", h.handleSearch)
	r.Post("/participants/checkin", h.handleCheckIn)
	r.Get("/participants/event/{eventId}", h.handleHistory)
	r.Get("/participants/event/{eventId}/date/{date}", h.handleDayLog)
}

type searchRequest struct {
	EventID  string `json:"eventId"`
	IDNumber string `json:"idNumber"`
}

type checkInRequest struct {
	EventID     string `json:"eventId"`
	IDNumber    string `json:"idNumber"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Sex         string `json:"sex"`
	Region      string `json:"region"`
	MidRegion   string `json:"midRegion"`
	LocalRegion string `json:"localRegion"`
}

type searchResponse struct {
	Participant *registry.CitizenRecord `json:"participant"`
}

type checkInResponse struct {
	ID            id.CheckInID     `json:"id"`
	ParticipantID id.ParticipantID `json:"participantId"`
	EventID       id.EventID       `json:"eventId"`
	CheckInDate   string           `json:"checkInDate"`
	CheckedInAt   time.Time        `json:"checkedInAt"`
	RecordedBy    id.AccountID     `json:"recordedBy"`
}

type checkInResultResponse struct {
	CheckIn     checkInResponse                `json:"checkIn"`
	Participant *participantmodels.Participant `json:"participant"`
}

type historyEntry struct {
	*participantmodels.Participant
	CheckIns []checkInResponse `json:"checkIns"`
}

type historyResponse struct {
	Participants []historyEntry `json:"participants"`
}

type dayEntry struct {
	checkInResponse
	Participant *participantmodels.Participant `json:"participant"`
	Recorder    accountmodels.Summary          `json:"recorder"`
}

type dayLogResponse struct {
	CheckIns []dayEntry `json:"checkIns"`
}

func toCheckInResponse(l *checkinmodels.CheckInLog) checkInResponse {
	return checkInResponse{
		ID:            l.ID,
		ParticipantID: l.ParticipantID,
		EventID:       l.EventID,
		CheckInDate:   l.Day(),
		CheckedInAt:   l.CheckedInAt,
		RecordedBy:    l.RecordedBy,
	}
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	var req searchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid search request")
		return
	}
	eventID, err := id.ParseEventID(req.EventID)
	if err != nil {
		h.writeError(ctx, w, err, "invalid event id")
		return
	}
	record, err := h.service.Search(ctx, acct, models.SearchRequest{EventID: eventID, IDNumber: req.IDNumber})
	if err != nil {
		h.writeError(ctx, w, err, "participant search failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, searchResponse{Participant: record})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	var req checkInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid check-in request")
		return
	}
	eventID, err := id.ParseEventID(req.EventID)
	if err != nil {
		h.writeError(ctx, w, err, "invalid event id")
		return
	}
	res, err := h.service.CheckIn(ctx, acct, models.CheckInRequest{
		EventID:  eventID,
		IDNumber: req.IDNumber,
		Demographics: participantmodels.DemographicsInput{
			Name:        req.Name,
			DateOfBirth: req.DateOfBirth,
			Sex:         req.Sex,
			Region:      req.Region,
			MidRegion:   req.MidRegion,
			LocalRegion: req.LocalRegion,
		},
	})
	if err != nil {
		h.writeError(ctx, w, err, "check-in failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, checkInResultResponse{
		CheckIn:     toCheckInResponse(res.CheckIn),
		Participant: res.Participant,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
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
	history, err := h.service.History(ctx, acct, eventID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to load participants")
		return
	}
	resp := historyResponse{Participants: make([]historyEntry, 0, len(history))}
	for _, ph := range history {
		entry := historyEntry{Participant: ph.Participant, CheckIns: make([]checkInResponse, 0, len(ph.CheckIns))}
		for _, c := range ph.CheckIns {
			entry.CheckIns = append(entry.CheckIns, toCheckInResponse(c))
		}
		resp.Participants = append(resp.Participants, entry)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDayLog(w http.ResponseWriter, r *http.Request) {
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
	entries, err := h.service.DayLog(ctx, acct, eventID, chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(ctx, w, err, "failed to load check-ins for date")
		return
	}
	resp := dayLogResponse{CheckIns: make([]dayEntry, 0, len(entries))}
	for _, e := range entries {
		resp.CheckIns = append(resp.CheckIns, dayEntry{
			checkInResponse: toCheckInResponse(e.CheckIn),
			Participant:     e.Participant,
			Recorder:        e.Recorder,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) (*accountmodels.Account, bool) {
	acct := middleware.GetAccount(r.Context())
	if acct == nil {
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
