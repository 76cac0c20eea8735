package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	accountmodels "rollcall/internal/account/models"
	"rollcall/internal/event/handler/mocks"
	"rollcall/internal/event/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/testutil"
)

type EventHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
	owner   *accountmodels.Account
	event   *models.Event
}

func TestEventHandlerSuite(t *testing.T) {
	suite.Run(t, new(EventHandlerSuite))
}

func (s *EventHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(s.service, logger).Register(r)
	s.router = r

	now := time.Now()
	owner, err := accountmodels.NewOwner(id.NewAccountID(), "Owner", "owner@example.org", now)
	s.Require().NoError(err)
	s.owner = owner
	event, err := models.NewEvent(id.NewEventID(), models.CreateEventRequest{Name: "Rally", Region: "North"}, owner.ID, now)
	s.Require().NoError(err)
	s.event = event
}

func (s *EventHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EventHandlerSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.AsAccount(req, s.owner))
}

func (s *EventHandlerSuite) TestCreate() {
	t := s.T()
	s.Run("created", func() {
		s.service.EXPECT().CreateEvent(gomock.Any(), s.owner, models.CreateEventRequest{Name: "Rally", Region: "North"}).Return(s.event, nil)
		rr := s.serve(testutil.NewJSONRequest(t, http.MethodPost, "/events", map[string]string{"name": "Rally", "region": "North"}))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		testutil.AssertJSONHasKey(t, rr, "event")
	})

	s.Run("forbidden for delegate", func() {
		s.service.EXPECT().CreateEvent(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeForbidden, "only owners can create events"))
		rr := s.serve(testutil.NewJSONRequest(t, http.MethodPost, "/events", map[string]string{"name": "Rally", "region": "North"}))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})

	s.Run("unknown field", func() {
		rr := s.serve(testutil.NewJSONRequest(t, http.MethodPost, "/events", map[string]string{"name": "Rally", "ownerId": "x"}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *EventHandlerSuite) TestList() {
	t := s.T()
	s.service.EXPECT().ListEvents(gomock.Any(), s.owner).Return([]*models.Event{s.event}, nil)
	rr := s.serve(testutil.NewRequest(t, http.MethodGet, "/events"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	body := testutil.Decode(t, rr)
	events, ok := body["events"].([]any)
	s.Require().True(ok)
	s.Len(events, 1)
}

func (s *EventHandlerSuite) TestGet() {
	t := s.T()
	s.Run("found", func() {
		s.service.EXPECT().GetEventForAccount(gomock.Any(), s.event.ID, s.owner).Return(s.event, nil)
		rr := s.serve(testutil.NewRequest(t, http.MethodGet, "/events/"+s.event.ID.String()))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	s.Run("not found", func() {
		s.service.EXPECT().GetEventForAccount(gomock.Any(), gomock.Any(), s.owner).Return(nil, dErrors.New(dErrors.CodeNotFound, "event not found"))
		rr := s.serve(testutil.NewRequest(t, http.MethodGet, "/events/"+id.NewEventID().String()))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id", func() {
		rr := s.serve(testutil.NewRequest(t, http.MethodGet, "/events/not-a-uuid"))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func (s *EventHandlerSuite) TestDelete() {
	t := s.T()
	s.service.EXPECT().DeleteEvent(gomock.Any(), s.event.ID, s.owner).
		Return(&models.DeleteResult{EventID: s.event.ID, Participants: 3, CheckIns: 5}, nil)
	rr := s.serve(testutil.NewRequest(t, http.MethodDelete, "/events/"+s.event.ID.String()))
	testutil.AssertStatus(t, rr, http.StatusOK)

	body := testutil.Decode(t, rr)
	s.Equal(true, body["deleted"])
	s.Equal(float64(3), body["participants"])
	s.Equal(float64(5), body["checkIns"])
}

func (s *EventHandlerSuite) TestMissingAccountIsServerError() {
	t := s.T()
	rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/events"))
	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
}
