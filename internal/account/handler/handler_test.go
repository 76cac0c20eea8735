package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"rollcall/internal/account/handler/mocks"
	"rollcall/internal/account/models"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

type AccountHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	tokens  *mocks.MockTokenIssuer
	router  http.Handler
	owner   *models.Account
}

func TestAccountHandlerSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerSuite))
}

func (s *AccountHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.tokens = mocks.NewMockTokenIssuer(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(s.service, s.tokens, logger).Register(r)
	s.router = r

	owner, err := models.NewOwner(id.NewAccountID(), "Owner", "owner@example.org", time.Now())
	s.Require().NoError(err)
	s.owner = owner
}

func (s *AccountHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AccountHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *AccountHandlerSuite) TestCreateOwner() {
	s.Run("created", func() {
		s.service.EXPECT().CreateOwner(gomock.Any(), "Owner", "owner@example.org").Return(s.owner, nil)
		rec := s.do(http.MethodPost, "/admin/accounts", `{"name":"Owner","email":"owner@example.org"}`)
		s.Equal(http.StatusCreated, rec.Code)

		var body struct {
			Account models.Account `json:"account"`
		}
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.Equal(s.owner.ID, body.Account.ID)
	})

	s.Run("unknown fields rejected", func() {
		rec := s.do(http.MethodPost, "/admin/accounts", `{"name":"x","email":"x@example.org","role":"delegate"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("conflict", func() {
		s.service.EXPECT().CreateOwner(gomock.Any(), "Owner", "owner@example.org").
			Return(nil, dErrors.New(dErrors.CodeConflict, "email already registered"))
		rec := s.do(http.MethodPost, "/admin/accounts", `{"name":"Owner","email":"owner@example.org"}`)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *AccountHandlerSuite) TestAttachDelegate() {
	delegate, err := models.NewDelegate(id.NewAccountID(), "Clerk", "clerk@example.org", s.owner, time.Now())
	s.Require().NoError(err)

	s.service.EXPECT().AttachDelegate(gomock.Any(), s.owner.ID, "Clerk", "clerk@example.org").Return(delegate, nil)
	rec := s.do(http.MethodPost, "/admin/accounts/"+s.owner.ID.String()+"/delegates", `{"name":"Clerk","email":"clerk@example.org"}`)
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"ownerId":"`+s.owner.ID.String()+`"`)

	rec = s.do(http.MethodPost, "/admin/accounts/not-a-uuid/delegates", `{"name":"Clerk","email":"clerk@example.org"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *AccountHandlerSuite) TestGetAccountIncludesDelegates() {
	s.service.EXPECT().FindByID(gomock.Any(), s.owner.ID).Return(s.owner, nil)
	s.service.EXPECT().ListDelegates(gomock.Any(), s.owner.ID).Return([]*models.Account{}, nil)

	rec := s.do(http.MethodGet, "/admin/accounts/"+s.owner.ID.String(), "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AccountHandlerSuite) TestIssueToken() {
	s.Run("default ttl", func() {
		s.service.EXPECT().FindByID(gomock.Any(), s.owner.ID).Return(s.owner, nil)
		s.tokens.EXPECT().GenerateAccessToken(s.owner.ID, defaultTokenTTL).Return("signed", nil)
		rec := s.do(http.MethodPost, "/admin/accounts/"+s.owner.ID.String()+"/tokens", "")
		s.Equal(http.StatusCreated, rec.Code)
		s.Contains(rec.Body.String(), `"accessToken":"signed"`)
	})

	s.Run("ttl too long", func() {
		rec := s.do(http.MethodPost, "/admin/accounts/"+s.owner.ID.String()+"/tokens", `{"ttl":"720h"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown account", func() {
		s.service.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(dErrors.CodeNotFound, "account not found"))
		rec := s.do(http.MethodPost, "/admin/accounts/"+id.NewAccountID().String()+"/tokens", "")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
