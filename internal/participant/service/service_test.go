package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	accountmodels "rollcall/internal/account/models"
	eventmodels "rollcall/internal/event/models"
	"rollcall/internal/participant/models"
	"rollcall/internal/storage/memory"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	db      *memory.DB
	service *Service
	event   *eventmodels.Event
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), now)
	s.db = memory.NewDB()

	owner, err := accountmodels.NewOwner(id.NewAccountID(), "County Office", "county@example.org", now)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Accounts().Create(s.ctx, owner))
	event, err := eventmodels.NewEvent(id.NewEventID(), eventmodels.CreateEventRequest{Name: "Rally", Region: "North"}, owner.ID, now)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Events().Create(s.ctx, event))
	s.event = event

	svc, err := New(s.db.Participants())
	s.Require().NoError(err)
	s.service = svc
}

func input(name string) models.DemographicsInput {
	return models.DemographicsInput{Name: name, DateOfBirth: "1990-01-02", Sex: "F", Region: "North"}
}

func (s *ServiceSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *ServiceSuite) TestResolveIsKeyIdempotentAndLastWriteWins() {
	first, err := s.service.ResolveForCheckIn(s.ctx, s.event.ID, "A-1", input("Ada"))
	s.Require().NoError(err)

	later := requestcontext.WithTime(s.ctx, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	second, err := s.service.ResolveForCheckIn(later, s.event.ID, " A-1 ", input("Ada Lovelace"))
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal("Ada Lovelace", second.Name)
	s.Equal(first.CreatedAt, second.CreatedAt)
	s.True(second.UpdatedAt.After(first.UpdatedAt))

	list, err := s.service.ListByEvent(s.ctx, s.event.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *ServiceSuite) TestResolveValidation() {
	tests := []struct {
		name     string
		idNumber string
		in       models.DemographicsInput
	}{
		{"missing id number", " ", input("Ada")},
		{"missing name", "A-1", models.DemographicsInput{DateOfBirth: "1990-01-02", Sex: "F"}},
		{"missing sex", "A-1", models.DemographicsInput{Name: "Ada", DateOfBirth: "1990-01-02"}},
		{"bad date", "A-1", models.DemographicsInput{Name: "Ada", DateOfBirth: "02/01/1990", Sex: "F"}},
		{"future date", "A-1", models.DemographicsInput{Name: "Ada", DateOfBirth: "2030-01-01", Sex: "F"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.ResolveForCheckIn(s.ctx, s.event.ID, tt.idNumber, tt.in)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
	list, err := s.service.ListByEvent(s.ctx, s.event.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *ServiceSuite) TestResolveUnknownEvent() {
	_, err := s.service.ResolveForCheckIn(s.ctx, id.NewEventID(), "A-1", input("Ada"))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestFindByKey() {
	_, err := s.service.FindByKey(s.ctx, s.event.ID, "A-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	created, err := s.service.ResolveForCheckIn(s.ctx, s.event.ID, "A-1", input("Ada"))
	s.Require().NoError(err)
	found, err := s.service.FindByKey(s.ctx, s.event.ID, "A-1")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
}
