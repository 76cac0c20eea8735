package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	accountmodels "rollcall/internal/account/models"
	checkinmodels "rollcall/internal/checkin/models"
	eventmodels "rollcall/internal/event/models"
	participantmodels "rollcall/internal/participant/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type DBSuite struct {
	suite.Suite
	ctx   context.Context
	db    *DB
	owner *accountmodels.Account
	event *eventmodels.Event
	now   time.Time
}

func TestDBSuite(t *testing.T) {
	suite.Run(t, new(DBSuite))
}

func (s *DBSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = NewDB()
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	owner, err := accountmodels.NewOwner(id.NewAccountID(), "County Office", "county@example.org", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Accounts().Create(s.ctx, owner))
	s.owner = owner

	event, err := eventmodels.NewEvent(id.NewEventID(), eventmodels.CreateEventRequest{
		Name: "Rally", Region: "North", MidRegion: "Lakes",
	}, owner.ID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Events().Create(s.ctx, event))
	s.event = event
}

func (s *DBSuite) participant(idNumber, name string) *participantmodels.Participant {
	return &participantmodels.Participant{
		ID:       id.NewParticipantID(),
		EventID:  s.event.ID,
		IDNumber: idNumber,
		Demographics: participantmodels.Demographics{
			Name:        name,
			DateOfBirth: participantmodels.NewDate(time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)),
			Sex:         "F",
		},
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *DBSuite) checkIn(p *participantmodels.Participant, at time.Time) *checkinmodels.CheckInLog {
	return &checkinmodels.CheckInLog{
		ID:            id.NewCheckInID(),
		ParticipantID: p.ID,
		EventID:       p.EventID,
		CheckInDate:   checkinmodels.CalendarDay(at, time.UTC),
		CheckedInAt:   at,
		RecordedBy:    s.owner.ID,
	}
}

func (s *DBSuite) TestAccounts() {
	s.Run("duplicate email is rejected", func() {
		dup, err := accountmodels.NewOwner(id.NewAccountID(), "Other", "county@example.org", s.now)
		s.Require().NoError(err)
		s.ErrorIs(s.db.Accounts().Create(s.ctx, dup), sentinel.ErrAlreadyUsed)
	})

	s.Run("delegate of a delegate is rejected", func() {
		delegate, err := accountmodels.NewDelegate(id.NewAccountID(), "Clerk", "clerk@example.org", s.owner, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.db.Accounts().Create(s.ctx, delegate))

		// bypass the constructor to prove storage holds the rule on its own
		nested := &accountmodels.Account{
			ID: id.NewAccountID(), Name: "Nested", Email: "nested@example.org",
			Role: accountmodels.RoleDelegate, OwnerID: &delegate.ID, CreatedAt: s.now,
		}
		s.ErrorIs(s.db.Accounts().Create(s.ctx, nested), sentinel.ErrInvalidState)

		delegates, err := s.db.Accounts().ListDelegates(s.ctx, s.owner.ID)
		s.Require().NoError(err)
		s.Len(delegates, 1)
		s.Equal(delegate.ID, delegates[0].ID)
	})

	s.Run("unknown id", func() {
		_, err := s.db.Accounts().FindByID(s.ctx, id.NewAccountID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *DBSuite) TestParticipantUpsertKeepsIdentity() {
	first, err := s.db.Participants().Upsert(s.ctx, s.participant("A-1", "Ada"))
	s.Require().NoError(err)

	again := s.participant("A-1", "Ada Lovelace")
	again.UpdatedAt = s.now.Add(time.Hour)
	second, err := s.db.Participants().Upsert(s.ctx, again)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal("Ada Lovelace", second.Name)
	s.Equal(s.now, second.CreatedAt)

	list, err := s.db.Participants().ListByEvent(s.ctx, s.event.ID)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *DBSuite) TestParticipantUpsertUnknownEvent() {
	p := s.participant("A-1", "Ada")
	p.EventID = id.NewEventID()
	_, err := s.db.Participants().Upsert(s.ctx, p)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DBSuite) TestCheckInUniquePerDay() {
	p, err := s.db.Participants().Upsert(s.ctx, s.participant("A-1", "Ada"))
	s.Require().NoError(err)

	s.Require().NoError(s.db.CheckIns().Insert(s.ctx, s.checkIn(p, s.now)))
	s.ErrorIs(s.db.CheckIns().Insert(s.ctx, s.checkIn(p, s.now.Add(2*time.Hour))), sentinel.ErrAlreadyUsed)
	s.NoError(s.db.CheckIns().Insert(s.ctx, s.checkIn(p, s.now.Add(24*time.Hour))))

	exists, err := s.db.CheckIns().Exists(s.ctx, p.ID, s.event.ID, checkinmodels.CalendarDay(s.now, time.UTC))
	s.Require().NoError(err)
	s.True(exists)

	history, err := s.db.CheckIns().ListHistoryByEvent(s.ctx, s.event.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Require().Len(history[0].CheckIns, 2)
	s.True(history[0].CheckIns[0].CheckedInAt.After(history[0].CheckIns[1].CheckedInAt))

	day, err := s.db.CheckIns().ListByEventOnDate(s.ctx, s.event.ID, checkinmodels.CalendarDay(s.now, time.UTC))
	s.Require().NoError(err)
	s.Require().Len(day, 1)
	s.Equal(s.owner.Email, day[0].Recorder.Email)
	s.Equal("Ada", day[0].Participant.Name)
}

func (s *DBSuite) TestDeleteCascades() {
	p, err := s.db.Participants().Upsert(s.ctx, s.participant("A-1", "Ada"))
	s.Require().NoError(err)
	s.Require().NoError(s.db.CheckIns().Insert(s.ctx, s.checkIn(p, s.now)))

	counts, err := s.db.Events().LockForDelete(s.ctx, s.event.ID)
	s.Require().NoError(err)
	s.Equal(1, counts.Participants)
	s.Equal(1, counts.CheckIns)

	s.Require().NoError(s.db.Events().Delete(s.ctx, s.event.ID))

	_, err = s.db.Events().FindByID(s.ctx, s.event.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.db.Participants().FindByKey(s.ctx, s.event.ID, "A-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
	history, err := s.db.CheckIns().ListHistoryByEvent(s.ctx, s.event.ID)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *DBSuite) TestRunInTxRollsBack() {
	boom := errors.New("boom")
	err := s.db.RunInTx(s.ctx, func(ctx context.Context) error {
		if _, err := s.db.Participants().Upsert(ctx, s.participant("A-1", "Ada")); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.db.Participants().FindByKey(s.ctx, s.event.ID, "A-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DBSuite) TestRunInTxCommits() {
	err := s.db.RunInTx(s.ctx, func(ctx context.Context) error {
		p, err := s.db.Participants().Upsert(ctx, s.participant("A-1", "Ada"))
		if err != nil {
			return err
		}
		return s.db.CheckIns().Insert(ctx, s.checkIn(p, s.now))
	})
	s.Require().NoError(err)

	_, err = s.db.Participants().FindByKey(s.ctx, s.event.ID, "A-1")
	s.NoError(err)
}

func (s *DBSuite) TestListByOwnerNewestFirst() {
	later, err := eventmodels.NewEvent(id.NewEventID(), eventmodels.CreateEventRequest{Name: "Later", Region: "South"}, s.owner.ID, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.db.Events().Create(s.ctx, later))

	events, err := s.db.Events().ListByOwner(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(later.ID, events[0].ID)
}
