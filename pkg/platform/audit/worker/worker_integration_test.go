//go:build integration

package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	platformpg "rollcall/internal/platform/postgres"
	"rollcall/pkg/platform/audit"
	"rollcall/pkg/platform/audit/kafka"
	auditpostgres "rollcall/pkg/platform/audit/store/postgres"
	"rollcall/pkg/platform/audit/worker"
	"rollcall/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	ctx      context.Context
	pg       *containers.PostgresContainer
	brokers  []string
	topic    string
	outbox   *auditpostgres.Store
	producer *kafka.Producer
	logger   *slog.Logger
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
	s.outbox = auditpostgres.New(s.pg.DB)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "outbox"))
	s.topic = "rollcall.audit." + uuid.NewString()[:8]
	producer, err := kafka.NewProducer(s.brokers, s.topic)
	s.Require().NoError(err)
	s.Require().NoError(producer.EnsureTopic(s.ctx, 1, 1))
	s.Require().NoError(producer.EnsureTopic(s.ctx, 1, 1), "existing topic is not an error")
	s.producer = producer
}

func (s *RelaySuite) TearDownTest() {
	s.producer.Close()
}

func (s *RelaySuite) event(action audit.AuditEvent, eventID string) audit.Event {
	return audit.Event{
		Category:  action.Category(),
		Timestamp: time.Now().UTC(),
		Action:    string(action),
		ActorID:   uuid.NewString(),
		EventID:   eventID,
	}
}

func (s *RelaySuite) consume(n int) []*kgo.Record {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Second)
	defer cancel()
	var out []*kgo.Record
	for len(out) < n {
		fetches := client.PollFetches(ctx)
		if ctx.Err() != nil {
			break
		}
		fetches.EachRecord(func(r *kgo.Record) {
			out = append(out, r)
		})
	}
	return out
}

func (s *RelaySuite) TestOutboxJoinsCallerTransaction() {
	tx := platformpg.NewTxRunner(s.pg.DB)
	boom := errors.New("boom")

	err := tx.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.outbox.Append(ctx, s.event(audit.EventCheckInRecorded, uuid.NewString())))
		return boom
	})
	s.ErrorIs(err, boom)

	pending, err := s.outbox.CountUnpublished(s.ctx)
	s.Require().NoError(err)
	s.Zero(pending, "rolled back with the write it described")

	s.Require().NoError(tx.RunInTx(s.ctx, func(ctx context.Context) error {
		return s.outbox.Append(ctx, s.event(audit.EventCheckInRecorded, uuid.NewString()))
	}))
	pending, err = s.outbox.CountUnpublished(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, pending)
}

func (s *RelaySuite) TestRelayPublishesAndMarks() {
	eventID := uuid.NewString()
	s.Require().NoError(s.outbox.Append(s.ctx, s.event(audit.EventEventDeleted, eventID)))
	s.Require().NoError(s.outbox.Append(s.ctx, s.event(audit.EventAccountCreated, "")))

	w := worker.NewWorker(s.pg.DB, s.outbox, s.producer, s.logger, time.Second, 10)
	n, err := w.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = w.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(n, "published rows are not relayed twice")

	records := s.consume(2)
	s.Require().Len(records, 2)
	byType := map[string]*kgo.Record{}
	for _, r := range records {
		for _, h := range r.Headers {
			if h.Key == "event_type" {
				byType[string(h.Value)] = r
			}
		}
	}
	deleted := byType[string(audit.EventEventDeleted)]
	s.Require().NotNil(deleted)
	s.Equal(eventID, string(deleted.Key))

	var payload audit.Event
	s.Require().NoError(json.Unmarshal(deleted.Value, &payload))
	s.Equal(audit.CategoryCompliance, payload.Category)
}

type failingSink struct{}

func (failingSink) Publish(context.Context, []kafka.Message) error {
	return errors.New("broker unavailable")
}

func (s *RelaySuite) TestFailedPublishLeavesRows() {
	s.Require().NoError(s.outbox.Append(s.ctx, s.event(audit.EventCheckInRecorded, uuid.NewString())))

	w := worker.NewWorker(s.pg.DB, s.outbox, failingSink{}, s.logger, time.Second, 10)
	_, err := w.RelayOnce(s.ctx)
	s.Error(err)

	pending, err := s.outbox.CountUnpublished(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, pending)
}

func (s *RelaySuite) TestProducerAppendsDirectly() {
	s.Require().NoError(s.producer.Ping(s.ctx))
	s.Require().NoError(s.producer.Append(s.ctx, s.event(audit.EventCheckInRecorded, "evt-1")))

	records := s.consume(1)
	s.Require().Len(records, 1)
	s.Equal("evt-1", string(records[0].Key))
}

func (s *RelaySuite) TestRunStopsOnCancel() {
	s.Require().NoError(s.outbox.Append(s.ctx, s.event(audit.EventEventCreated, uuid.NewString())))
	w := worker.NewWorker(s.pg.DB, s.outbox, s.producer, s.logger, 50*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	s.Eventually(func() bool {
		pending, err := s.outbox.CountUnpublished(s.ctx)
		return err == nil && pending == 0
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("worker did not stop")
	}
}
