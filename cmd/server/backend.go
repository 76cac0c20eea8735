package main

import (
	"context"
	"fmt"
	"log/slog"

	accountservice "rollcall/internal/account/service"
	checkinservice "rollcall/internal/checkin/service"
	eventservice "rollcall/internal/event/service"
	participantservice "rollcall/internal/participant/service"
	"rollcall/internal/platform/config"
	platformpg "rollcall/internal/platform/postgres"
	"rollcall/internal/storage/memory"
	"rollcall/internal/storage/postgres"
	"rollcall/pkg/platform/audit"
	"rollcall/pkg/platform/audit/kafka"
	auditmemory "rollcall/pkg/platform/audit/store/memory"
	auditpostgres "rollcall/pkg/platform/audit/store/postgres"
	"rollcall/pkg/platform/audit/worker"
)

// backend is the storage selected at startup. PostgreSQL when DATABASE_URL is
// set, otherwise process memory.
type backend struct {
	accounts     accountservice.Store
	events       eventservice.Store
	participants participantservice.Store
	checkIns     checkinservice.Store
	tx           eventservice.TxRunner
	auditStore   audit.Store
	ping         func(ctx context.Context) error

	// set only for PostgreSQL with Kafka configured
	relay *worker.Worker

	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg config.Server, logger *slog.Logger) (*backend, error) {
	b := &backend{}

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, p.Close)
		if err := p.EnsureTopic(ctx, 3, 1); err != nil {
			b.Close()
			return nil, fmt.Errorf("ensure audit topic: %w", err)
		}
		producer = p
	}

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory storage")
		db := memory.NewDB()
		b.accounts = db.Accounts()
		b.events = db.Events()
		b.participants = db.Participants()
		b.checkIns = db.CheckIns()
		b.tx = db
		b.ping = func(context.Context) error { return nil }
		// Without an outbox table the producer is written to directly. Audit
		// writes then cannot roll back with the data they describe.
		if producer != nil {
			b.auditStore = producer
		} else {
			b.auditStore = auditmemory.NewInMemoryStore()
		}
		return b, nil
	}

	if cfg.AutoMigrate {
		if err := platformpg.Migrate(cfg.DatabaseURL, logger); err != nil {
			b.Close()
			return nil, err
		}
	}
	sqlDB, err := platformpg.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.closers = append(b.closers, func() { _ = sqlDB.Close() })

	stores := postgres.New(sqlDB)
	outbox := auditpostgres.New(sqlDB)
	b.accounts = stores.Accounts()
	b.events = stores.Events()
	b.participants = stores.Participants()
	b.checkIns = stores.CheckIns()
	b.tx = platformpg.NewTxRunner(sqlDB)
	b.auditStore = outbox
	b.ping = sqlDB.PingContext
	if producer != nil {
		b.relay = worker.NewWorker(sqlDB, outbox, producer, logger, cfg.Kafka.RelayInterval, 100)
	} else {
		logger.Warn("KAFKA_BROKERS not set; audit records stay in the outbox table")
	}
	return b, nil
}

// migrateOnly applies the schema and exits.
func migrateOnly(cfg config.Server, logger *slog.Logger) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("--migrate-only requires DATABASE_URL")
	}
	return platformpg.Migrate(cfg.DatabaseURL, logger)
}
