package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rollcall/pkg/platform/audit/kafka"
	"rollcall/pkg/platform/audit/store/postgres"
	txcontext "rollcall/pkg/platform/tx"
)

// Outbox is the relay's view of the outbox table.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Sink receives relayed records.
type Sink interface {
	Publish(ctx context.Context, msgs []kafka.Message) error
}

// Worker moves outbox rows to the sink. Each batch is fetched, published and
// marked inside one transaction, so a failed publish leaves the rows for the
// next tick. Delivery is at least once.
type Worker struct {
	db       *sql.DB
	outbox   Outbox
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func NewWorker(db *sql.DB, outbox Outbox, sink Sink, logger *slog.Logger, interval time.Duration, batch int) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &Worker{db: db, outbox: outbox, sink: sink, logger: logger, interval: interval, batch: batch}
}

// Run relays until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for {
				n, err := w.RelayOnce(ctx)
				if err != nil {
					w.logger.WarnContext(ctx, "outbox relay failed", "error", err)
					break
				}
				if n < w.batch {
					break
				}
			}
		}
	}
}

// RelayOnce publishes at most one batch and returns how many rows it moved.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin relay tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	txCtx := txcontext.WithTx(ctx, tx)

	entries, err := w.outbox.FetchUnpublished(txCtx, w.batch)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, len(entries))
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		msgs[i] = kafka.Message{
			Key:     e.AggregateID,
			Value:   e.Payload,
			Headers: map[string]string{"event_type": e.EventType, "outbox_id": e.ID.String()},
		}
		ids[i] = e.ID
	}
	if err := w.sink.Publish(ctx, msgs); err != nil {
		return 0, err
	}
	if err := w.outbox.MarkPublished(txCtx, ids, time.Now()); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit relay tx: %w", err)
	}
	return len(entries), nil
}
