package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	eventmodels "rollcall/internal/event/models"
	platformpg "rollcall/internal/platform/postgres"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
	txcontext "rollcall/pkg/platform/tx"
)

type EventStore struct {
	db *sql.DB
}

const eventColumns = `id, name, region, mid_region, local_region, owner_id, created_at`

func (s *EventStore) Create(ctx context.Context, event *eventmodels.Event) error {
	const query = `
		INSERT INTO events (id, name, region, mid_region, local_region, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		event.ID,
		event.Name,
		event.Region,
		nullString(event.MidRegion),
		nullString(event.LocalRegion),
		event.OwnerID,
		event.CreatedAt,
	)
	if err != nil {
		switch {
		case platformpg.IsUniqueViolation(err, ""):
			return sentinel.ErrAlreadyUsed
		case platformpg.IsForeignKeyViolation(err, ""):
			return sentinel.ErrNotFound
		case platformpg.IsCheckViolation(err, ""):
			return sentinel.ErrInvalidState
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *EventStore) FindByID(ctx context.Context, eventID id.EventID) (*eventmodels.Event, error) {
	row := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return event, nil
}

// ListByOwner returns the owner's events, newest first.
func (s *EventStore) ListByOwner(ctx context.Context, ownerID id.AccountID) ([]*eventmodels.Event, error) {
	rows, err := txcontext.ExecerFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []*eventmodels.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// LockForDelete takes a row lock on the event and counts what the cascade will
// remove. It must run inside a transaction for the lock to hold until Delete.
func (s *EventStore) LockForDelete(ctx context.Context, eventID id.EventID) (*eventmodels.DeleteResult, error) {
	exec := txcontext.ExecerFrom(ctx, s.db)
	var locked id.EventID
	err := exec.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}

	const countQuery = `
		SELECT
			(SELECT count(*) FROM participants WHERE event_id = $1),
			(SELECT count(*) FROM check_in_logs WHERE event_id = $1)
	`
	res := &eventmodels.DeleteResult{EventID: eventID}
	if err := exec.QueryRowContext(ctx, countQuery, eventID).Scan(&res.Participants, &res.CheckIns); err != nil {
		return nil, fmt.Errorf("count event records: %w", err)
	}
	return res, nil
}

// Delete removes the event. Participants and check-in logs go with it through
// ON DELETE CASCADE.
func (s *EventStore) Delete(ctx context.Context, eventID id.EventID) error {
	res, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanEvent(row scanner) (*eventmodels.Event, error) {
	var (
		event      eventmodels.Event
		mid, local sql.NullString
	)
	if err := row.Scan(&event.ID, &event.Name, &event.Region, &mid, &local, &event.OwnerID, &event.CreatedAt); err != nil {
		return nil, err
	}
	event.MidRegion = mid.String
	event.LocalRegion = local.String
	return &event, nil
}
