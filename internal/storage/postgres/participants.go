package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	participantmodels "rollcall/internal/participant/models"
	platformpg "rollcall/internal/platform/postgres"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
	txcontext "rollcall/pkg/platform/tx"
)

type ParticipantStore struct {
	db *sql.DB
}

const participantColumns = `id, event_id, id_number, name, date_of_birth, sex, region, mid_region, local_region, created_at, updated_at`

// Upsert inserts p or overwrites the demographics of the row that already
// holds (event_id, id_number). The stored row is returned.
func (s *ParticipantStore) Upsert(ctx context.Context, p *participantmodels.Participant) (*participantmodels.Participant, error) {
	const query = `
		INSERT INTO participants (` + participantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT ON CONSTRAINT participants_event_id_number_key DO UPDATE SET
			name = EXCLUDED.name,
			date_of_birth = EXCLUDED.date_of_birth,
			sex = EXCLUDED.sex,
			region = EXCLUDED.region,
			mid_region = EXCLUDED.mid_region,
			local_region = EXCLUDED.local_region,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + participantColumns
	row := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query,
		p.ID,
		p.EventID,
		p.IDNumber,
		p.Name,
		dateParam(p.DateOfBirth.Time),
		p.Sex,
		nullString(p.Region),
		nullString(p.MidRegion),
		nullString(p.LocalRegion),
		p.CreatedAt,
		p.UpdatedAt,
	)
	stored, err := scanParticipant(row)
	if err != nil {
		if platformpg.IsForeignKeyViolation(err, "") {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("upsert participant: %w", err)
	}
	return stored, nil
}

func (s *ParticipantStore) FindByKey(ctx context.Context, eventID id.EventID, idNumber string) (*participantmodels.Participant, error) {
	row := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE event_id = $1 AND id_number = $2`, eventID, idNumber)
	p, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find participant: %w", err)
	}
	return p, nil
}

// ListByEvent returns the event's participants, newest first.
func (s *ParticipantStore) ListByEvent(ctx context.Context, eventID id.EventID) ([]*participantmodels.Participant, error) {
	return listParticipants(ctx, txcontext.ExecerFrom(ctx, s.db), eventID)
}

func listParticipants(ctx context.Context, exec txcontext.Execer, eventID id.EventID) ([]*participantmodels.Participant, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE event_id = $1 ORDER BY created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := []*participantmodels.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanParticipant(row scanner) (*participantmodels.Participant, error) {
	var (
		p                        participantmodels.Participant
		dob                      time.Time
		region, mid, localRegion sql.NullString
	)
	err := row.Scan(&p.ID, &p.EventID, &p.IDNumber, &p.Name, &dob, &p.Sex,
		&region, &mid, &localRegion, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.DateOfBirth = participantmodels.NewDate(dob)
	p.Region = region.String
	p.MidRegion = mid.String
	p.LocalRegion = localRegion.String
	return &p, nil
}
