package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	accountmodels "rollcall/internal/account/models"
	checkinmodels "rollcall/internal/checkin/models"
	participantmodels "rollcall/internal/participant/models"
	platformpg "rollcall/internal/platform/postgres"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
	txcontext "rollcall/pkg/platform/tx"
)

const checkInDailyKey = "check_in_logs_daily_key"

type CheckInStore struct {
	db *sql.DB
}

func (s *CheckInStore) Exists(ctx context.Context, participantID id.ParticipantID, eventID id.EventID, day time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM check_in_logs
			WHERE participant_id = $1 AND event_id = $2 AND check_in_date = $3
		)
	`
	var exists bool
	err := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx, query, participantID, eventID, dateParam(day)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing check-in: %w", err)
	}
	return exists, nil
}

// Insert records a check-in. The daily unique constraint is the authority on
// duplicates and is reported as sentinel.ErrAlreadyUsed. A participant that
// does not belong to the event is reported as sentinel.ErrNotFound.
func (s *CheckInStore) Insert(ctx context.Context, log *checkinmodels.CheckInLog) error {
	const query = `
		INSERT INTO check_in_logs (id, participant_id, event_id, check_in_date, checked_in_at, recorded_by)
		SELECT $1::uuid, $2::uuid, $3::uuid, $4::date, $5::timestamptz, $6::uuid
		WHERE EXISTS (SELECT 1 FROM participants WHERE id = $2 AND event_id = $3)
	`
	res, err := txcontext.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		log.ID,
		log.ParticipantID,
		log.EventID,
		dateParam(log.CheckInDate),
		log.CheckedInAt,
		log.RecordedBy,
	)
	if err != nil {
		switch {
		case platformpg.IsUniqueViolation(err, checkInDailyKey):
			return sentinel.ErrAlreadyUsed
		case platformpg.IsForeignKeyViolation(err, ""):
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert check-in: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert check-in: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListHistoryByEvent returns every participant of the event, newest first,
// each with its check-ins newest first. Logs are loaded in one batch.
func (s *CheckInStore) ListHistoryByEvent(ctx context.Context, eventID id.EventID) ([]*checkinmodels.ParticipantHistory, error) {
	exec := txcontext.ExecerFrom(ctx, s.db)
	participants, err := listParticipants(ctx, exec, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]*checkinmodels.ParticipantHistory, 0, len(participants))
	if len(participants) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID.String())
	}
	const query = `
		SELECT id, participant_id, event_id, check_in_date, checked_in_at, recorded_by
		FROM check_in_logs
		WHERE participant_id = ANY($1::uuid[])
		ORDER BY checked_in_at DESC, id DESC
	`
	rows, err := exec.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	byParticipant := make(map[id.ParticipantID][]*checkinmodels.CheckInLog, len(participants))
	for rows.Next() {
		var log checkinmodels.CheckInLog
		if err := rows.Scan(&log.ID, &log.ParticipantID, &log.EventID, &log.CheckInDate, &log.CheckedInAt, &log.RecordedBy); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		byParticipant[log.ParticipantID] = append(byParticipant[log.ParticipantID], &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}

	for _, p := range participants {
		logs := byParticipant[p.ID]
		if logs == nil {
			logs = []*checkinmodels.CheckInLog{}
		}
		out = append(out, &checkinmodels.ParticipantHistory{Participant: p, CheckIns: logs})
	}
	return out, nil
}

// ListByEventOnDate returns the day's check-ins, newest first, joined with the
// participant and the recording account.
func (s *CheckInStore) ListByEventOnDate(ctx context.Context, eventID id.EventID, day time.Time) ([]*checkinmodels.DayEntry, error) {
	const query = `
		SELECT
			c.id, c.participant_id, c.event_id, c.check_in_date, c.checked_in_at, c.recorded_by,
			p.id, p.event_id, p.id_number, p.name, p.date_of_birth, p.sex,
			p.region, p.mid_region, p.local_region, p.created_at, p.updated_at,
			a.id, a.name, a.email, a.role
		FROM check_in_logs c
		JOIN participants p ON p.id = c.participant_id
		JOIN accounts a ON a.id = c.recorded_by
		WHERE c.event_id = $1 AND c.check_in_date = $2
		ORDER BY c.checked_in_at DESC, c.id DESC
	`
	rows, err := txcontext.ExecerFrom(ctx, s.db).QueryContext(ctx, query, eventID, dateParam(day))
	if err != nil {
		return nil, fmt.Errorf("list check-ins for date: %w", err)
	}
	defer rows.Close()

	out := []*checkinmodels.DayEntry{}
	for rows.Next() {
		var (
			log                      checkinmodels.CheckInLog
			p                        participantmodels.Participant
			dob                      time.Time
			region, mid, localRegion sql.NullString
			recorder                 accountmodels.Summary
			role                     string
		)
		err := rows.Scan(
			&log.ID, &log.ParticipantID, &log.EventID, &log.CheckInDate, &log.CheckedInAt, &log.RecordedBy,
			&p.ID, &p.EventID, &p.IDNumber, &p.Name, &dob, &p.Sex,
			&region, &mid, &localRegion, &p.CreatedAt, &p.UpdatedAt,
			&recorder.ID, &recorder.Name, &recorder.Email, &role,
		)
		if err != nil {
			return nil, fmt.Errorf("scan check-in for date: %w", err)
		}
		p.DateOfBirth = participantmodels.NewDate(dob)
		p.Region, p.MidRegion, p.LocalRegion = region.String, mid.String, localRegion.String
		recorder.Role = accountmodels.Role(role)
		out = append(out, &checkinmodels.DayEntry{CheckIn: &log, Participant: &p, Recorder: recorder})
	}
	return out, rows.Err()
}
