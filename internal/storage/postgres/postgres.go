// Package postgres holds the SQL stores. Each store joins the transaction
// carried in the context, if any, through txcontext.ExecerFrom.
package postgres

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	id "rollcall/pkg/domain"
)

// DB bundles the stores over one connection pool.
type DB struct {
	db *sql.DB
}

func New(db *sql.DB) *DB {
	return &DB{db: db}
}

func (d *DB) Accounts() *AccountStore         { return &AccountStore{db: d.db} }
func (d *DB) Events() *EventStore             { return &EventStore{db: d.db} }
func (d *DB) Participants() *ParticipantStore { return &ParticipantStore{db: d.db} }
func (d *DB) CheckIns() *CheckInStore         { return &CheckInStore{db: d.db} }

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullAccountID(accountID *id.AccountID) uuid.NullUUID {
	if accountID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*accountID), Valid: true}
}

func dateParam(day time.Time) string {
	return day.Format(time.DateOnly)
}
