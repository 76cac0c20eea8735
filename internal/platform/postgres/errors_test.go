package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "check_in_logs_daily_key"}

	assert.True(t, IsUniqueViolation(dup, "check_in_logs_daily_key"))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup), ""))
	assert.False(t, IsUniqueViolation(dup, "accounts_email_key"))
	assert.False(t, IsUniqueViolation(errors.New("23505"), ""))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "participants_event_id_fkey"}

	assert.True(t, IsForeignKeyViolation(fk, ""))
	assert.True(t, IsForeignKeyViolation(fk, "participants_event_id_fkey"))
	assert.False(t, IsForeignKeyViolation(fk, "check_in_logs_event_id_fkey"))
}
