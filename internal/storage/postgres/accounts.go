package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	accountmodels "rollcall/internal/account/models"
	platformpg "rollcall/internal/platform/postgres"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
	txcontext "rollcall/pkg/platform/tx"
)

type AccountStore struct {
	db *sql.DB
}

const accountColumns = `id, name, email, role, owner_id, created_at`

// Create inserts an account. A delegate row is only written when its owner
// exists and is a top-level owner; the check and the insert are one statement.
func (s *AccountStore) Create(ctx context.Context, acct *accountmodels.Account) error {
	const query = `
		INSERT INTO accounts (id, name, email, role, owner_id, created_at)
		SELECT $1::uuid, $2::text, $3::text, $4::text, $5::uuid, $6::timestamptz
		WHERE $5::uuid IS NULL OR EXISTS (
			SELECT 1 FROM accounts WHERE id = $5 AND role = 'owner' AND owner_id IS NULL
		)
	`
	exec := txcontext.ExecerFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, query,
		acct.ID,
		acct.Name,
		acct.Email,
		string(acct.Role),
		nullAccountID(acct.OwnerID),
		acct.CreatedAt,
	)
	if err != nil {
		switch {
		case platformpg.IsUniqueViolation(err, ""):
			return sentinel.ErrAlreadyUsed
		case platformpg.IsForeignKeyViolation(err, ""):
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	if n == 1 {
		return nil
	}

	// nothing inserted: the owner is missing or is itself a delegate
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, nullAccountID(acct.OwnerID)).Scan(&exists); err != nil {
		return fmt.Errorf("check account owner: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *AccountStore) FindByID(ctx context.Context, accountID id.AccountID) (*accountmodels.Account, error) {
	row := txcontext.ExecerFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	acct, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acct, nil
}

// ListDelegates returns the owner's delegates, oldest first.
func (s *AccountStore) ListDelegates(ctx context.Context, ownerID id.AccountID) ([]*accountmodels.Account, error) {
	rows, err := txcontext.ExecerFrom(ctx, s.db).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list delegates: %w", err)
	}
	defer rows.Close()

	out := []*accountmodels.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delegate: %w", err)
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*accountmodels.Account, error) {
	var (
		acct  accountmodels.Account
		role  string
		owner uuid.NullUUID
	)
	if err := row.Scan(&acct.ID, &acct.Name, &acct.Email, &role, &owner, &acct.CreatedAt); err != nil {
		return nil, err
	}
	acct.Role = accountmodels.Role(role)
	if owner.Valid {
		ownerID := id.AccountID(owner.UUID)
		acct.OwnerID = &ownerID
	}
	return &acct, nil
}
