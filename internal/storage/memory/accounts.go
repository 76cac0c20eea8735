package memory

import (
	"context"
	"slices"

	accountmodels "rollcall/internal/account/models"
	id "rollcall/pkg/domain"
	"rollcall/pkg/platform/sentinel"
)

type AccountStore struct {
	db *DB
}

// Create inserts an account. Emails are unique. A delegate's owner must exist
// and be a top-level owner, mirroring the conditional insert in PostgreSQL.
func (s *AccountStore) Create(ctx context.Context, acct *accountmodels.Account) error {
	return s.db.write(ctx, func(t *tables) error {
		if _, taken := t.accountEmails[acct.Email]; taken {
			return sentinel.ErrAlreadyUsed
		}
		if _, exists := t.accounts[acct.ID]; exists {
			return sentinel.ErrAlreadyUsed
		}
		if acct.OwnerID != nil {
			owner, ok := t.accounts[*acct.OwnerID]
			if !ok {
				return sentinel.ErrNotFound
			}
			if owner.Role != accountmodels.RoleOwner || owner.OwnerID != nil {
				return sentinel.ErrInvalidState
			}
		}
		row := *acct
		t.accounts[acct.ID] = &row
		t.accountEmails[acct.Email] = acct.ID
		t.stamp(acct.ID)
		return nil
	})
}

func (s *AccountStore) FindByID(ctx context.Context, accountID id.AccountID) (*accountmodels.Account, error) {
	var out *accountmodels.Account
	err := s.db.read(ctx, func(t *tables) error {
		acct, ok := t.accounts[accountID]
		if !ok {
			return sentinel.ErrNotFound
		}
		row := *acct
		out = &row
		return nil
	})
	return out, err
}

// ListDelegates returns the owner's delegates, oldest first.
func (s *AccountStore) ListDelegates(ctx context.Context, ownerID id.AccountID) ([]*accountmodels.Account, error) {
	out := []*accountmodels.Account{}
	err := s.db.read(ctx, func(t *tables) error {
		for _, acct := range t.accounts {
			if acct.OwnerID != nil && *acct.OwnerID == ownerID {
				row := *acct
				out = append(out, &row)
			}
		}
		slices.SortFunc(out, func(a, b *accountmodels.Account) int {
			return compareSeq(t, a.ID, b.ID)
		})
		return nil
	})
	return out, err
}

func compareSeq(t *tables, a, b any) int {
	sa, sb := t.seq[a], t.seq[b]
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}
