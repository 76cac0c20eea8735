package models

import (
	"net/mail"
	"strings"
	"time"

	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleDelegate Role = "delegate"
)

func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleDelegate
}

// Account is an authenticated actor.
//
// Invariants:
//   - Owners never have an OwnerID
//   - A delegate's OwnerID, when set, references an owner that has no owner
//     itself, so the hierarchy is exactly one level deep
//   - Role is fixed at construction
type Account struct {
	ID        id.AccountID  `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      Role          `json:"role"`
	OwnerID   *id.AccountID `json:"ownerId,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Summary is the recorder view joined onto check-in logs.
type Summary struct {
	ID    id.AccountID `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  Role         `json:"role"`
}

func (a *Account) IsOwner() bool {
	return a != nil && a.Role == RoleOwner
}

// ScopeOwnerID returns the owner whose events this account works on. A
// delegate without an owner has no scope.
func (a *Account) ScopeOwnerID() (id.AccountID, bool) {
	if a == nil {
		return id.AccountID{}, false
	}
	switch a.Role {
	case RoleOwner:
		return a.ID, true
	case RoleDelegate:
		if a.OwnerID == nil || a.OwnerID.IsNil() {
			return id.AccountID{}, false
		}
		return *a.OwnerID, true
	}
	return id.AccountID{}, false
}

func (a *Account) Summary() Summary {
	return Summary{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

func NewOwner(accountID id.AccountID, name, email string, now time.Time) (*Account, error) {
	name, email, err := normalizeIdentity(name, email)
	if err != nil {
		return nil, err
	}
	return &Account{
		ID:        accountID,
		Name:      name,
		Email:     email,
		Role:      RoleOwner,
		CreatedAt: now,
	}, nil
}

// NewDelegate attaches a delegate to owner. The owner must be a top-level
// owner; delegating to a delegate is rejected.
func NewDelegate(accountID id.AccountID, name, email string, owner *Account, now time.Time) (*Account, error) {
	if owner == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "delegate requires an owner")
	}
	if owner.Role != RoleOwner || owner.OwnerID != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "delegates can only be attached to a top-level owner")
	}
	name, email, err := normalizeIdentity(name, email)
	if err != nil {
		return nil, err
	}
	ownerID := owner.ID
	return &Account{
		ID:        accountID,
		Name:      name,
		Email:     email,
		Role:      RoleDelegate,
		OwnerID:   &ownerID,
		CreatedAt: now,
	}, nil
}

func normalizeIdentity(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return "", "", dErrors.New(dErrors.CodeInvariantViolation, "account name cannot be empty")
	}
	if len(name) > 128 {
		return "", "", dErrors.New(dErrors.CodeInvariantViolation, "account name must be 128 characters or less")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", "", dErrors.New(dErrors.CodeInvariantViolation, "account email is invalid")
	}
	return name, email, nil
}
