// Package policy decides whether an account may act on an event.
//
// Both functions are total: a nil event, a nil account or an unknown role is
// denied. Callers resolve the event first so a missing event surfaces as
// not-found rather than forbidden.
package policy

import (
	accountmodels "rollcall/internal/account/models"
	eventmodels "rollcall/internal/event/models"
)

// CanAccess reports whether account may read or record against event.
// Owners reach their own events; delegates reach their owner's events.
func CanAccess(event *eventmodels.Event, account *accountmodels.Account) bool {
	if event == nil || account == nil {
		return false
	}
	switch account.Role {
	case accountmodels.RoleOwner:
		return event.OwnerID == account.ID
	case accountmodels.RoleDelegate:
		if account.OwnerID == nil || account.OwnerID.IsNil() {
			return false
		}
		return event.OwnerID == *account.OwnerID
	default:
		return false
	}
}

// CanDelete reports whether account may delete event. Only the creating owner
// may; delegates never can.
func CanDelete(event *eventmodels.Event, account *accountmodels.Account) bool {
	if event == nil || account == nil {
		return false
	}
	return account.Role == accountmodels.RoleOwner && event.OwnerID == account.ID
}
