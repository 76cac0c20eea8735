package registry

import (
	"strings"

	eventmodels "rollcall/internal/event/models"
	dErrors "rollcall/pkg/domain-errors"
)

// Filters narrows a lookup geographically. Each level is only present when
// every coarser level is present.
type Filters struct {
	Region      string `json:"region"`
	MidRegion   string `json:"midRegion,omitempty"`
	LocalRegion string `json:"localRegion,omitempty"`
}

// FiltersForEvent derives lookup filters from the event alone. An event
// without a region cannot be used for verification.
func FiltersForEvent(event *eventmodels.Event) (Filters, error) {
	if event == nil {
		return Filters{}, dErrors.New(dErrors.CodePreconditionFailed, "event is required for verification")
	}
	f := Filters{Region: strings.TrimSpace(event.Region)}
	if f.Region == "" {
		return Filters{}, dErrors.New(dErrors.CodePreconditionFailed, "event has no region; verification unavailable")
	}
	if mid := strings.TrimSpace(event.MidRegion); mid != "" {
		f.MidRegion = mid
		// a local region is never forwarded without its mid region
		f.LocalRegion = strings.TrimSpace(event.LocalRegion)
	}
	return f, nil
}

// Depth reports how many levels are set.
func (f Filters) Depth() int {
	switch {
	case f.LocalRegion != "":
		return 3
	case f.MidRegion != "":
		return 2
	case f.Region != "":
		return 1
	}
	return 0
}

// Matches reports whether a record falls inside the filters.
func (f Filters) Matches(r *CitizenRecord) bool {
	if r == nil || !strings.EqualFold(r.Region, f.Region) {
		return false
	}
	if f.MidRegion != "" && !strings.EqualFold(r.MidRegion, f.MidRegion) {
		return false
	}
	if f.LocalRegion != "" && !strings.EqualFold(r.LocalRegion, f.LocalRegion) {
		return false
	}
	return true
}
