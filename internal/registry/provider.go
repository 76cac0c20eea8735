// Package registry verifies individuals against the external identity
// registry. Lookups are one-shot: nothing is cached and nothing is retried.
package registry

import (
	"context"
	"time"
)

type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolStatic Protocol = "static"
)

// Capabilities describes what a provider supports.
type Capabilities struct {
	Protocol Protocol
	Version  string
	// Filters lists the location filters the provider understands, coarsest
	// first.
	Filters []string
	Fields  []string
}

// Query is a single lookup. Filters always come from the event.
type Query struct {
	IDNumber string  `json:"idNumber"`
	Filters  Filters `json:"filters"`
}

// CitizenRecord is the authoritative record returned by the registry. It is
// passed through to the caller and never stored.
type CitizenRecord struct {
	IDNumber    string    `json:"idNumber"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Sex         string    `json:"sex,omitempty"`
	Region      string    `json:"region,omitempty"`
	MidRegion   string    `json:"midRegion,omitempty"`
	LocalRegion string    `json:"localRegion,omitempty"`
	ProviderID  string    `json:"providerId"`
	CheckedAt   time.Time `json:"checkedAt"`
}

// Provider is implemented by every registry source.
type Provider interface {
	ID() string
	Capabilities() Capabilities
	// Lookup returns the matching record or a *ProviderError.
	Lookup(ctx context.Context, q Query) (*CitizenRecord, error)
	Health(ctx context.Context) error
}
