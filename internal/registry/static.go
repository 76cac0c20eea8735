package registry

import (
	"context"
	"strings"
	"sync"
	"time"
)

// StaticProvider serves a fixed record set. Used for local development when
// no registry URL is configured, and in tests.
type StaticProvider struct {
	id      string
	mu      sync.RWMutex
	records map[string]CitizenRecord
	failure error
}

func NewStaticProvider(id string, records ...CitizenRecord) *StaticProvider {
	p := &StaticProvider{id: id, records: make(map[string]CitizenRecord, len(records))}
	for _, r := range records {
		p.Put(r)
	}
	return p
}

// Put adds or replaces a record.
func (p *StaticProvider) Put(r CitizenRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[strings.TrimSpace(r.IDNumber)] = r
}

// FailWith makes every lookup return err until cleared with nil.
func (p *StaticProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failure = err
}

func (p *StaticProvider) ID() string { return p.id }

func (p *StaticProvider) Capabilities() Capabilities {
	return Capabilities{
		Protocol: ProtocolStatic,
		Version:  "v1",
		Filters:  []string{"region", "midRegion", "localRegion"},
		Fields:   []string{"name", "dateOfBirth", "sex", "region", "midRegion", "localRegion"},
	}
}

func (p *StaticProvider) Lookup(ctx context.Context, q Query) (*CitizenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProviderError(ErrorTimeout, p.id, "lookup cancelled", err)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.failure != nil {
		return nil, p.failure
	}
	r, ok := p.records[strings.TrimSpace(q.IDNumber)]
	if !ok || !q.Filters.Matches(&r) {
		return nil, NewProviderError(ErrorNotFound, p.id, "no matching record", nil)
	}
	r.ProviderID = p.id
	r.CheckedAt = time.Now()
	return &r, nil
}

func (p *StaticProvider) Health(context.Context) error { return nil }
