// Package memory is the in-process storage used for development and tests.
// A single DB plays the role of the database: every sub-store shares its lock,
// uniqueness keys and cascades, so the rules match the PostgreSQL schema.
package memory

import (
	"context"
	"maps"
	"sync"

	accountmodels "rollcall/internal/account/models"
	checkinmodels "rollcall/internal/checkin/models"
	eventmodels "rollcall/internal/event/models"
	participantmodels "rollcall/internal/participant/models"
	id "rollcall/pkg/domain"
)

type participantKey struct {
	eventID  id.EventID
	idNumber string
}

type checkInKey struct {
	participantID id.ParticipantID
	eventID       id.EventID
	day           string
}

type tables struct {
	accounts        map[id.AccountID]*accountmodels.Account
	accountEmails   map[string]id.AccountID
	events          map[id.EventID]*eventmodels.Event
	participants    map[id.ParticipantID]*participantmodels.Participant
	participantKeys map[participantKey]id.ParticipantID
	checkIns        map[id.CheckInID]*checkinmodels.CheckInLog
	checkInKeys     map[checkInKey]id.CheckInID
	// seq orders rows that share a timestamp, newest last.
	seq    map[any]uint64
	nextSq uint64
}

func newTables() tables {
	return tables{
		accounts:        make(map[id.AccountID]*accountmodels.Account),
		accountEmails:   make(map[string]id.AccountID),
		events:          make(map[id.EventID]*eventmodels.Event),
		participants:    make(map[id.ParticipantID]*participantmodels.Participant),
		participantKeys: make(map[participantKey]id.ParticipantID),
		checkIns:        make(map[id.CheckInID]*checkinmodels.CheckInLog),
		checkInKeys:     make(map[checkInKey]id.CheckInID),
		seq:             make(map[any]uint64),
	}
}

// clone copies the maps. Rows are never mutated in place, so sharing the
// pointers is safe.
func (t tables) clone() tables {
	return tables{
		accounts:        maps.Clone(t.accounts),
		accountEmails:   maps.Clone(t.accountEmails),
		events:          maps.Clone(t.events),
		participants:    maps.Clone(t.participants),
		participantKeys: maps.Clone(t.participantKeys),
		checkIns:        maps.Clone(t.checkIns),
		checkInKeys:     maps.Clone(t.checkInKeys),
		seq:             maps.Clone(t.seq),
		nextSq:          t.nextSq,
	}
}

func (t *tables) stamp(key any) {
	t.nextSq++
	t.seq[key] = t.nextSq
}

// DB holds every table behind one RWMutex. Writers outside a transaction also
// take txMu so a rollback never discards someone else's write.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	t    tables
}

func NewDB() *DB {
	return &DB{t: newTables()}
}

type txKey struct{}

func inTx(ctx context.Context, db *DB) bool {
	owner, ok := ctx.Value(txKey{}).(*DB)
	return ok && owner == db
}

// RunInTx runs fn with exclusive write access. When fn fails, every table is
// restored to its state before the call.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx, db) {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.t.clone()
	db.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.mu.Lock()
		db.t = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

// write runs fn under the write lock, serialized against open transactions.
func (db *DB) write(ctx context.Context, fn func(t *tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !inTx(ctx, db) {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.t)
}

func (db *DB) read(ctx context.Context, fn func(t *tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(&db.t)
}

func (db *DB) Accounts() *AccountStore         { return &AccountStore{db: db} }
func (db *DB) Events() *EventStore             { return &EventStore{db: db} }
func (db *DB) Participants() *ParticipantStore { return &ParticipantStore{db: db} }
func (db *DB) CheckIns() *CheckInStore         { return &CheckInStore{db: db} }
