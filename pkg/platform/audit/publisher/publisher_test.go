package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "rollcall/pkg/platform/audit"
	"rollcall/pkg/platform/audit/store/memory"
	"rollcall/pkg/requestcontext"
)

func TestPublisher_FillsRequestFields(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	err := pub.Emit(ctx, audit.Event{Action: string(audit.EventCheckInRecorded), ActorID: "acct"})
	require.NoError(t, err)

	events, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_ComplianceFailsClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	store.FailOn(audit.EventEventDeleted, errors.New("disk full"))
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventEventDeleted)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compliance audit persistence failed")
}

func TestPublisher_OperationsIsBestEffort(t *testing.T) {
	store := memory.NewInMemoryStore()
	store.FailOn(audit.EventCheckInRejected, errors.New("broker down"))
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventCheckInRejected)})
	assert.NoError(t, err)
}

func TestPublisher_RequiresAction(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	assert.Error(t, pub.Emit(context.Background(), audit.Event{}))
}

func TestHashSubjectID(t *testing.T) {
	assert.Empty(t, audit.HashSubjectID(""))
	h := audit.HashSubjectID("A123")
	assert.Len(t, h, 64)
	assert.Equal(t, h, audit.HashSubjectID("A123"))
	assert.NotEqual(t, h, audit.HashSubjectID("A124"))
}
