package eventstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreAppendAndGetByRunID(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "run-1", TypeRunStarted, []byte(`{"operation":"sync"}`), map[string]string{"host": "ci"}))
	require.NoError(t, store.Append(ctx, "run-2", TypeRunStarted, []byte(`{"operation":"create"}`), nil))
	require.NoError(t, store.Append(ctx, "run-1", TypeRunCompleted, []byte(`{"status":"success"}`), nil))

	events, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, TypeRunStarted, events[0].Type())
	assert.Equal(t, TypeRunCompleted, events[1].Type())
	assert.Equal(t, "run-1", events[0].RunID())
	assert.Equal(t, map[string]string{"host": "ci"}, events[0].Metadata())
	assert.Nil(t, events[1].Metadata())
	assert.Less(t, events[0].ID(), events[1].ID())
}

func TestSQLiteStoreGetRange(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "run-1", TypeRunStarted, []byte(`{}`), nil))

	events, err := store.GetRange(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = store.GetRange(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLiteStorePersistsToFile(t *testing.T) {
	path := t.TempDir() + "/journal.db"
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "run-1", TypeRunStarted, []byte(`{}`), nil))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	events, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
