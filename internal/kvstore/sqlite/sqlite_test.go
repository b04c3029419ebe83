package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/induohouse/induoweb/internal/db"
	"github.com/induohouse/induoweb/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewKVStore(database)
}

func TestKVStoreSetGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "induo_favorites", []byte(`[1,2]`)))

	got, err := store.Get(ctx, "induo_favorites")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))
}

func TestKVStoreUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("a")))
	require.NoError(t, store.Set(ctx, "k", []byte("b")))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))

	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM kv_entries").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestKVStoreNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestKVStoreSubscribe(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Subscribe(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", []byte("v")))

	select {
	case v := <-ch:
		assert.Equal(t, "v", string(v))
	case <-time.After(time.Second):
		t.Fatal("no value delivered")
	}
}
