package favorites

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/induohouse/induoweb/internal/kvstore"
	"github.com/induohouse/induoweb/internal/kvstore/memory"
	"github.com/induohouse/induoweb/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every operation, like storage disabled by the browser.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage disabled")
}

func (brokenStore) Set(context.Context, string, []byte) error {
	return errors.New("storage disabled")
}

func (brokenStore) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("storage disabled")
}

func newStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	kv := memory.New()
	return New(kv, "", WithLogger(logging.Discard())), kv
}

func TestToggleAddsThenRemoves(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	assert.False(t, s.IsFavorite(ctx, 42))

	assert.True(t, s.Toggle(ctx, 42))
	assert.True(t, s.IsFavorite(ctx, 42))

	raw, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"ids":[42]}`, string(raw))

	assert.False(t, s.Toggle(ctx, 42))
	assert.False(t, s.IsFavorite(ctx, 42))
	assert.Empty(t, s.List(ctx))
}

func TestToggleTwiceRestoresSet(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	s.Add(ctx, 1)
	s.Add(ctx, 2)

	before := s.List(ctx)
	s.Toggle(ctx, 7)
	s.Toggle(ctx, 7)
	assert.Equal(t, before, s.List(ctx))

	s.Toggle(ctx, 2)
	s.Toggle(ctx, 2)
	assert.ElementsMatch(t, before, s.List(ctx))
}

func TestAddIsIdempotent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	s.Add(ctx, 5)
	s.Add(ctx, 5)
	assert.Equal(t, []int64{5}, s.List(ctx))
}

func TestListKeepsInsertionOrder(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	for _, id := range []int64{9, 3, 7} {
		s.Toggle(ctx, id)
	}
	assert.Equal(t, []int64{9, 3, 7}, s.List(ctx))
}

func TestRemoveAndClearAll(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	s.Add(ctx, 1)
	s.Add(ctx, 2)
	s.Add(ctx, 3)

	s.Remove(ctx, 2)
	s.Remove(ctx, 99)
	assert.Equal(t, []int64{1, 3}, s.List(ctx))

	s.ClearAll(ctx)
	assert.Empty(t, s.List(ctx))
}

func TestLegacyArrayIsReadAndUpgraded(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, StorageKey, []byte(`[4,8,4]`)))

	assert.Equal(t, []int64{4, 8}, s.List(ctx))

	s.Toggle(ctx, 15)
	raw, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"ids":[4,8,15]}`, string(raw))
}

func TestCorruptPayloadReadsAsEmpty(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	for _, raw := range []string{`not json`, `{"ids":[1]}`, `null`, `{"version":1,"ids":"x"}`} {
		require.NoError(t, kv.Set(ctx, StorageKey, []byte(raw)))
		assert.Empty(t, s.List(ctx), raw)
		assert.False(t, s.IsFavorite(ctx, 1), raw)
	}
}

func TestUnavailableStorageDegradesSilently(t *testing.T) {
	s := New(brokenStore{}, "", WithLogger(logging.Discard()))
	ctx := context.Background()

	assert.Empty(t, s.List(ctx))
	assert.NotPanics(t, func() {
		s.Toggle(ctx, 1)
		s.ClearAll(ctx)
	})

	_, err := s.Watch(ctx)
	assert.Error(t, err)
}

func TestChangeHook(t *testing.T) {
	var events []bool
	s := New(memory.New(), "", WithLogger(logging.Discard()), WithChangeHook(func(_ int64, added bool) {
		events = append(events, added)
	}))
	ctx := context.Background()

	s.Toggle(ctx, 1)
	s.Toggle(ctx, 1)
	s.Add(ctx, 2)
	s.Add(ctx, 2)
	assert.Equal(t, []bool{true, false, true}, events)
}

func TestKeyForScopesByVisitor(t *testing.T) {
	assert.Equal(t, StorageKey, KeyFor(""))
	assert.Equal(t, StorageKey+":abc", KeyFor("abc"))

	kv := memory.New()
	ctx := context.Background()
	a := New(kv, KeyFor("a"))
	b := New(kv, KeyFor("b"))
	a.Toggle(ctx, 1)
	assert.False(t, b.IsFavorite(ctx, 1))
}

func TestWatchStreamsChanges(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx)
	require.NoError(t, err)

	s.Toggle(ctx, 42)

	select {
	case ids := <-ch:
		assert.Equal(t, []int64{42}, ids)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}

	cancel()
	for range ch {
	}
}

func TestDecodeVersions(t *testing.T) {
	ids, version, err := Decode([]byte(`[1,2]`))
	require.NoError(t, err)
	assert.Equal(t, 0, version)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, version, err = Decode([]byte(`{"version":1,"ids":[3]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, []int64{3}, ids)

	_, _, err = Decode([]byte(`{}`))
	assert.Error(t, err)
}

var _ kvstore.Store = brokenStore{}
