package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder[T any] struct {
	mu  sync.Mutex
	got []T
	ch  chan struct{}
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{ch: make(chan struct{}, 16)}
}

func (r *recorder[T]) deliver(v T) {
	r.mu.Lock()
	r.got = append(r.got, v)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.got...)
}

func (r *recorder[T]) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("nothing delivered")
	}
}

func TestBurstDeliversOnlyLastValue(t *testing.T) {
	rec := newRecorder[string]()
	v := New(50*time.Millisecond, "", rec.deliver)

	for _, s := range []string{"K", "Kr", "Kra", "Krak", "Kraków"} {
		v.Set(s)
		time.Sleep(2 * time.Millisecond)
	}
	rec.wait(t)

	// Give a stale timer the chance to misfire.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"Kraków"}, rec.values())
	assert.Equal(t, "Kraków", v.Latest())
	assert.False(t, v.Pending())
}

func TestLatestKeepsInitialUntilSettled(t *testing.T) {
	rec := newRecorder[int]()
	v := New(time.Hour, 7, rec.deliver)

	v.Set(9)
	assert.Equal(t, 7, v.Latest())
	assert.True(t, v.Pending())
	v.Stop()
}

func TestFlushDeliversImmediately(t *testing.T) {
	rec := newRecorder[int]()
	v := New(time.Hour, 0, rec.deliver)

	v.Set(1)
	v.Set(2)
	v.Flush()

	require.Equal(t, []int{2}, rec.values())
	assert.Equal(t, 2, v.Latest())

	// Nothing pending, so a second flush is a no-op.
	v.Flush()
	assert.Len(t, rec.values(), 1)
}

func TestStopCancelsPending(t *testing.T) {
	rec := newRecorder[int]()
	v := New(20*time.Millisecond, 0, rec.deliver)

	v.Set(5)
	v.Stop()
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, rec.values())
	assert.Equal(t, 0, v.Latest())
}

func TestSeparateInstancesAreIndependent(t *testing.T) {
	city := newRecorder[string]()
	price := newRecorder[string]()
	c := New(20*time.Millisecond, "", city.deliver)
	p := New(40*time.Millisecond, "", price.deliver)

	c.Set("Gdańsk")
	p.Set("500000")
	city.wait(t)
	price.wait(t)

	assert.Equal(t, []string{"Gdańsk"}, city.values())
	assert.Equal(t, []string{"500000"}, price.values())
}
