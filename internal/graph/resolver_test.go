package graph

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveParent(t *testing.T) {
	store := NewMemStore()
	store.Add("root")
	child := store.Add("child", "root")

	r, err := NewResolver(store)
	require.NoError(t, err)

	parent, err := r.ResolveParent(context.Background(), child, 0)
	require.NoError(t, err)
	assert.Equal(t, "root", parent.ID)
	assert.True(t, parent.IsRoot())
	assert.EqualValues(t, 1, r.Calls())
	assert.EqualValues(t, 1, r.Lookups())
}

func TestResolveParentIndexOutOfRange(t *testing.T) {
	store := NewMemStore()
	child := store.Add("child", "root")
	r, err := NewResolver(store)
	require.NoError(t, err)

	for _, idx := range []int{-1, 1} {
		_, err = r.ResolveParent(context.Background(), child, idx)
		var rerr *ResolutionError
		require.True(t, errors.As(err, &rerr), "index %d", idx)
		assert.Equal(t, "child", rerr.Commit)
		assert.Equal(t, idx, rerr.Index)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	}
	assert.Zero(t, r.Lookups())
}

func TestResolveParentMissingObject(t *testing.T) {
	store := NewMemStore()
	child := store.Add("child", "gone")
	r, err := NewResolver(store)
	require.NoError(t, err)

	_, err = r.ResolveParent(context.Background(), child, 0)
	var rerr *ResolutionError
	require.True(t, errors.As(err, &rerr))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "gone")
}

func TestResolverCache(t *testing.T) {
	store := NewMemStore()
	store.Add("root")
	child := store.Add("child", "root")
	r, err := NewResolver(store, WithCache(8))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := r.ResolveParent(context.Background(), child, 0)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 5, r.Calls())
	assert.EqualValues(t, 1, r.Lookups())
}

type countingStore struct {
	Store
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *countingStore) Lookup(ctx context.Context, id string) (*Commit, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return s.Store.Lookup(ctx, id)
}

func TestResolverMaxInFlight(t *testing.T) {
	mem := NewMemStore()
	mem.Add("root")
	child := mem.Add("child", "root")
	store := &countingStore{Store: mem}

	r, err := NewResolver(store, WithMaxInFlight(2))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ResolveParent(context.Background(), child, 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, store.peak.Load(), int32(2))
}

func TestResolverLatencyHonoursCancel(t *testing.T) {
	store := NewMemStore()
	store.Add("root")
	child := store.Add("child", "root")
	r, err := NewResolver(store, WithLatency(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.ResolveParent(ctx, child, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNegativeLatencyRejected(t *testing.T) {
	_, err := NewResolver(NewMemStore(), WithLatency(-time.Second))
	assert.Error(t, err)
}

type observerFunc func(time.Duration, error)

func (f observerFunc) ObserveResolve(d time.Duration, err error) { f(d, err) }

func TestResolverObserver(t *testing.T) {
	store := NewMemStore()
	child := store.Add("child", "root", "missing")
	store.Add("root")

	var ok, failed int
	r, err := NewResolver(store, WithObserver(observerFunc(func(_ time.Duration, err error) {
		if err != nil {
			failed++
			return
		}
		ok++
	})))
	require.NoError(t, err)

	_, _ = r.ResolveParent(context.Background(), child, 0)
	_, _ = r.ResolveParent(context.Background(), child, 1)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
}
