package graph

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// ResolveObserver is told about every store lookup a Resolver performs.
type ResolveObserver interface {
	ObserveResolve(d time.Duration, err error)
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithCache keeps up to size decoded commits in an LRU shared by all callers.
func WithCache(size int) Option {
	return func(r *Resolver) error {
		if size <= 0 {
			return nil
		}
		cache, err := lru.New[string, *Commit](size)
		if err != nil {
			return errors.Wrap(err, "failed to create commit cache")
		}
		r.cache = cache
		return nil
	}
}

// WithMaxInFlight bounds the number of concurrent store lookups.
func WithMaxInFlight(n int) Option {
	return func(r *Resolver) error {
		if n > 0 {
			r.sem = semaphore.NewWeighted(int64(n))
		}
		return nil
	}
}

// WithLatency delays every store lookup by d, emulating a slow object store.
func WithLatency(d time.Duration) Option {
	return func(r *Resolver) error {
		if d < 0 {
			return errors.Errorf("negative latency %s", d)
		}
		r.latency = d
		return nil
	}
}

// WithObserver registers o for lookup timings.
func WithObserver(o ResolveObserver) Option {
	return func(r *Resolver) error {
		r.observer = o
		return nil
	}
}

// Resolver implements ParentResolver over a Store.
type Resolver struct {
	store    Store
	cache    *lru.Cache[string, *Commit]
	sem      *semaphore.Weighted
	latency  time.Duration
	observer ResolveObserver

	calls   atomic.Int64
	lookups atomic.Int64
}

func NewResolver(store Store, opts ...Option) (*Resolver, error) {
	r := &Resolver{store: store}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ResolveParent returns parent index of c.
func (r *Resolver) ResolveParent(ctx context.Context, c *Commit, index int) (*Commit, error) {
	r.calls.Add(1)
	if index < 0 || index >= c.ParentCount() {
		return nil, &ResolutionError{Commit: c.ID, Index: index, Err: ErrIndexOutOfRange}
	}
	id := c.Parents[index]

	if r.cache != nil {
		if parent, ok := r.cache.Get(id); ok {
			return parent, nil
		}
	}

	parent, err := r.lookup(ctx, id)
	if err != nil {
		return nil, &ResolutionError{Commit: c.ID, Index: index, Err: err}
	}
	if r.cache != nil {
		r.cache.Add(id, parent)
	}
	return parent, nil
}

func (r *Resolver) lookup(ctx context.Context, id string) (*Commit, error) {
	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer r.sem.Release(1)
	}

	start := time.Now()
	if r.latency > 0 {
		timer := time.NewTimer(r.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	r.lookups.Add(1)
	commit, err := r.store.Lookup(ctx, id)
	if r.observer != nil {
		r.observer.ObserveResolve(time.Since(start), err)
	}
	return commit, err
}

// Calls returns how many ResolveParent calls have been made.
func (r *Resolver) Calls() int64 {
	return r.calls.Load()
}

// Lookups returns how many calls reached the underlying Store.
func (r *Resolver) Lookups() int64 {
	return r.lookups.Load()
}
