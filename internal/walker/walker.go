// Package walker races from a commit to the first root commit reachable through
// its ancestors.
//
// Every parent edge of a visited commit is resolved on its own goroutine, so a
// merge commit's parents are explored concurrently and history depth is bounded
// by memory rather than by the call stack. A task reports exactly once: with
// the first root any branch reaches, or with the error that stopped it.
package walker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"gitwalk/internal/graph"
)

// ErrNoRoot is reported when every branch finished without reaching a root.
var ErrNoRoot = errors.New("no root commit reachable")

// VisitFunc is called for every non-root commit a task visits. It is advisory
// and must not block for long.
type VisitFunc func(ctx context.Context, c *graph.Commit)

type Options struct {
	// SkipVisited resolves each ancestor at most once per task, even when it
	// is reachable through several merge paths.
	SkipVisited bool
	Hook        VisitFunc
}

// Task is one traversal attempt. Worker identifies it in logs and results.
type Task struct {
	Worker int
	Root   *graph.Commit
}

// Result is what a task reports. Err is nil iff Root is set.
type Result struct {
	Worker      int
	Root        *graph.Commit
	Visited     int64
	Resolutions int64
	Elapsed     time.Duration
	Err         error
}

type Walker struct {
	resolver graph.ParentResolver
	opts     Options
	log      *logrus.Entry
}

func New(resolver graph.ParentResolver, opts Options) *Walker {
	return &Walker{
		resolver: resolver,
		opts:     opts,
		log:      logrus.WithField("component", "walker"),
	}
}

// Start runs task in the background and calls onDone exactly once with its
// result.
func (w *Walker) Start(ctx context.Context, task Task, onDone func(Result)) {
	go func() {
		onDone(w.Walk(ctx, task))
	}()
}

// Walk runs task and blocks until it reports. The task settles on whichever
// comes first, a root or a resolution error; branches still in flight at that
// point are cancelled and their outcomes dropped.
func (w *Walker) Walk(ctx context.Context, task Task) Result {
	start := time.Now()
	res := Result{Worker: task.Worker}
	if task.Root == nil {
		res.Err = errors.Errorf("worker %d: no starting commit", task.Worker)
		return res
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(searchCtx)

	s := &search{
		resolver: w.resolver,
		hook:     w.opts.Hook,
		group:    group,
		cancel:   cancel,
	}
	if w.opts.SkipVisited {
		s.seen = make(map[string]struct{})
		s.markSeen(task.Root.ID)
	}

	s.visit(groupCtx, task.Root)
	err := group.Wait()

	res.Elapsed = time.Since(start)
	res.Visited = s.visited.Load()
	res.Resolutions = s.resolutions.Load()
	switch {
	case s.root != nil:
		res.Root = s.root
	case ctx.Err() != nil:
		res.Err = ctx.Err()
	case s.err != nil:
		res.Err = s.err
	case err != nil:
		res.Err = err
	default:
		res.Err = ErrNoRoot
	}

	fields := logrus.Fields{"worker": task.Worker, "elapsed": res.Elapsed, "visited": res.Visited}
	if res.Err != nil {
		w.log.WithFields(fields).WithError(res.Err).Debug("worker failed")
	} else {
		w.log.WithFields(fields).Debugf("worker %d done in %s, reached %s", task.Worker, res.Elapsed, res.Root.ID)
	}
	return res
}

// search is the state of one task.
type search struct {
	resolver graph.ParentResolver
	hook     VisitFunc
	group    *errgroup.Group
	cancel   context.CancelFunc

	// settled is claimed once, by the first root or the first error.
	settled atomic.Bool
	root    *graph.Commit
	err     error

	mu   sync.Mutex
	seen map[string]struct{}

	visited     atomic.Int64
	resolutions atomic.Int64
}

func (s *search) visit(ctx context.Context, c *graph.Commit) {
	if s.settled.Load() || ctx.Err() != nil {
		return
	}
	s.visited.Add(1)

	if c.IsRoot() {
		s.report(c)
		return
	}

	if s.hook != nil {
		s.hook(ctx, c)
	}

	for i := 0; i < c.ParentCount(); i++ {
		i := i // per-iteration copy (go directive < 1.22)
		if s.seen != nil && !s.markSeen(c.Parents[i]) {
			continue
		}
		s.group.Go(func() error {
			s.resolutions.Add(1)
			parent, err := s.resolver.ResolveParent(ctx, c, i)
			if err != nil {
				return s.fail(err)
			}
			s.visit(ctx, parent)
			return nil
		})
	}
}

// report settles the task on root c. It returns false if the task had already
// settled.
func (s *search) report(c *graph.Commit) bool {
	if !s.settled.CompareAndSwap(false, true) {
		return false
	}
	s.root = c
	s.cancel()
	return true
}

// fail settles the task on err and returns it, or returns nil if the task had
// already settled.
func (s *search) fail(err error) error {
	if !s.settled.CompareAndSwap(false, true) {
		return nil
	}
	s.err = err
	s.cancel()
	return err
}

// markSeen records id and reports whether it was new.
func (s *search) markSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}
