// Package scheduler fires timed rounds of concurrent walkers.
//
// On every tick of a fixed period the scheduler starts a round: Concurrency
// walkers launched from the same commit, followed by a fan-in barrier that
// completes once every walker has reported, successfully or not. The elapsed
// time of each round is handed to the registered observers. After Rounds
// rounds the ticker is stopped and the scheduler is inert.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"gitwalk/internal/graph"
	"gitwalk/internal/walker"
)

// ErrInert is returned by Run on a scheduler that has already run.
var ErrInert = errors.New("scheduler already ran")

type Config struct {
	Rounds      int
	Concurrency int
	Period      time.Duration
	// Overlap lets a tick start a round while earlier rounds are still
	// waiting on their walkers. By default rounds are strictly sequential and
	// ticks that arrive during a round are dropped.
	Overlap bool
}

func (c Config) Validate() error {
	if c.Rounds < 1 {
		return errors.Errorf("rounds must be at least 1, got %d", c.Rounds)
	}
	if c.Concurrency < 1 {
		return errors.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Period <= 0 {
		return errors.Errorf("period must be positive, got %s", c.Period)
	}
	return nil
}

// Runner starts one walker task and calls onDone exactly once when it reports.
type Runner interface {
	Start(ctx context.Context, task walker.Task, onDone func(walker.Result))
}

// Observer consumes round timings.
type Observer interface {
	RoundStarted(seq int)
	RoundFinished(result RoundResult)
}

// RoundResult is the measurement of one round.
type RoundResult struct {
	Seq     int
	Started time.Time
	Elapsed time.Duration
	Walkers int
	Failed  int
	// Roots counts how many walkers reported each root commit.
	Roots map[string]int
	// Err aggregates the failures of the round's walkers.
	Err error
}

type Option func(*Scheduler)

func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observers = append(s.observers, o)
	}
}

type Scheduler struct {
	cfg       Config
	runner    Runner
	observers []Observer
	log       *logrus.Entry

	ran    atomic.Bool
	rounds atomic.Int64
}

func New(cfg Config, runner Runner, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		cfg:    cfg,
		runner: runner,
		log:    logrus.WithField("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Rounds returns how many rounds have been started.
func (s *Scheduler) Rounds() int {
	return int(s.rounds.Load())
}

// Run executes the configured rounds from root and returns their results in
// round order. A cancelled context stops further rounds; rounds already
// started still complete their barrier and are included.
func (s *Scheduler) Run(ctx context.Context, root *graph.Commit) ([]RoundResult, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return nil, ErrInert
	}

	var (
		mu       sync.Mutex
		results  []RoundResult
		inflight errgroup.Group
	)
	collect := func(r RoundResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}
	finish := func() []RoundResult {
		_ = inflight.Wait()
		sort.Slice(results, func(i, j int) bool { return results[i].Seq < results[j].Seq })
		return results
	}

	ticker := time.NewTicker(s.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		case <-ticker.C:
		}
		// a tick and a cancellation can be ready together
		if err := ctx.Err(); err != nil {
			return finish(), err
		}

		if s.Rounds() >= s.cfg.Rounds {
			ticker.Stop()
			return finish(), nil
		}
		seq := int(s.rounds.Add(1))

		if s.cfg.Overlap {
			inflight.Go(func() error {
				collect(s.runRound(ctx, seq, root))
				return nil
			})
			continue
		}
		collect(s.runRound(ctx, seq, root))
	}
}

// round is the barrier state of one in-flight round.
type round struct {
	outstanding atomic.Int64
	done        chan struct{}

	mu     sync.Mutex
	result RoundResult
	errs   *multierror.Error
}

func (r *round) report(res walker.Result) {
	r.mu.Lock()
	if res.Err != nil {
		r.result.Failed++
		r.errs = multierror.Append(r.errs, errors.Wrapf(res.Err, "worker %d", res.Worker))
	} else {
		r.result.Roots[res.Root.ID]++
	}
	r.mu.Unlock()

	if r.outstanding.Add(-1) == 0 {
		close(r.done)
	}
}

func (s *Scheduler) runRound(ctx context.Context, seq int, root *graph.Commit) RoundResult {
	for _, o := range s.observers {
		o.RoundStarted(seq)
	}

	r := &round{
		done: make(chan struct{}),
		result: RoundResult{
			Seq:     seq,
			Started: time.Now(),
			Walkers: s.cfg.Concurrency,
			Roots:   make(map[string]int),
		},
	}
	r.outstanding.Store(int64(s.cfg.Concurrency))

	for i := 1; i <= s.cfg.Concurrency; i++ {
		s.runner.Start(ctx, walker.Task{Worker: i, Root: root}, r.report)
	}
	<-r.done

	r.mu.Lock()
	result := r.result
	result.Elapsed = time.Since(result.Started)
	result.Err = r.errs.ErrorOrNil()
	r.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"round":   seq,
		"elapsed": result.Elapsed,
		"walkers": result.Walkers,
		"failed":  result.Failed,
	}).Debug("round finished")

	for _, o := range s.observers {
		o.RoundFinished(result)
	}
	return result
}
