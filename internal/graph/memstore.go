package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// MemStore is an in-memory Store.
type MemStore struct {
	mu      sync.RWMutex
	commits map[string]*Commit
}

func NewMemStore(commits ...*Commit) *MemStore {
	s := &MemStore{commits: make(map[string]*Commit, len(commits))}
	for _, c := range commits {
		s.commits[c.ID] = c
	}
	return s
}

// Add stores a commit with the given parents and returns it.
func (s *MemStore) Add(id string, parents ...string) *Commit {
	c := &Commit{ID: id, Parents: parents}
	s.mu.Lock()
	s.commits[id] = c
	s.mu.Unlock()
	return c
}

func (s *MemStore) Lookup(_ context.Context, id string) (*Commit, error) {
	s.mu.RLock()
	c, ok := s.commits[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "commit %s", id)
	}
	return c, nil
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.commits)
}

// Synthesize builds a history of depth+1 mainline commits c0..c<depth>, c0 being
// the root. When mergeEvery > 0, every mergeEvery-th mainline commit is a merge
// whose second parent is a side commit branching off two commits earlier, so the
// two paths back to c0 have different lengths. Commits are returned parents
// first; the last one is the head.
func Synthesize(depth, mergeEvery int) []*Commit {
	out := make([]*Commit, 0, depth+1)
	mainline := func(i int) string { return fmt.Sprintf("c%d", i) }

	out = append(out, &Commit{ID: mainline(0)})
	for i := 1; i <= depth; i++ {
		parents := []string{mainline(i - 1)}
		if mergeEvery > 0 && i%mergeEvery == 0 && i >= 2 {
			side := &Commit{ID: fmt.Sprintf("s%d", i), Parents: []string{mainline(i - 2)}}
			out = append(out, side)
			parents = append(parents, side.ID)
		}
		out = append(out, &Commit{ID: mainline(i), Parents: parents})
	}
	return out
}
