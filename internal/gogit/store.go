// Package gogit reads the commit graph of a real git repository through go-git.
package gogit

import (
	"context"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"

	"gitwalk/internal/graph"
)

// Store implements graph.Store over a go-git repository.
type Store struct {
	// go-git object storage is not safe for concurrent readers
	mu   sync.Mutex
	repo *git.Repository
}

// Open opens the repository containing path, searching parent directories for
// a .git directory.
func Open(path string) (*Store, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open git repository at %s", path)
	}
	return New(repo), nil
}

func New(repo *git.Repository) *Store {
	return &Store{repo: repo}
}

// ResolveRevision resolves anything go-git understands as a revision (HEAD,
// branch, tag, full or abbreviated hash) to a commit id. An empty rev means HEAD.
func (s *Store) ResolveRevision(rev string) (string, error) {
	if rev == "" {
		rev = "HEAD"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", errors.Wrapf(err, "unknown revision %q", rev)
	}
	return hash.String(), nil
}

// Lookup implements graph.Store.
func (s *Store) Lookup(ctx context.Context, id string) (*graph.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	c, err := s.repo.CommitObject(plumbing.NewHash(id))
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, errors.Wrapf(graph.ErrNotFound, "commit %s", id)
		}
		return nil, errors.Wrapf(err, "failed to read commit %s", id)
	}

	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &graph.Commit{ID: c.Hash.String(), Parents: parents}, nil
}
