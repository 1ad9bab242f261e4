// Package graph describes the read-only commit graph the walkers traverse.
//
// A Store looks commits up by id. A ParentResolver turns "parent i of commit c"
// into a Commit; Resolver is the standard implementation over a Store.
package graph

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is wrapped by Store implementations for unknown ids.
	ErrNotFound = errors.New("commit not found")
	// ErrIndexOutOfRange is the cause of a ResolutionError for a parent index
	// outside [0, ParentCount).
	ErrIndexOutOfRange = errors.New("parent index out of range")
)

// Commit is a node in the history graph. It is never mutated once a Store has
// returned it.
type Commit struct {
	ID      string
	Parents []string
}

// ParentCount returns the number of parents; zero for a root commit.
func (c *Commit) ParentCount() int {
	return len(c.Parents)
}

// IsRoot reports whether c has no parents.
func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

func (c *Commit) String() string {
	return c.ID
}

// Store looks up commits by id. Implementations must be safe for concurrent use.
type Store interface {
	Lookup(ctx context.Context, id string) (*Commit, error)
}

// ParentResolver resolves the index-th parent of a commit. Failures are
// returned as *ResolutionError.
type ParentResolver interface {
	ResolveParent(ctx context.Context, c *Commit, index int) (*Commit, error)
}

// ResolutionError reports a failed parent lookup.
type ResolutionError struct {
	Commit string
	Index  int
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve parent %d of %s: %v", e.Index, e.Commit, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
