// Package storage lays a gitwalk repository out on top of a gitdb log: commit
// objects keyed by content hash, branch refs and HEAD.
package storage

import (
	"github.com/pkg/errors"

	"gitwalk/internal/gitdb"
)

// Store is an open repository. Reads are safe for concurrent use.
type Store struct {
	root string
	opts InitOptions
	db   *gitdb.DB
}

// Open opens the repository at root, detecting whether it is bare.
func Open(root string) (*Store, error) {
	opts, err := DetectOptions(root)
	if err != nil {
		return nil, err
	}
	db, err := gitdb.Open(dbPath(root, opts))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	return &Store{root: root, opts: opts, db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Root returns the directory the repository was opened from.
func (s *Store) Root() string {
	return s.root
}

// Bare reports whether the repository has no working directory layout.
func (s *Store) Bare() bool {
	return s.opts.Bare
}
