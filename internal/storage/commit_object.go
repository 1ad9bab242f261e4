package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"

	"gitwalk/internal/gitdb"
	"gitwalk/internal/graph"
)

// Commit is a commit object as stored in the database.
type Commit struct {
	ID        string   `json:"-"`
	Message   string   `json:"message"`
	Branch    string   `json:"branch"`
	Timestamp int64    `json:"timestamp"`
	Parents   []string `json:"parents,omitempty"`
}

func objectKey(id string) string {
	return "objects/" + id
}

// NewCommit builds a commit and derives its id from the encoded content.
func NewCommit(message, branch string, timestamp int64, parents ...string) (Commit, []byte, error) {
	c := Commit{Message: message, Branch: branch, Timestamp: timestamp, Parents: parents}
	data, err := json.Marshal(c)
	if err != nil {
		return Commit{}, nil, err
	}
	sum := sha1.Sum(data)
	c.ID = hex.EncodeToString(sum[:])
	return c, data, nil
}

// WriteCommit creates and stores a commit object. Every parent must exist.
func (s *Store) WriteCommit(message, branch string, timestamp int64, parents ...string) (Commit, error) {
	for _, p := range parents {
		if !s.db.Has(objectKey(p)) {
			return Commit{}, errors.Wrapf(graph.ErrNotFound, "parent %s", p)
		}
	}
	c, data, err := NewCommit(message, branch, timestamp, parents...)
	if err != nil {
		return Commit{}, errors.Wrap(err, "failed to encode commit")
	}
	if err := s.db.Put(objectKey(c.ID), data); err != nil {
		return Commit{}, err
	}
	return c, nil
}

// ReadCommit loads and decodes a commit object.
func (s *Store) ReadCommit(id string) (Commit, error) {
	data, err := s.db.Get(objectKey(id))
	if err != nil {
		if errors.Is(err, gitdb.ErrKeyNotFound) {
			return Commit{}, errors.Wrapf(graph.ErrNotFound, "commit %s", id)
		}
		return Commit{}, err
	}
	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return Commit{}, errors.Wrapf(err, "corrupt commit object %s", id)
	}
	c.ID = id
	return c, nil
}

// Lookup implements graph.Store.
func (s *Store) Lookup(ctx context.Context, id string) (*graph.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.ReadCommit(id)
	if err != nil {
		return nil, err
	}
	return &graph.Commit{ID: c.ID, Parents: c.Parents}, nil
}
