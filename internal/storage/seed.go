package storage

import (
	"fmt"

	"github.com/pkg/errors"

	"gitwalk/internal/graph"
)

// Seed writes a synthetic history onto branch and points the branch at its
// last commit. commits must be ordered parents first, as returned by
// graph.Synthesize. It returns the id of the new tip.
func (s *Store) Seed(branch string, commits []*graph.Commit) (string, error) {
	if len(commits) == 0 {
		return "", errors.New("nothing to seed")
	}
	if err := s.EnsureBranch(branch); err != nil {
		return "", err
	}

	ids := make(map[string]string, len(commits))
	var tip string
	for i, c := range commits {
		parents := make([]string, 0, c.ParentCount())
		for _, p := range c.Parents {
			id, ok := ids[p]
			if !ok {
				return "", errors.Errorf("commit %s listed before its parent %s", c.ID, p)
			}
			parents = append(parents, id)
		}
		written, err := s.WriteCommit(fmt.Sprintf("synthetic %s", c.ID), branch, int64(i), parents...)
		if err != nil {
			return "", errors.Wrapf(err, "failed to write %s", c.ID)
		}
		ids[c.ID] = written.ID
		tip = written.ID
	}
	return tip, s.WriteBranch(branch, tip)
}
