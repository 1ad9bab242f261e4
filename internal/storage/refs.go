package storage

import (
	"strings"

	"github.com/pkg/errors"

	"gitwalk/internal/gitdb"
)

const (
	headKey      = "meta/HEAD"
	headsPrefix  = "refs/heads/"
	symrefPrefix = "ref: refs/heads/"
)

func branchKey(branch string) string {
	return headsPrefix + branch
}

// validateBranch applies minimal ref-name rules.
func validateBranch(branch string) error {
	if branch == "" {
		return errors.New("branch name cannot be empty")
	}
	if strings.ContainsAny(branch, " \t\n") {
		return errors.New("invalid branch name: contains whitespace")
	}
	if strings.Contains(branch, "..") || strings.ContainsAny(branch, "~^:") {
		return errors.New("invalid branch name: contains illegal characters")
	}
	return nil
}

// EnsureBranch creates refs/heads/<branch> with no commits if missing.
func (s *Store) EnsureBranch(branch string) error {
	if err := validateBranch(branch); err != nil {
		return err
	}
	if s.db.Has(branchKey(branch)) {
		return nil
	}
	return s.db.Put(branchKey(branch), []byte(""))
}

// WriteBranch points refs/heads/<branch> at commit id.
func (s *Store) WriteBranch(branch, id string) error {
	if err := validateBranch(branch); err != nil {
		return err
	}
	return s.db.Put(branchKey(branch), []byte(id+"\n"))
}

// ReadBranch returns the tip of branch, or "" when it has no commits or does
// not exist.
func (s *Store) ReadBranch(branch string) (string, error) {
	b, err := s.db.Get(branchKey(branch))
	if err != nil {
		if errors.Is(err, gitdb.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ReadHEADBranch returns the branch HEAD points at.
func (s *Store) ReadHEADBranch() (string, error) {
	b, err := s.db.Get(headKey)
	if err != nil {
		return "", err
	}
	head := strings.TrimSpace(string(b))
	if !strings.HasPrefix(head, symrefPrefix) {
		return "", errors.Errorf("invalid HEAD format: %q", head)
	}
	branch := strings.TrimPrefix(head, symrefPrefix)
	if err := validateBranch(branch); err != nil {
		return "", err
	}
	return branch, nil
}

// WriteHEADBranch points HEAD at branch.
func (s *Store) WriteHEADBranch(branch string) error {
	if err := validateBranch(branch); err != nil {
		return err
	}
	return s.db.Put(headKey, []byte(symrefPrefix+branch+"\n"))
}

// ListBranches returns every branch name in first-written order.
func (s *Store) ListBranches() ([]string, error) {
	var branches []string
	seen := make(map[string]bool)
	err := s.db.Scan(func(record gitdb.Record) error {
		if name, ok := strings.CutPrefix(record.Key, headsPrefix); ok && !seen[name] {
			seen[name] = true
			branches = append(branches, name)
		}
		return nil
	})
	return branches, err
}

// ResolveRevision turns "HEAD", a branch name or a full commit id into a
// commit id.
func (s *Store) ResolveRevision(rev string) (string, error) {
	if rev == "" || rev == "HEAD" {
		branch, err := s.ReadHEADBranch()
		if err != nil {
			return "", err
		}
		rev = branch
	}
	if s.db.Has(branchKey(rev)) {
		id, err := s.ReadBranch(rev)
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", errors.Errorf("branch %s has no commits", rev)
		}
		return id, nil
	}
	if s.db.Has(objectKey(rev)) {
		return rev, nil
	}
	return "", errors.Errorf("unknown revision %q", rev)
}
