package storage

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"gitwalk/internal/gitdb"
)

const RepoDir = ".gitwalk"

type InitOptions struct {
	Bare bool
}

func repoRoot(root string, opts InitOptions) string {
	if opts.Bare {
		return root
	}
	return filepath.Join(root, RepoDir)
}

func dbPath(root string, opts InitOptions) string {
	return filepath.Join(repoRoot(root, opts), "db")
}

// InRepo checks whether root already contains a gitwalk repository.
func InRepo(root string, options InitOptions) bool {
	if options.Bare {
		if _, err := os.Stat(filepath.Join(root, "config")); err == nil {
			return true
		}
		_, err := os.Stat(filepath.Join(root, "db"))
		return err == nil
	}
	_, err := os.Stat(filepath.Join(root, RepoDir))
	return err == nil
}

// DetectOptions reports how the repository at root is laid out.
func DetectOptions(root string) (InitOptions, error) {
	if InRepo(root, InitOptions{}) {
		return InitOptions{}, nil
	}
	if InRepo(root, InitOptions{Bare: true}) {
		return InitOptions{Bare: true}, nil
	}
	return InitOptions{}, errors.Errorf("%s is not a gitwalk repository", root)
}

// InitRepo initializes root as a new repository with an empty master branch.
func InitRepo(root string, options InitOptions) error {
	if InRepo(root, options) {
		return errors.New("repository already initialized")
	}

	structure := map[string]any{
		"config": "[core]\n\tbare = " + strconv.FormatBool(options.Bare) + "\n",
		"db":     map[string]any{},
	}
	tree := structure
	if !options.Bare {
		tree = map[string]any{RepoDir: structure}
	}
	if err := WriteFilesFromTree(root, tree); err != nil {
		return err
	}

	db, err := gitdb.Open(dbPath(root, options))
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer db.Close()

	if err := db.Put(headKey, []byte("ref: refs/heads/master\n")); err != nil {
		return errors.Wrap(err, "failed to initialize HEAD")
	}
	if err := db.Put(branchKey("master"), []byte("")); err != nil {
		return errors.Wrap(err, "failed to initialize master ref")
	}
	return nil
}

// WriteFilesFromTree writes a nested file/directory structure to disk.
func WriteFilesFromTree(root string, tree map[string]any) error {
	for name, val := range tree {
		path := filepath.Join(root, name)

		switch v := val.(type) {
		case string:
			if err := os.WriteFile(path, []byte(v), 0644); err != nil {
				return err
			}
		case map[string]any:
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			if err := WriteFilesFromTree(path, v); err != nil {
				return err
			}
		default:
			return errors.Errorf("unsupported node type for %s", path)
		}
	}
	return nil
}
