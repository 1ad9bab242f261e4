package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gitwalk/internal/config"
	"gitwalk/internal/gogit"
	"gitwalk/internal/graph"
	"gitwalk/internal/storage"
)

// backend is a commit store that can also turn revisions into commit ids.
type backend interface {
	graph.Store
	ResolveRevision(rev string) (string, error)
}

type memBackend struct {
	*graph.MemStore
	head string
}

func (m memBackend) ResolveRevision(rev string) (string, error) {
	if rev == "" || rev == "HEAD" {
		return m.head, nil
	}
	return rev, nil
}

// openBackend opens the store selected by cfg. The returned close function is
// never nil.
func openBackend(cfg *config.Config) (backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendGoGit:
		s, err := gogit.Open(cfg.Repo)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case config.BackendGitDB:
		s, err := storage.Open(cfg.Repo)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		commits := graph.Synthesize(cfg.Synthetic.Depth, cfg.Synthetic.MergeEvery)
		return memBackend{MemStore: graph.NewMemStore(commits...), head: commits[len(commits)-1].ID}, noop, nil
	}
	return nil, noop, errors.Errorf("unknown backend %q", cfg.Backend)
}

// storeFlags maps configuration keys to the flags addStoreFlags registers.
var storeFlags = map[string]string{
	"repo":                  "repo",
	"backend":               "backend",
	"commit":                "commit",
	"skip_visited":          "skip-visited",
	"cache_size":            "cache-size",
	"max_inflight":          "max-inflight",
	"latency":               "latency",
	"gc_every":              "gc-every",
	"synthetic.depth":       "depth",
	"synthetic.merge_every": "merge-every",
}

// addStoreFlags registers the flags that select and tune the commit store.
func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("repo", ".", "repository path")
	f.String("backend", config.BackendGoGit, "commit store: gogit, gitdb or memory")
	f.String("commit", "", "starting revision (default HEAD)")
	f.Bool("skip-visited", true, "resolve each ancestor at most once per walker")
	f.Int("cache-size", 0, "decoded commit LRU size, 0 disables")
	f.Int("max-inflight", 0, "max concurrent store lookups, 0 is unlimited")
	f.Duration("latency", 0, "artificial delay added to every store lookup")
	f.Int("gc-every", 0, "force a garbage collection every N visits, 0 disables")
	f.Int("depth", 1000, "memory backend: synthetic history depth")
	f.Int("merge-every", 10, "memory backend: make every Nth commit a merge")
}

// resolverOptions translates cfg into graph.Resolver options.
func resolverOptions(cfg *config.Config, extra ...graph.Option) []graph.Option {
	return append([]graph.Option{
		graph.WithCache(cfg.CacheSize),
		graph.WithMaxInFlight(cfg.MaxInFlight),
		graph.WithLatency(cfg.Latency),
	}, extra...)
}
