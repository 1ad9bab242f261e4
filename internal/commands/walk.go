package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitwalk/internal/gchint"
	"gitwalk/internal/graph"
	"gitwalk/internal/walker"
)

func newWalkCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Run a single walker and print the root commit it reaches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, storeFlags)
			if err != nil {
				return err
			}
			store, closeStore, err := openBackend(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			startID, err := store.ResolveRevision(cfg.Commit)
			if err != nil {
				return err
			}
			start, err := store.Lookup(cmd.Context(), startID)
			if err != nil {
				return err
			}
			resolver, err := graph.NewResolver(store, resolverOptions(cfg)...)
			if err != nil {
				return err
			}
			hint := gchint.New(cfg.GCEvery)

			res := walker.New(resolver, walker.Options{SkipVisited: cfg.SkipVisited, Hook: hint.Visit}).
				Walk(cmd.Context(), walker.Task{Worker: 1, Root: start})
			if res.Err != nil {
				return res.Err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root %s\n", res.Root.ID)
			fmt.Fprintf(out, "visited %d\n", res.Visited)
			fmt.Fprintf(out, "resolutions %d\n", res.Resolutions)
			fmt.Fprintf(out, "elapsed %s\n", res.Elapsed)
			return nil
		},
	}
	addStoreFlags(cmd)
	return cmd
}
