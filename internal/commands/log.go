package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"gitwalk/internal/storage"
)

func newLogCmd(opts *rootOpts) *cobra.Command {
	var maxCount int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print first-parent history from the starting revision",
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

			id, err := store.ResolveRevision(cfg.Commit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for n := 0; id != "" && (maxCount <= 0 || n < maxCount); n++ {
				c, err := store.Lookup(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := printCommit(out, store, c.ID, c.Parents); err != nil {
					return err
				}
				fmt.Fprintln(out)
				id = ""
				if !c.IsRoot() {
					id = c.Parents[0]
				}
			}
			return nil
		},
	}
	addStoreFlags(cmd)
	cmd.Flags().IntVarP(&maxCount, "max-count", "n", 0, "stop after this many commits, 0 for all")
	return cmd
}

func newShowCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [revision]",
		Short: "Print one commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, storeFlags)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Commit = args[0]
			}
			store, closeStore, err := openBackend(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			id, err := store.ResolveRevision(cfg.Commit)
			if err != nil {
				return err
			}
			c, err := store.Lookup(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printCommit(cmd.OutOrStdout(), store, c.ID, c.Parents)
		},
	}
	addStoreFlags(cmd)
	return cmd
}

// printCommit writes id and its parents. Commits from a gitdb repository also
// carry their branch, time and message.
func printCommit(out io.Writer, store backend, id string, parents []string) error {
	fmt.Fprintf(out, "commit %s\n", id)
	for i, p := range parents {
		if i == 0 {
			fmt.Fprintf(out, "parent %s\n", p)
			continue
		}
		fmt.Fprintf(out, "parent%d %s\n", i+1, p)
	}
	repo, ok := store.(*storage.Store)
	if !ok {
		return nil
	}
	c, err := repo.ReadCommit(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "branch %s\n", c.Branch)
	fmt.Fprintf(out, "date %s\n", time.Unix(c.Timestamp, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "message %s\n", c.Message)
	return nil
}
