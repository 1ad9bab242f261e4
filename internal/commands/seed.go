package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gitwalk/internal/graph"
)

func newSeedCmd() *cobra.Command {
	var (
		depth      int
		mergeEvery int
		branch     string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a synthetic merge-heavy history into a gitdb repository",
		Example: `
  gitwalk init --repo /tmp/r && gitwalk seed --repo /tmp/r --depth 10000 --merge-every 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 0 || mergeEvery < 0 {
				return errors.New("depth and merge-every must not be negative")
			}
			repo, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			if branch == "" {
				if branch, err = repo.ReadHEADBranch(); err != nil {
					return err
				}
			}
			commits := graph.Synthesize(depth, mergeEvery)
			tip, err := repo.Seed(branch, commits)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s commits on %s, tip %s\n",
				humanize.Comma(int64(len(commits))), branch, shortID(tip))
			return nil
		},
	}
	addRepoFlag(cmd)
	f := cmd.Flags()
	f.IntVar(&depth, "depth", 1000, "length of the mainline")
	f.IntVar(&mergeEvery, "merge-every", 10, "make every Nth mainline commit a merge, 0 for none")
	f.StringVar(&branch, "branch", "", "branch to write (default: HEAD's branch)")
	return cmd
}
