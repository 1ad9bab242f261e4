package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List branches, marking the one HEAD points at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			current, err := repo.ReadHEADBranch()
			if err != nil {
				return err
			}
			branches, err := repo.ListBranches()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range branches {
				marker := " "
				if b == current {
					marker = "*"
				}
				tip, err := repo.ReadBranch(b)
				if err != nil {
					return err
				}
				if tip == "" {
					tip = "(no commits)"
				} else {
					tip = shortID(tip)
				}
				fmt.Fprintf(out, "%s %s %s\n", marker, b, tip)
			}
			return nil
		},
	}
	addRepoFlag(cmd)
	return cmd
}
