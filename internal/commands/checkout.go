package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout <branch>",
		Short: "Switch HEAD to a branch, creating it empty if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch := args[0]
			repo, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.EnsureBranch(branch); err != nil {
				return err
			}
			if err := repo.WriteHEADBranch(branch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Switched to branch", branch)
			return nil
		},
	}
	addRepoFlag(cmd)
	return cmd
}
