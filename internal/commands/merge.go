package commands

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <branch>",
		Short: "Join another branch into the current one with a two-parent commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			other := args[0]
			repo, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			current, err := repo.ReadHEADBranch()
			if err != nil {
				return err
			}
			if current == other {
				return errors.Errorf("cannot merge branch %s into itself", other)
			}
			if err := repo.EnsureBranch(current); err != nil {
				return err
			}
			if err := repo.EnsureBranch(other); err != nil {
				return err
			}

			currentTip, err := repo.ReadBranch(current)
			if err != nil {
				return err
			}
			otherTip, err := repo.ReadBranch(other)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if otherTip == "" {
				fmt.Fprintf(out, "Nothing to merge: branch %s has no commits\n", other)
				return nil
			}
			if currentTip == "" {
				if err := repo.WriteBranch(current, otherTip); err != nil {
					return err
				}
				fmt.Fprintf(out, "Fast-forward: branch %s updated to %s\n", current, shortID(otherTip))
				return nil
			}

			msg := fmt.Sprintf("Merge branch %s into %s", other, current)
			c, err := repo.WriteCommit(msg, current, time.Now().Unix(), currentTip, otherTip)
			if err != nil {
				return err
			}
			if err := repo.WriteBranch(current, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(out, "[%s %s] %s\n", current, shortID(c.ID), msg)
			return nil
		},
	}
	addRepoFlag(cmd)
	return cmd
}
