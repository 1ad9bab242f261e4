package commands

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var msg string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record a commit on the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if msg == "" {
				return errors.New("a commit message is required, use -m")
			}
			repo, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			branch, err := repo.ReadHEADBranch()
			if err != nil {
				return err
			}
			// an empty tip means this is the branch's first commit
			tip, err := repo.ReadBranch(branch)
			if err != nil {
				return err
			}
			var parents []string
			if tip != "" {
				parents = append(parents, tip)
			}

			c, err := repo.WriteCommit(msg, branch, time.Now().Unix(), parents...)
			if err != nil {
				return err
			}
			if err := repo.WriteBranch(branch, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, shortID(c.ID), msg)
			return nil
		},
	}
	addRepoFlag(cmd)
	cmd.Flags().StringVarP(&msg, "message", "m", "", "commit message")
	return cmd
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
