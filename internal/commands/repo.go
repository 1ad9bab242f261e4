package commands

import (
	"github.com/spf13/cobra"

	"gitwalk/internal/storage"
)

func addRepoFlag(cmd *cobra.Command) {
	cmd.Flags().String("repo", ".", "repository path")
}

// openRepo opens the gitdb repository named by the --repo flag.
func openRepo(cmd *cobra.Command) (*storage.Store, error) {
	root, err := cmd.Flags().GetString("repo")
	if err != nil {
		return nil, err
	}
	return storage.Open(root)
}
