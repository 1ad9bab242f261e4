package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitwalk/internal/storage"
)

func newInitCmd() *cobra.Command {
	var bare bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty gitwalk repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("repo")
			if err := storage.InitRepo(root, storage.InitOptions{Bare: bare}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty gitwalk repository in %s\n", root)
			return nil
		},
	}
	addRepoFlag(cmd)
	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare repository")
	return cmd
}
