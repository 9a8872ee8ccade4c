package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newUsersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := opts.reader()
			if err != nil {
				return err
			}
			defer r.Close()

			users, err := r.ListUsers(context.Background())
			if err != nil {
				return err
			}
			return renderUsers(cmd.OutOrStdout(), opts.output, users)
		},
	}
}
