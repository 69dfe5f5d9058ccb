package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/dashlink/internal/app"
)

// newPurgeUserCmd deletes every link and icon of a user, e.g. after the
// account was removed from the identity provider.
func newPurgeUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-user <user-id>",
		Short: "Delete all personal links and icons of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := setup()
			core, err := app.NewCore(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = core.Close() }()

			n, err := core.UserLinks.DeleteAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d links of %s\n", n, args[0])
			return nil
		},
	}
}
