package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/dashlink/internal/app"
	"github.com/MrSnakeDoc/dashlink/internal/security"
)

// newTokenCmd mints a bearer token, mostly for scripting and local testing
// when no identity provider sits in front of the API.
func newTokenCmd() *cobra.Command {
	var (
		user   string
		groups []string
		admin  bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := security.ValidateGroups(groups); err != nil {
				return err
			}
			cfg, _ := setup()
			tok, err := app.JWTService(cfg).Generate(user, groups, admin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id stored in the subject claim")
	cmd.Flags().StringSliceVar(&groups, "groups", nil, "comma separated group ids")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin rights")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
