package main

import (
	"fmt"

	"deutschdrill/internal/repository"
	"deutschdrill/internal/security"
	"deutschdrill/internal/service"

	"github.com/spf13/cobra"
)

func newCreateUserCmd(a *app) *cobra.Command {
	var username, password, email string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account; the first account is always an admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users := repository.NewUserRepository(a.db)

			existing, err := users.CountUsers(cmd.Context())
			if err != nil {
				return err
			}
			if existing == 0 && !admin {
				admin = true
				fmt.Fprintln(cmd.OutOrStdout(), "no accounts yet, creating an admin")
			}

			tokens := security.NewTokenIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
			auth := service.NewAuthService(users, tokens, a.cfg.Auth.SessionDuration, a.logger.Named("auth"))
			user, err := auth.Register(cmd.Context(), username, password, email, admin)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, admin %t)\n", user.Username, user.ID, user.IsAdmin)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&email, "email", "", "address for test reports")
	cmd.Flags().BoolVar(&admin, "admin", false, "allow catalog import and export")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
