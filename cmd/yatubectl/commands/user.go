package commands

import (
	"context"
	"fmt"

	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/spf13/cobra"
)

func newUserCmd(open Opener) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var form validation.SignupForm
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				auth := service.NewAuthService(repository.NewUserRepository(env.DB), env.Config.JWTSecret, env.Config.JWTTTL, env.Redis)
				user, err := auth.Signup(ctx, form)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	f := createCmd.Flags()
	f.StringVar(&form.Username, "username", "", "Login name")
	f.StringVar(&form.Email, "email", "", "Email address")
	f.StringVar(&form.Password, "password", "", "Password")
	f.StringVar(&form.FirstName, "first-name", "", "First name")
	f.StringVar(&form.LastName, "last-name", "", "Last name")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createCmd)
	return userCmd
}
