package commands

import (
	"context"
	"fmt"

	"yatube/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd(open Opener) *cobra.Command {
	opts := seed.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake data",
		Long: fmt.Sprintf(`Create fake users, groups, posts, comments and follows for local development.
Every seeded account has the password %q.

Examples:
  yatubectl seed                       # Default data set
  yatubectl seed --users 50 --posts 500
  yatubectl seed --clean               # Wipe existing rows first`, seed.DefaultPassword),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				res, err := seed.Seed(ctx, env.DB, opts)
				if err != nil {
					return fmt.Errorf("seeding failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d users, %d groups, %d posts, %d comments, %d follows\n",
					res.Users, res.Groups, res.Posts, res.Comments, res.Follows)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.Users, "users", opts.Users, "Number of users to create")
	f.IntVar(&opts.Groups, "groups", opts.Groups, "Number of groups to create")
	f.IntVar(&opts.Posts, "posts", opts.Posts, "Number of posts to create")
	f.IntVar(&opts.Comments, "comments", opts.Comments, "Number of comments to create")
	f.IntVar(&opts.FollowsPerUser, "follows", opts.FollowsPerUser, "Authors each user follows")
	f.IntVar(&opts.MaxDays, "max-days", opts.MaxDays, "Spread post dates over this many days")
	f.BoolVar(&opts.Clean, "clean", false, "Delete existing data before seeding")
	f.Int64Var(&opts.RandSeed, "rand-seed", 0, "Random seed for reproducible data (0 uses the clock)")
	return cmd
}
