package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// groupsFile is the layout of a file passed to "group load".
type groupsFile struct {
	Groups []validation.GroupForm `yaml:"groups"`
}

func groupService(env *Env) *service.GroupService {
	return service.NewGroupService(repository.NewGroupRepository(env.DB), env.Redis)
}

func newGroupCmd(open Opener) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}

	var form validation.GroupForm
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Long: `Create a group that posts can be filed under.

Examples:
  yatubectl group create --title "Cats" --slug cats --description "All about cats"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				group, err := groupService(env).Create(ctx, form)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created group %q (/group/%s/)\n", group.Title, group.Slug)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&form.Title, "title", "", "Group title")
	createCmd.Flags().StringVar(&form.Slug, "slug", "", "URL slug (letters, digits, hyphens, underscores)")
	createCmd.Flags().StringVar(&form.Description, "description", "", "Group description")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("slug")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				groups, err := groupService(env).List(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSLUG\tTITLE")
				for _, g := range groups {
					fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
				}
				return w.Flush()
			})
		},
	}

	loadCmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Create groups from a YAML file",
		Long: `Create every group listed in a YAML file. Loading stops at the first
group that fails validation or already exists.

File format:
  groups:
    - title: Cats
      slug: cats
      description: All about cats`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read groups file: %w", err)
			}
			var file groupsFile
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return fmt.Errorf("parse groups file: %w", err)
			}

			return withEnv(cmd, open, func(ctx context.Context, env *Env) error {
				svc := groupService(env)
				for _, form := range file.Groups {
					if _, err := svc.Create(ctx, form); err != nil {
						return fmt.Errorf("group %q: %w", form.Slug, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %d groups\n", len(file.Groups))
				return nil
			})
		},
	}

	groupCmd.AddCommand(createCmd, listCmd, loadCmd)
	return groupCmd
}
