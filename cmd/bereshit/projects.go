package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BeFlock/bereshit/internal/commands"
	"github.com/BeFlock/bereshit/internal/project"
)

func newListCmd(o *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered projects",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(format)
		},
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			projects, err := a.svc.ListProjects(ctx)
			if err != nil {
				return err
			}
			return writeProjects(cmd.OutOrStdout(), format, projects)
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, formatFlagUsage())
	return cmd
}

func newShowCmd(o *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project",
		Long: `Show a registered project. The settings are read from the bereshit.json
in the project directory when it is readable, otherwise from the registry.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(format)
		},
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			p, err := a.svc.GetProject(ctx, args[0])
			if err != nil {
				return err
			}

			cfg, err := project.LoadConfig(p.Path)
			if err != nil {
				a.logger.Warn(ctx, "project config unreadable, showing registry copy",
					zap.String("path", p.Path),
					zap.Error(err),
				)
			} else {
				p.Config = cfg
			}

			return writeProject(cmd.OutOrStdout(), format, p)
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, formatFlagUsage())
	return cmd
}

func newCreateCmd(o *rootOptions) *cobra.Command {
	var (
		path        string
		description string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create and register a project",
		Long: `Create the directory <path>/<name>, write a default bereshit.json into it
and add the project to the registry. Missing parent directories of <path>
are created.

Examples:
  bereshit create demo --path ~/work
  bereshit create notes --path ~/work --description "meeting notes"`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(format)
		},
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			base := path
			if base == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolving working directory: %w", err)
				}
				base = wd
			}

			req := commands.CreateRequest{Name: args[0], Path: base}
			if cmd.Flags().Changed("description") {
				req.Description = project.Description(description)
			}

			p, err := a.svc.CreateProject(ctx, req)
			if err != nil {
				return err
			}
			if format == formatTable {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s) at %s\n", p.Name, p.ID, p.Path)
				return err
			}
			return writeValue(cmd.OutOrStdout(), format, p)
		}),
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "parent directory (default: current directory)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, formatFlagUsage())
	return cmd
}

func newDeleteCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a project from the registry",
		Long:    `Remove a project from the registry. The project directory is left on disk.`,
		Args:    cobra.ExactArgs(1),
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			if err := a.svc.DeleteProject(ctx, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return err
		}),
	}
}

func newOpenCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <project-id|path>",
		Short: "Open a project folder in the file browser",
		Long: `Open a folder in the host file browser. An argument naming an existing
path is opened directly, anything else is looked up as a project id.`,
		Args: cobra.ExactArgs(1),
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			target := args[0]
			if _, err := os.Stat(target); err != nil {
				p, err := a.svc.GetProject(ctx, target)
				if err != nil {
					return err
				}
				target = p.Path
			}

			if err := a.svc.OpenProjectFolder(ctx, target); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", target)
			return err
		}),
	}
}
