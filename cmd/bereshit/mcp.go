package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/BeFlock/bereshit/internal/mcp"
)

func newMCPCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the project commands as MCP tools over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing
list_projects, create_project, delete_project and open_project_folder.
Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			srv, err := mcp.NewServer(&mcp.Config{
				Name:    "bereshit",
				Version: version,
				Logger:  a.logger.Named("mcp"),
				Meter:   a.tel.Meter("github.com/BeFlock/bereshit/internal/mcp"),
			}, a.svc)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		}),
	}
}
