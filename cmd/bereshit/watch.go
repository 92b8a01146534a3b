package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BeFlock/bereshit/internal/registry"
)

func newWatchCmd(o *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the project list whenever the registry changes",
		Long: `Print the project list, then print it again each time projects.json
changes on disk, including changes made by other processes. Stops on
interrupt.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(format)
		},
		RunE: o.withApp(func(ctx context.Context, cmd *cobra.Command, args []string, a *app) error {
			out := cmd.OutOrStdout()

			projects, err := a.svc.ListProjects(ctx)
			if err != nil {
				return err
			}
			if err := writeProjects(out, format, projects); err != nil {
				return err
			}

			w, err := registry.NewWatcher(a.store, registry.WatchConfig{
				Debounce: a.cfg.Registry.WatchDebounce.Duration(),
			})
			if err != nil {
				return err
			}
			defer w.Stop()

			updates, err := w.Start(ctx)
			if err != nil {
				return err
			}

			for projects := range updates {
				if format == formatTable {
					fmt.Fprintln(out)
				}
				if err := writeProjects(out, format, projects); err != nil {
					return err
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, formatFlagUsage())
	return cmd
}
