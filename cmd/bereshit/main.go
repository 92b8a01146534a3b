// Package main implements the bereshit CLI: project registry commands, a
// registry watcher and the MCP stdio server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(&rootOptions{})
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// rootOptions holds persistent flag values and injectable dependencies.
type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string

	// folderOpener overrides the native opener. Nil selects the platform
	// launcher from config.
	folderOpener folderOpener
}

func newRootCmd(o *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "bereshit",
		Short: "Manage bereshit projects",
		Long: `bereshit keeps a registry of projects in projects.json under the user
data directory. Each project is a directory holding a bereshit.json.

Examples:
  # Create a project under ~/work
  bereshit create demo --path ~/work --description "first try"

  # List projects
  bereshit list

  # Serve the commands to an MCP client over stdio
  bereshit mcp`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/bereshit/config.yaml)")
	flags.StringVar(&o.dataDir, "data-dir", "", "directory holding projects.json")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: trace, debug, info, warn or error")

	root.AddCommand(
		newListCmd(o),
		newShowCmd(o),
		newCreateCmd(o),
		newDeleteCmd(o),
		newOpenCmd(o),
		newWatchCmd(o),
		newMCPCmd(o),
		newConfigCmd(o),
	)

	return root
}
