package main

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging the config file, BERESHIT_*
environment variables and command-line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == formatTable {
				format = formatYAML
			}
			if err := validateFormat(format); err != nil {
				return err
			}
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), format, cfg)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatYAML, "output format: yaml or json")
	return cmd
}
