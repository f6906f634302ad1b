package main

import (
	"github.com/spf13/cobra"

	"github.com/mormegil-cz/nklink/internal/platform/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	loadConfig := func() (*config.Config, error) {
		return config.Load(configFlag)
	}

	serveCmd := newServeCommand(loadConfig)

	rootCmd := &cobra.Command{
		Use:           "nklink",
		Short:         "Links National Library authority records to Wikidata and other databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "nklink.toml", "Configuration file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newResolveCommand(loadConfig))
	return rootCmd
}
