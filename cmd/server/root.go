package main

import (
	"github.com/spf13/cobra"

	"github.com/dkeye/OneVoice/internal/config"
)

func Root(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "onevoice",
		Short:        "OneVoice conferencing signaling server",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd(cfg), migrateCmd(cfg), tokenCmd(cfg))
	return rootCmd
}
