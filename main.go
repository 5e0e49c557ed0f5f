package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vibetunnel/tui/internal/app"
)

func main() {
	var opts app.Options

	root := &cobra.Command{
		Use:   "vibetunnel",
		Short: "Terminal UI for the VibeTunnel session server",
		Long:  "Browse, monitor, and manage VibeTunnel terminal sessions from your terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.ServerURL, "server", "", "server base URL (overrides config)")
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	root.PersistentFlags().BoolVar(&opts.NoAuth, "no-auth", false, "skip authentication")

	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s tui %s\n", app.AppName, app.AppVersion)
		},
	}
}
