package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay - credential-rotating intercepting proxy",
	Long: `Relay is an intercepting HTTP proxy that rewrites outgoing credentials to
rotate traffic across a pool of upstream accounts.

Each request is classified against an ordered rule list, credentialed from
the account pool by the configured rotation strategy, and forwarded upstream.
Per-account usage is tracked against quotas; when upstream signals quota
exhaustion, the request is retried once with a fresh account. Event-stream
responses are relayed incrementally.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "relay.yaml", "config file path")
}
