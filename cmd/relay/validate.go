package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"helios-hq/relay/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting the proxy.

All validation errors are reported together, so a broken file can be fixed
in one pass.

Examples:
  relay validate --config relay.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("%s: configuration valid (%d rules, %d accounts, strategy %s)\n",
			cfgFile, len(cfg.Rules), len(cfg.Accounts.Pool), cfg.Rotation.Strategy)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
