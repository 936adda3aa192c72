package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgellow/authrelay/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate the environment configuration and print it with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))

		if !cfg.Provider.Configured() {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: identity provider credentials are missing, sign-in will be disabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
