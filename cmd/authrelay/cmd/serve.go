package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgellow/authrelay/internal"
	"github.com/dgellow/authrelay/internal/config"
	"github.com/dgellow/authrelay/internal/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sign-in relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		if err := log.Configure(cfg.LogLevel, cfg.LogFormat, nil); err != nil {
			return err
		}
		log.LogInfoWithFields("main", "Starting authrelay", map[string]any{
			"version":  BuildVersion,
			"logLevel": log.GetLogLevel(),
		})

		relay, err := internal.NewAuthRelay(cmd.Context(), cfg)
		if err != nil {
			log.LogErrorWithFields("main", "Failed to create auth relay", map[string]any{
				"error": err.Error(),
			})
			return err
		}

		return relay.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides AUTHRELAY_ADDR)")
}
