package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// BuildVersion is set at link time
var BuildVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "authrelay",
	Short: "authrelay signs users in with an identity provider and hands the session to the app",
	Long: `authrelay runs the browser side of an OAuth sign-in for a desktop or web
application and delivers a signed session token through a deep link or a
session cookie. Configuration is read from AUTHRELAY_* environment variables.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = BuildVersion
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}
