package cmd

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var healthcheckURL string

// healthcheckCmd probes /health of a running server. It skips configuration
// loading so it works in minimal container images.
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that a running server answers on /health",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := healthcheckURL
		if target == "" {
			target = defaultHealthcheckURL(os.Getenv("AUTHRELAY_ADDR"))
		}
		if err := runHealthcheck(target); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "Health endpoint to probe (default derived from AUTHRELAY_ADDR)")
}

// defaultHealthcheckURL maps a listen address to a local health URL
func defaultHealthcheckURL(addr string) string {
	if addr == "" {
		addr = ":8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = "", "8080"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/health", net.JoinHostPort(host, port))
}

func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
