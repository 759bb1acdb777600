// Hassbridge resolves and checks the bridge configuration outside the host
// plugin. Preferences are read from a dotenv style file whose keys match the
// plugin preference keys.
//
// Usage:
//
//	hassbridge check --prefs bridge.env [--ping] [--connect]
//	hassbridge overrides --prefs bridge.env "Porch Light"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hassbridge",
	Short: "Home Assistant bridge configuration tool",
	Long: `Resolve the Home Assistant bridge configuration from plugin preferences
and check it against the configured Home Assistant server and MQTT broker.`,
	SilenceUsage: true,
}

var (
	prefsPath string
	logLevel  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", ".env", "Path to the preferences file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(overridesCmd)
}
