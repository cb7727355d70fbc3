// Package cmd implements the command-line interface for swbridge.
package cmd

import "github.com/spf13/cobra"

// Config holds the global flag values
type Config struct {
	Verbose     bool
	ShowLogs    bool
	JSON        bool
	ShowMetrics bool
	ConfigPath  string
	FixturePath string
}

// NewConfigFromFlags creates a Config from parsed command flags
func NewConfigFromFlags(cmd *cobra.Command) *Config {
	return &Config{
		Verbose:     getBoolFlag(cmd, "verbose"),
		ShowLogs:    getBoolFlag(cmd, "logs"),
		JSON:        getBoolFlag(cmd, "json"),
		ShowMetrics: getBoolFlag(cmd, "metrics"),
		ConfigPath:  getStringFlag(cmd, "config"),
		FixturePath: getStringFlag(cmd, "fixture"),
	}
}

// getBoolFlag retrieves a boolean flag, checking both local and persistent flags
func getBoolFlag(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		// Try persistent flags if not found in local flags
		val, _ = cmd.PersistentFlags().GetBool(name)
	}

	return val
}

func getStringFlag(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		val, _ = cmd.PersistentFlags().GetString(name)
	}

	return val
}
