package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	profile string
	format  string
	quiet   bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flagkeep",
	Short: "CLI tool for managing feature flags",
	Long: `Flagkeep is a command-line tool for managing feature flags in the flagkeep service.

It provides commands for creating, reading, updating, toggling and deleting
flags, as well as importing and exporting flag configurations.

Examples:
  flagkeep list
  flagkeep create my_flag --enabled
  flagkeep get my_flag
  flagkeep toggle my_flag
  flagkeep export --output flags.yaml
  flagkeep import flags.yaml --profile staging`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the flagkeep API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Connection profile from ~/.flagkeep/config.yaml")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
