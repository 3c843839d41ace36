package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagkeep/flagkeep/internal/cli"
	"github.com/flagkeep/flagkeep/internal/client"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a feature flag by key",
	Long: `Retrieve a single feature flag by its key.

Examples:
  flagkeep get feature_x
  flagkeep get feature_x --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		profileCfg, _, err := cli.GetProfile(profile, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(profileCfg.BaseURL, profileCfg.APIKey)

		flag, err := c.GetFlag(context.Background(), key)
		if err != nil {
			return fmt.Errorf("failed to get flag: %w", err)
		}

		if !quiet {
			return cli.PrintFlag(flag, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
