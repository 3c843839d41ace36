package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagkeep/flagkeep/internal/cli"
	"github.com/flagkeep/flagkeep/internal/client"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <key>",
	Short: "Toggle a feature flag's enabled state",
	Long: `Flip the enabled state of a feature flag. The flip happens
atomically on the server, so concurrent toggles are never lost.

Examples:
  flagkeep toggle feature_x`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		profileCfg, _, err := cli.GetProfile(profile, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(profileCfg.BaseURL, profileCfg.APIKey)

		flag, err := c.ToggleFlag(context.Background(), key)
		if err != nil {
			return fmt.Errorf("failed to toggle flag: %w", err)
		}

		if !quiet {
			state := "disabled"
			if flag.Enabled {
				state = "enabled"
			}
			fmt.Printf("Flag '%s' is now %s\n", flag.FlagKey, state)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}
