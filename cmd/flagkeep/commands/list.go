package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagkeep/flagkeep/internal/cli"
	"github.com/flagkeep/flagkeep/internal/client"
	"github.com/flagkeep/flagkeep/internal/store"
)

var (
	listSearch      string
	listEnabledOnly bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all feature flags",
	Long: `List all feature flags, sorted by key.

Examples:
  flagkeep list
  flagkeep list --search dark
  flagkeep list --enabled-only --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profileCfg, _, err := cli.GetProfile(profile, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(profileCfg.BaseURL, profileCfg.APIKey)

		ctx := context.Background()
		var flags []store.FeatureFlag
		if listEnabledOnly {
			flags, err = c.ListEnabledFlags(ctx)
		} else {
			flags, err = c.ListFlags(ctx, listSearch)
		}
		if err != nil {
			return fmt.Errorf("failed to list flags: %w", err)
		}

		if !quiet {
			if len(flags) == 0 {
				fmt.Println("No flags found")
				return nil
			}
			return cli.PrintFlags(flags, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listSearch, "search", "", "Filter flags by key or description substring")
	listCmd.Flags().BoolVar(&listEnabledOnly, "enabled-only", false, "Show only enabled flags")
}
