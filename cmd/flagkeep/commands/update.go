package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagkeep/flagkeep/internal/cli"
	"github.com/flagkeep/flagkeep/internal/client"
	"github.com/flagkeep/flagkeep/internal/store"
)

var (
	updateEnabled     bool
	updateData        string
	updateDescription string
)

var updateCmd = &cobra.Command{
	Use:   "update <key>",
	Short: "Update an existing feature flag",
	Long: `Apply a partial update to an existing feature flag. Only the
flags you pass are changed; everything else keeps its prior value.

Examples:
  flagkeep update feature_x --enabled=true
  flagkeep update feature_x --data '{"color":"red"}'
  flagkeep update feature_x --description "Updated description"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		profileCfg, _, err := cli.GetProfile(profile, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		// Only flags the user actually passed become part of the patch.
		var patch store.Patch
		if cmd.Flags().Changed("description") {
			patch.Description = &updateDescription
		}
		if cmd.Flags().Changed("enabled") {
			patch.Enabled = &updateEnabled
		}
		if cmd.Flags().Changed("data") {
			if !json.Valid([]byte(updateData)) {
				return fmt.Errorf("invalid flag data JSON: %s", updateData)
			}
			patch.FlagData = json.RawMessage(updateData)
		}

		if patch.IsEmpty() {
			return fmt.Errorf("nothing to update: pass at least one of --description, --enabled, --data")
		}

		c := client.NewClient(profileCfg.BaseURL, profileCfg.APIKey)

		flag, err := c.UpdateFlag(context.Background(), key, patch)
		if err != nil {
			return fmt.Errorf("failed to update flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Flag '%s' updated\n", flag.FlagKey)
			if verbose {
				return cli.PrintFlag(flag, cli.OutputFormat(format))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&updateEnabled, "enabled", false, "Set the enabled state")
	updateCmd.Flags().StringVar(&updateData, "data", "", "Flag data as a JSON value")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "Flag description")
}
