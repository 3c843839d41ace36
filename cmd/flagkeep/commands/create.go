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
	createEnabled     bool
	createData        string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create <key>",
	Short: "Create a new feature flag",
	Long: `Create a new feature flag with the specified key and options.
Fails if a flag with the same key already exists.

Examples:
  flagkeep create feature_x --enabled
  flagkeep create feature_y --data '{"color":"blue"}' --description "New feature Y"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		profileCfg, _, err := cli.GetProfile(profile, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		// Validate payload JSON if provided
		var flagData json.RawMessage
		if createData != "" {
			if !json.Valid([]byte(createData)) {
				return fmt.Errorf("invalid flag data JSON: %s", createData)
			}
			flagData = json.RawMessage(createData)
		}

		c := client.NewClient(profileCfg.BaseURL, profileCfg.APIKey)

		flag, err := c.CreateFlag(context.Background(), store.CreateParams{
			FlagKey:     key,
			Description: createDescription,
			Enabled:     createEnabled,
			FlagData:    flagData,
		})
		if err != nil {
			return fmt.Errorf("failed to create flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Flag '%s' created\n", flag.FlagKey)
			if verbose {
				return cli.PrintFlag(flag, cli.OutputFormat(format))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().BoolVar(&createEnabled, "enabled", false, "Create the flag enabled")
	createCmd.Flags().StringVar(&createData, "data", "", "Flag data as a JSON value")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Flag description")
}
