package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flagkeep/flagkeep/internal/cli"
	"github.com/flagkeep/flagkeep/internal/client"
	"github.com/flagkeep/flagkeep/internal/store"
)

var (
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import flags from a file",
	Long: `Import flags from a YAML or JSON file. Existing flags with the
same key are updated; new keys are created.

Examples:
  flagkeep import flags.yaml
  flagkeep import flags.yaml --profile staging --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var importData ExportFormat
		if err := yaml.Unmarshal(data, &importData); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}

		if len(importData.Flags) == 0 {
			return fmt.Errorf("no flags found in file")
		}

		if verbose {
			fmt.Printf("Found %d flag(s) to import\n", len(importData.Flags))
		}

		// Dry run mode - just validate and show what would be imported
		if importDryRun {
			fmt.Println("Dry run mode - the following flags would be imported:")
			for _, flag := range importData.Flags {
				fmt.Printf("  - %s (enabled: %v)\n", flag.FlagKey, flag.Enabled)
			}
			return nil
		}

		profileCfg, _, err := cli.GetProfile(profile, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(profileCfg.BaseURL, profileCfg.APIKey)

		ctx := context.Background()
		created, updated := 0, 0
		for _, flag := range importData.Flags {
			wasCreated, err := importFlag(ctx, c, flag)
			if err != nil {
				return fmt.Errorf("failed to import flag '%s': %w", flag.FlagKey, err)
			}
			if wasCreated {
				created++
			} else {
				updated++
			}
			if verbose {
				fmt.Printf("  imported %s\n", flag.FlagKey)
			}
		}

		if !quiet {
			fmt.Printf("Successfully imported %d flag(s) (%d created, %d updated)\n",
				created+updated, created, updated)
		}

		return nil
	},
}

// importFlag creates the flag, falling back to a full update when the
// key already exists. Reports whether the flag was newly created.
func importFlag(ctx context.Context, c *client.Client, flag store.FeatureFlag) (bool, error) {
	_, err := c.CreateFlag(ctx, store.CreateParams{
		FlagKey:     flag.FlagKey,
		Description: flag.Description,
		Enabled:     flag.Enabled,
		FlagData:    flag.FlagData,
	})
	if err == nil {
		return true, nil
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 409 {
		return false, err
	}

	_, err = c.UpdateFlag(ctx, flag.FlagKey, store.Patch{
		Description: &flag.Description,
		Enabled:     &flag.Enabled,
		FlagData:    flag.FlagData,
	})
	return false, err
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file without importing")
}
