package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration
type Config struct {
	DefaultProfile string                   `yaml:"default_profile"`
	Profiles       map[string]ProfileConfig `yaml:"profiles"`
}

// ProfileConfig represents connection settings for one server.
type ProfileConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".flagkeep", "config.yaml"), nil
}

// LoadConfig loads the configuration from file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{
				DefaultProfile: "local",
				Profiles:       make(map[string]ProfileConfig),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetProfile resolves connection settings for a profile.
// Priority: command flags > environment variables > config file.
// Returns the resolved settings and the effective profile name.
func GetProfile(profileName, baseURLFlag, apiKeyFlag string) (*ProfileConfig, string, error) {
	// First check command line flags
	if baseURLFlag != "" {
		return &ProfileConfig{
			BaseURL: baseURLFlag,
			APIKey:  apiKeyFlag,
		}, profileName, nil
	}

	// Then check environment variables
	if envBaseURL := os.Getenv("FLAGKEEP_BASE_URL"); envBaseURL != "" {
		return &ProfileConfig{
			BaseURL: envBaseURL,
			APIKey:  os.Getenv("FLAGKEEP_API_KEY"),
		}, profileName, nil
	}

	// Finally check config file
	cfg, err := LoadConfig()
	if err != nil {
		return nil, "", err
	}

	if profileName == "" {
		profileName = cfg.DefaultProfile
	}

	profile, ok := cfg.Profiles[profileName]
	if !ok {
		return nil, "", fmt.Errorf("profile '%s' not found in config (run 'flagkeep config init' first)", profileName)
	}

	if apiKeyFlag != "" {
		profile.APIKey = apiKeyFlag
	}

	if profile.BaseURL == "" {
		return nil, "", fmt.Errorf("base_url must be configured for profile '%s'", profileName)
	}

	return &profile, profileName, nil
}

// InitConfig creates a default config file
func InitConfig() error {
	cfg := &Config{
		DefaultProfile: "local",
		Profiles: map[string]ProfileConfig{
			"local": {
				BaseURL: "http://localhost:8080",
			},
			"staging": {
				BaseURL: "https://flagkeep.staging.example.com",
				APIKey:  "staging-key",
			},
			"prod": {
				BaseURL: "https://flagkeep.example.com",
				APIKey:  "prod-key",
			},
		},
	}

	return SaveConfig(cfg)
}
