// Package config handles configuration loading and management for boardroom.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for boardroom.
type Config struct {
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Data       DataConfig       `mapstructure:"data"`
	Parser     ParserConfig     `mapstructure:"parser"`
}

// AnthropicConfig holds Anthropic API settings for the LLM-backed parser.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// GovernanceConfig holds the governance gate thresholds.
type GovernanceConfig struct {
	// CostCeiling is the plan cost above which escalation is required.
	CostCeiling float64 `mapstructure:"cost_ceiling"`
	// ConfidenceFloor is the aggregate confidence below which escalation is required.
	ConfidenceFloor float64 `mapstructure:"confidence_floor"`
	// HeadcountCeiling is the total new-hire count above which escalation is required.
	HeadcountCeiling int `mapstructure:"headcount_ceiling"`
	// MaxCategories is the number of affected departments above which escalation is required.
	MaxCategories int `mapstructure:"max_categories"`
}

// TimeoutsConfig holds execution timeout settings.
type TimeoutsConfig struct {
	// Specialist is the per-Evaluate-call timeout.
	Specialist time.Duration `mapstructure:"specialist"`
	// Run is the whole-goal-run timeout.
	Run time.Duration `mapstructure:"run"`
}

// DataConfig holds data file and database paths.
type DataConfig struct {
	// Dir is the data directory holding the state and audit databases.
	Dir string `mapstructure:"dir"`
	// SeedFile is an optional YAML file of initial shared-state entries.
	SeedFile string `mapstructure:"seed_file"`
}

// ParserConfig selects the goal parser implementation.
type ParserConfig struct {
	// Provider is "rules" or "anthropic".
	Provider string `mapstructure:"provider"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.boardroom.yaml in current directory or parent)
// 3. User config (~/.config/boardroom/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// Watch reloads the config file at path whenever it changes, invoking onChange
// with the freshly loaded config. Returns a stop function.
func Watch(path string, onChange func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := LoadFromPath(path)
				if err != nil {
					continue
				}
				onChange(cfg)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("governance.cost_ceiling", cfg.Governance.CostCeiling)
	v.Set("governance.confidence_floor", cfg.Governance.ConfidenceFloor)
	v.Set("governance.headcount_ceiling", cfg.Governance.HeadcountCeiling)
	v.Set("governance.max_categories", cfg.Governance.MaxCategories)
	v.Set("timeouts.specialist", cfg.Timeouts.Specialist.String())
	v.Set("timeouts.run", cfg.Timeouts.Run.String())
	v.Set("data.dir", cfg.Data.Dir)
	v.Set("data.seed_file", cfg.Data.SeedFile)
	v.Set("parser.provider", cfg.Parser.Provider)

	return v.WriteConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")

	v.SetDefault("governance.cost_ceiling", 500_000)
	v.SetDefault("governance.confidence_floor", 0.6)
	v.SetDefault("governance.headcount_ceiling", 20)
	v.SetDefault("governance.max_categories", 3)

	v.SetDefault("timeouts.specialist", "30s")
	v.SetDefault("timeouts.run", "10m")

	v.SetDefault("data.dir", defaultDataDir())
	v.SetDefault("data.seed_file", "")

	v.SetDefault("parser.provider", "rules")
}

// getUserConfigDir returns the XDG config directory for boardroom.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "boardroom")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "boardroom")
	}
	return filepath.Join(home, ".config", "boardroom")
}

func defaultDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "boardroom")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "boardroom")
	}
	return filepath.Join(home, ".local", "share", "boardroom")
}

// findProjectConfig searches for .boardroom.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".boardroom.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-5",
		},
		Governance: GovernanceConfig{
			CostCeiling:      500_000,
			ConfidenceFloor:  0.6,
			HeadcountCeiling: 20,
			MaxCategories:    3,
		},
		Timeouts: TimeoutsConfig{
			Specialist: 30 * time.Second,
			Run:        10 * time.Minute,
		},
		Data: DataConfig{
			Dir: defaultDataDir(),
		},
		Parser: ParserConfig{
			Provider: "rules",
		},
	}
}
