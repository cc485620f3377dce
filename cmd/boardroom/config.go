package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackoak/boardroom/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify boardroom configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/boardroom/config.yaml
Project-specific overrides can be placed in .boardroom.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("governance.cost_ceiling: %.0f\n", cfg.Governance.CostCeiling)
	fmt.Printf("governance.confidence_floor: %g\n", cfg.Governance.ConfidenceFloor)
	fmt.Printf("governance.headcount_ceiling: %d\n", cfg.Governance.HeadcountCeiling)
	fmt.Printf("governance.max_categories: %d\n", cfg.Governance.MaxCategories)
	fmt.Printf("timeouts.specialist: %s\n", cfg.Timeouts.Specialist)
	fmt.Printf("timeouts.run: %s\n", cfg.Timeouts.Run)
	fmt.Printf("data.dir: %s\n", cfg.Data.Dir)
	fmt.Printf("data.seed_file: %s\n", cfg.Data.SeedFile)
	fmt.Printf("parser.provider: %s\n", cfg.Parser.Provider)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "governance.cost_ceiling":
		return strconv.FormatFloat(cfg.Governance.CostCeiling, 'f', 0, 64), nil
	case "governance.confidence_floor":
		return strconv.FormatFloat(cfg.Governance.ConfidenceFloor, 'g', -1, 64), nil
	case "governance.headcount_ceiling":
		return strconv.Itoa(cfg.Governance.HeadcountCeiling), nil
	case "governance.max_categories":
		return strconv.Itoa(cfg.Governance.MaxCategories), nil
	case "timeouts.specialist":
		return cfg.Timeouts.Specialist.String(), nil
	case "timeouts.run":
		return cfg.Timeouts.Run.String(), nil
	case "data.dir":
		return cfg.Data.Dir, nil
	case "data.seed_file":
		return cfg.Data.SeedFile, nil
	case "parser.provider":
		return cfg.Parser.Provider, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "governance.cost_ceiling":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid cost ceiling: %s", value)
		}
		cfg.Governance.CostCeiling = f
	case "governance.confidence_floor":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("confidence floor must be a number in [0,1]: %s", value)
		}
		cfg.Governance.ConfidenceFloor = f
	case "governance.headcount_ceiling":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid headcount ceiling: %s", value)
		}
		cfg.Governance.HeadcountCeiling = n
	case "governance.max_categories":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid max categories: %s", value)
		}
		cfg.Governance.MaxCategories = n
	case "timeouts.specialist":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		cfg.Timeouts.Specialist = d
	case "timeouts.run":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", value)
		}
		cfg.Timeouts.Run = d
	case "data.dir":
		cfg.Data.Dir = value
	case "data.seed_file":
		cfg.Data.SeedFile = value
	case "parser.provider":
		if value != "rules" && value != "anthropic" {
			return fmt.Errorf("parser provider must be \"rules\" or \"anthropic\"")
		}
		cfg.Parser.Provider = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
