package state

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Entries []Entry `yaml:"entries"`
}

// DefaultSeed returns the built-in company context: per-department budget
// lines, hiring limits, active policies, and baseline metrics.
func DefaultSeed() ([]Entry, error) {
	return parseSeed(defaultSeed)
}

// SeedFromFile loads shared-state entries from a YAML file.
func SeedFromFile(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return parseSeed(raw)
}

func parseSeed(raw []byte) ([]Entry, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, e := range f.Entries {
		if e.Key == "" {
			return nil, fmt.Errorf("seed entry %d has no key", i)
		}
		if !e.Kind.Valid() {
			return nil, fmt.Errorf("seed entry %s has unknown kind %q", e.Key, e.Kind)
		}
	}
	return f.Entries, nil
}
