package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Governance.CostCeiling != 500_000 {
		t.Errorf("CostCeiling = %v, want 500000", cfg.Governance.CostCeiling)
	}
	if cfg.Governance.ConfidenceFloor != 0.6 {
		t.Errorf("ConfidenceFloor = %v, want 0.6", cfg.Governance.ConfidenceFloor)
	}
	if cfg.Governance.HeadcountCeiling != 20 {
		t.Errorf("HeadcountCeiling = %v, want 20", cfg.Governance.HeadcountCeiling)
	}
	if cfg.Governance.MaxCategories != 3 {
		t.Errorf("MaxCategories = %v, want 3", cfg.Governance.MaxCategories)
	}
	if cfg.Timeouts.Specialist != 30*time.Second {
		t.Errorf("Specialist timeout = %v, want 30s", cfg.Timeouts.Specialist)
	}
	if cfg.Parser.Provider != "rules" {
		t.Errorf("Parser.Provider = %q, want rules", cfg.Parser.Provider)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
governance:
  cost_ceiling: 250000
  confidence_floor: 0.7
timeouts:
  specialist: 5s
parser:
  provider: anthropic
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() failed: %v", err)
	}
	if cfg.Governance.CostCeiling != 250_000 {
		t.Errorf("CostCeiling = %v, want 250000", cfg.Governance.CostCeiling)
	}
	if cfg.Governance.ConfidenceFloor != 0.7 {
		t.Errorf("ConfidenceFloor = %v, want 0.7", cfg.Governance.ConfidenceFloor)
	}
	if cfg.Timeouts.Specialist != 5*time.Second {
		t.Errorf("Specialist timeout = %v, want 5s", cfg.Timeouts.Specialist)
	}
	// Unset fields fall back to defaults.
	if cfg.Governance.HeadcountCeiling != 20 {
		t.Errorf("HeadcountCeiling = %v, want default 20", cfg.Governance.HeadcountCeiling)
	}
	if cfg.Parser.Provider != "anthropic" {
		t.Errorf("Parser.Provider = %q, want anthropic", cfg.Parser.Provider)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("governance:\n  cost_ceiling: 100000\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloaded := make(chan *Config, 1)
	stop, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte("governance:\n  cost_ceiling: 750000\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Governance.CostCeiling != 750_000 {
			t.Errorf("reloaded CostCeiling = %v, want 750000", cfg.Governance.CostCeiling)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config change was not observed")
	}
}
