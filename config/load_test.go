package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
accounts:
  - id: acc1
    initialCash: 1000000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Env != "development" || cfg.MetricsAddr != ":9100" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Venue.Mode != "sim" || cfg.Venue.CapacityRatio != 0.1 {
		t.Fatalf("venue defaults not applied: %+v", cfg.Venue)
	}
	if cfg.Fees.MinCommission != 5.0 {
		t.Fatalf("fee defaults not applied: %+v", cfg.Fees)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults not applied: %+v", cfg.Logging)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
env: production
metricsAddr: ":9200"
risk:
  maxOrderNotional: 500000
venue:
  mode: ws
  feedURL: ws://gateway:8081/reports
accounts:
  - id: acc1
    initialCash: 1000000
  - id: acc2
    initialCash: 50000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Risk.MaxOrderNotional != 500000 {
		t.Fatalf("unexpected risk config: %+v", cfg.Risk)
	}
	if len(cfg.Accounts) != 2 || cfg.Accounts[1].InitialCash != 50000 {
		t.Fatalf("unexpected accounts: %+v", cfg.Accounts)
	}
	if cfg.Venue.Mode != "ws" {
		t.Fatalf("unexpected venue: %+v", cfg.Venue)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"no accounts", `env: dev`, ErrNoAccounts},
		{"duplicate accounts", `
accounts:
  - id: acc1
  - id: acc1
`, ErrDuplicateAccount},
		{"bad venue mode", `
venue:
  mode: paper
accounts:
  - id: acc1
`, ErrBadVenueMode},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.content)
		if _, err := Load(path); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
