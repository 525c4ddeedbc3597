package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
storage:
  data_dir: /tmp/picker-data
  catalog_path: /tmp/picker-data/catalog.db
server:
  host: 0.0.0.0
  port: 9000
providers:
  alpaca:
    api_key: test-key
    api_secret: test-secret
  fred:
    api_key: fred-key
  edgar:
    user_agent: "stockpicker test test@example.com"
logging:
  level: debug
  format: text
routing:
  max_cost_per_request: 0.01
datasets:
  daily:
    start_date: "2020-01-01"
    batch_size: 500
    max_workers: 8
    rate_limit_per_min: 180
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "picker.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/picker-data" {
		t.Errorf("DataDir = %q, want /tmp/picker-data", cfg.Storage.DataDir)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Providers.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want test-key", cfg.Providers.Alpaca.APIKey)
	}
	if cfg.Providers.FRED.APIKey != "fred-key" {
		t.Errorf("FRED.APIKey = %q, want fred-key", cfg.Providers.FRED.APIKey)
	}
	if cfg.Providers.EDGAR.UserAgent == "" {
		t.Error("EDGAR.UserAgent should be set")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want debug/text", cfg.Logging)
	}
	if cfg.Routing.MaxCostPerRequest != 0.01 {
		t.Errorf("MaxCostPerRequest = %v, want 0.01", cfg.Routing.MaxCostPerRequest)
	}
	if cfg.Datasets.Daily.BatchSize != 500 {
		t.Errorf("Daily.BatchSize = %d, want 500", cfg.Datasets.Daily.BatchSize)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8480 {
		t.Errorf("default Port = %d, want 8480", cfg.Server.Port)
	}
	if cfg.Routing.DeepDiveMaxCompanies != 20 {
		t.Errorf("default DeepDiveMaxCompanies = %d, want 20", cfg.Routing.DeepDiveMaxCompanies)
	}
	if cfg.Datasets.News.MaxWorkers != 4 {
		t.Errorf("default News.MaxWorkers = %d, want 4", cfg.Datasets.News.MaxWorkers)
	}
	if w := cfg.Sentiment.SentimentWeight; w != 0.5 {
		t.Errorf("default SentimentWeight = %v, want 0.5", w)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FRED_API_KEY", "env-fred")
	t.Setenv("APCA_API_KEY_ID", "env-alpaca")
	t.Setenv("DATA_DIR", "/env/data")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Providers.FRED.APIKey != "env-fred" {
		t.Errorf("FRED.APIKey = %q, want env-fred", cfg.Providers.FRED.APIKey)
	}
	if cfg.Providers.Alpaca.APIKey != "env-alpaca" {
		t.Errorf("Alpaca.APIKey = %q, want env-alpaca (canonical env var wins)", cfg.Providers.Alpaca.APIKey)
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("DataDir = %q, want /env/data", cfg.Storage.DataDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load should fail for a missing file")
	}
}
