// Package config loads the stockpicker YAML configuration and applies
// environment variable overrides for credentials and paths.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockpicker platform.
type Config struct {
	Storage   Storage         `yaml:"storage"`
	Server    Server          `yaml:"server"`
	Providers Providers       `yaml:"providers"`
	Logging   Logging         `yaml:"logging"`
	Routing   RoutingConfig   `yaml:"routing"`
	Datasets  DatasetsConfig  `yaml:"datasets"`
	Sentiment SentimentConfig `yaml:"sentiment"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir     string `yaml:"data_dir"`
	CatalogPath string `yaml:"catalog_path"` // SQLite run catalog
}

// Server holds network listener configuration for the MCP JSON-RPC server.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Providers holds credentials and endpoints for external data providers.
type Providers struct {
	Alpaca   Alpaca `yaml:"alpaca"`
	FRED     Keyed  `yaml:"fred"`
	BLS      Keyed  `yaml:"bls"`
	EDGAR    EDGAR  `yaml:"edgar"`
	Treasury Keyed  `yaml:"treasury"` // no key required; BaseURL override only
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Keyed is a provider reachable with a single API key and optional base URL.
type Keyed struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// EDGAR holds SEC EDGAR access settings. The SEC requires a descriptive
// User-Agent identifying the caller.
type EDGAR struct {
	UserAgent string `yaml:"user_agent"`
	BaseURL   string `yaml:"base_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RoutingConfig tunes the collector router.
type RoutingConfig struct {
	// MaxCostPerRequest filters out collectors whose per-request cost
	// exceeds this amount. Zero disables the budget guard.
	MaxCostPerRequest float64 `yaml:"max_cost_per_request"`
	// DeepDiveMaxCompanies disqualifies the deep-dive collector above this
	// many explicit tickers.
	DeepDiveMaxCompanies int `yaml:"deep_dive_max_companies"`
}

// DatasetsConfig controls dataset building behaviour.
type DatasetsConfig struct {
	Daily    BuilderConfig `yaml:"daily"`
	News     BuilderConfig `yaml:"news"`
	Movement BuilderConfig `yaml:"movement"`
}

// BuilderConfig holds parameters for a single dataset builder.
type BuilderConfig struct {
	StartDate       string `yaml:"start_date"`
	BatchSize       int    `yaml:"batch_size"`
	MaxWorkers      int    `yaml:"max_workers"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	SymbolsCSV      string `yaml:"symbols_csv"`
}

// SentimentConfig tunes the movement fusion scorer.
type SentimentConfig struct {
	SentimentWeight float64 `yaml:"sentiment_weight"`
	MomentumWeight  float64 `yaml:"momentum_weight"`
	VolumeWeight    float64 `yaml:"volume_weight"`
	Threshold       float64 `yaml:"threshold"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("CATALOG_PATH"); v != "" {
		cfg.Storage.CatalogPath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Providers.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Providers.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Providers.Alpaca.DataURL = v
	}

	if v := os.Getenv("FRED_API_KEY"); v != "" {
		cfg.Providers.FRED.APIKey = v
	}
	if v := os.Getenv("BLS_API_KEY"); v != "" {
		cfg.Providers.BLS.APIKey = v
	}
	if v := os.Getenv("EDGAR_USER_AGENT"); v != "" {
		cfg.Providers.EDGAR.UserAgent = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars take highest priority; these are the canonical
	// names used by the SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Providers.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Providers.Alpaca.APISecret = v
	}
}

// applyDefaults fills zero-valued fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.CatalogPath == "" {
		cfg.Storage.CatalogPath = "data/catalog.db"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8480
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Routing.DeepDiveMaxCompanies == 0 {
		cfg.Routing.DeepDiveMaxCompanies = 20
	}
	if cfg.Sentiment.SentimentWeight == 0 && cfg.Sentiment.MomentumWeight == 0 && cfg.Sentiment.VolumeWeight == 0 {
		cfg.Sentiment.SentimentWeight = 0.5
		cfg.Sentiment.MomentumWeight = 0.35
		cfg.Sentiment.VolumeWeight = 0.15
	}

	for _, b := range []*BuilderConfig{&cfg.Datasets.Daily, &cfg.Datasets.News, &cfg.Datasets.Movement} {
		if b.BatchSize == 0 {
			b.BatchSize = 100
		}
		if b.MaxWorkers == 0 {
			b.MaxWorkers = 4
		}
		if b.RateLimitPerMin == 0 {
			b.RateLimitPerMin = 200
		}
	}
}
