package configloader

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageBackendFile   = "file"
	StorageBackendRedis  = "redis"
	StorageBackendSQLite = "sqlite"
	StorageBackendMemory = "memory"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                string   `yaml:"port"`
	ReadTimeoutSeconds  int      `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int      `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int      `yaml:"idleTimeoutSeconds"`
	AllowedOrigins      []string `yaml:"allowedOrigins"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CoinGeckoConfig holds CoinGecko API specific configurations.
type CoinGeckoConfig struct {
	APIKey               string  `yaml:"apiKey"`
	BaseURL              string  `yaml:"baseURL"`
	VsCurrency           string  `yaml:"vsCurrency"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
	Burst                int     `yaml:"burst"`
}

// MarketDataConfig holds the gateway freshness and polling settings.
type MarketDataConfig struct {
	FreshnessSeconds      int `yaml:"freshnessSeconds"`
	SearchCacheSeconds    int `yaml:"searchCacheSeconds"`
	TrendingCacheSeconds  int `yaml:"trendingCacheSeconds"`
	PollIntervalSeconds   int `yaml:"pollIntervalSeconds"`
	SearchMinLength       int `yaml:"searchMinLength"`
	SearchLimit           int `yaml:"searchLimit"`
	TrendingLimit         int `yaml:"trendingLimit"`
	CleanupIntervalMinute int `yaml:"cleanupIntervalMinutes"`
}

// RedisConfig holds the redis storage connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig selects and configures the snapshot storage backend.
type StorageConfig struct {
	Backend   string      `yaml:"backend"`
	Key       string      `yaml:"key"`
	Dir       string      `yaml:"dir"`
	SQLiteDSN string      `yaml:"sqlitePath"`
	Redis     RedisConfig `yaml:"redis"`

	SaveTimeoutMillis int64 `yaml:"saveTimeoutMillis"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	CoinGecko  CoinGeckoConfig  `yaml:"coingecko"`
	MarketData MarketDataConfig `yaml:"marketData"`
	Storage    StorageConfig    `yaml:"storage"`
}

// Freshness is the market data freshness window.
func (c MarketDataConfig) Freshness() time.Duration {
	return time.Duration(c.FreshnessSeconds) * time.Second
}

// PollInterval is the background refresh period.
func (c MarketDataConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// SaveTimeout bounds one snapshot write. Mutations wait for it.
func (c StorageConfig) SaveTimeout() time.Duration {
	return time.Duration(c.SaveTimeoutMillis) * time.Millisecond
}

// RequestTimeout is the per-request upstream timeout.
func (c CoinGeckoConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

// Load reads the YAML configuration file from the given path, applies defaults and
// environment overrides. A missing file is not an error: defaults are used.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
		logrus.Infof("Loaded configuration from path: %s", path)
	case os.IsNotExist(err):
		logrus.Warnf("Config file %s not found, using defaults", path)
	default:
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// Missing files are ignored; existing variables are never overwritten.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !os.IsNotExist(err) {
				logrus.Warnf("Failed to load env file %s: %v", f, err)
			}
			continue
		}
		logrus.Infof("Loaded environment from %s", f)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.CoinGecko.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 10
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 15
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("CoinGecko.BaseURL not set, defaulting to %s", cfg.CoinGecko.BaseURL)
	}
	if cfg.CoinGecko.VsCurrency == "" {
		cfg.CoinGecko.VsCurrency = "usd"
	}
	if cfg.CoinGecko.RequestTimeoutMillis <= 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 10000
	}
	if cfg.CoinGecko.RequestsPerSecond <= 0 {
		// Public demo plans allow roughly 30 calls per minute.
		cfg.CoinGecko.RequestsPerSecond = 0.5
	}
	if cfg.CoinGecko.Burst <= 0 {
		cfg.CoinGecko.Burst = 5
	}

	md := &cfg.MarketData
	if md.FreshnessSeconds <= 0 {
		md.FreshnessSeconds = 30
	}
	if md.SearchCacheSeconds <= 0 {
		md.SearchCacheSeconds = 60
	}
	if md.TrendingCacheSeconds <= 0 {
		md.TrendingCacheSeconds = 300
	}
	if md.PollIntervalSeconds <= 0 {
		md.PollIntervalSeconds = 30
	}
	if md.SearchMinLength <= 0 {
		md.SearchMinLength = 2
	}
	if md.SearchLimit <= 0 {
		md.SearchLimit = 10
	}
	if md.TrendingLimit <= 0 {
		md.TrendingLimit = 8
	}
	if md.CleanupIntervalMinute <= 0 {
		md.CleanupIntervalMinute = 10
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageBackendFile
	}
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "tokenPortfolio"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data"
	}
	if cfg.Storage.SQLiteDSN == "" {
		cfg.Storage.SQLiteDSN = "data/portfolio.db"
	}
	if cfg.Storage.SaveTimeoutMillis <= 0 {
		cfg.Storage.SaveTimeoutMillis = 1000
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "localhost:6379"
	}
}

// Validate checks settings that have no sensible default.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendFile, StorageBackendRedis, StorageBackendSQLite, StorageBackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.MarketData.PollIntervalSeconds < c.MarketData.FreshnessSeconds {
		logrus.Warnf("marketData.pollIntervalSeconds (%d) is shorter than freshnessSeconds (%d); polls inside the window are forced fetches",
			c.MarketData.PollIntervalSeconds, c.MarketData.FreshnessSeconds)
	}
	return nil
}
