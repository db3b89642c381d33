package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen       = ":8085"
	defaultPollInterval = 15 * time.Second
	defaultMaxAge       = 2 * time.Minute
	defaultRPCTimeout   = 10 * time.Second
	defaultJournalDSN   = "file:loanviewd.db?_pragma=busy_timeout(5000)"
)

// Config captures the runtime settings for the loan view daemon.
type Config struct {
	ListenAddress string          `yaml:"listen"`
	Environment   string          `yaml:"env"`
	ParamsPath    string          `yaml:"params"`
	RPC           RPCConfig       `yaml:"rpc"`
	Price         PriceConfig     `yaml:"price"`
	Auth          AuthConfig      `yaml:"auth"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	Journal       JournalConfig   `yaml:"journal"`
	Notify        NotifyConfig    `yaml:"notify"`
	Log           LogConfig       `yaml:"log"`
}

// RPCConfig points at the node JSON-RPC endpoint.
type RPCConfig struct {
	URL           string        `yaml:"url"`
	BearerToken   string        `yaml:"bearer_token"`
	ClientCAPath  string        `yaml:"client_ca"`
	AllowInsecure bool          `yaml:"allow_insecure"`
	Timeout       time.Duration `yaml:"timeout"`
}

// PriceConfig controls oracle polling.
type PriceConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAge       time.Duration `yaml:"max_age"`
}

// AuthConfig configures bearer token verification for loan submission.
type AuthConfig struct {
	HMACSecret string        `yaml:"hmac_secret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	ClockSkew  time.Duration `yaml:"clock_skew"`
}

// RateLimitConfig bounds requests per client address.
type RateLimitConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
}

// JournalConfig selects the submission journal database. DSNs starting with
// postgres:// use PostgreSQL; anything else opens SQLite.
type JournalConfig struct {
	DSN string `yaml:"dsn"`
}

// NotifyConfig enables the webhook notifier.
type NotifyConfig struct {
	WebhookURL    string        `yaml:"webhook_url"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Limit         int           `yaml:"limit"`
	Window        time.Duration `yaml:"window"`
}

// LogConfig enables a rotated log file.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads the YAML configuration from disk, applies LENDVIEW_* overrides
// and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress: defaultListen,
	}
	if path == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	if value := strings.TrimSpace(os.Getenv("LENDVIEW_ENV")); value != "" {
		cfg.Environment = value
	}
	if value := strings.TrimSpace(os.Getenv("LENDVIEW_JWT_SECRET")); value != "" {
		cfg.Auth.HMACSecret = value
	}
	if value := strings.TrimSpace(os.Getenv("LENDVIEW_JOURNAL_DSN")); value != "" {
		cfg.Journal.DSN = value
	}
	if value := strings.TrimSpace(os.Getenv("LENDVIEW_RPC_TOKEN")); value != "" {
		cfg.RPC.BearerToken = value
	}
}

func (cfg *Config) normalize() {
	if cfg == nil {
		return
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListen
	}
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.ParamsPath = strings.TrimSpace(cfg.ParamsPath)

	cfg.RPC.URL = strings.TrimSpace(cfg.RPC.URL)
	cfg.RPC.BearerToken = strings.TrimSpace(cfg.RPC.BearerToken)
	cfg.RPC.ClientCAPath = strings.TrimSpace(cfg.RPC.ClientCAPath)
	if cfg.RPC.Timeout <= 0 {
		cfg.RPC.Timeout = defaultRPCTimeout
	}

	if cfg.Price.PollInterval <= 0 {
		cfg.Price.PollInterval = defaultPollInterval
	}
	if cfg.Price.MaxAge <= 0 {
		cfg.Price.MaxAge = defaultMaxAge
	}

	cfg.Auth.HMACSecret = strings.TrimSpace(cfg.Auth.HMACSecret)
	cfg.Auth.Issuer = strings.TrimSpace(cfg.Auth.Issuer)
	cfg.Auth.Audience = strings.TrimSpace(cfg.Auth.Audience)
	if cfg.Auth.ClockSkew <= 0 {
		cfg.Auth.ClockSkew = 2 * time.Minute
	}

	if cfg.RateLimit.RequestsPerMinute <= 0 {
		cfg.RateLimit.RequestsPerMinute = 120
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 20
	}

	cfg.Journal.DSN = strings.TrimSpace(cfg.Journal.DSN)
	if cfg.Journal.DSN == "" {
		cfg.Journal.DSN = defaultJournalDSN
	}
	cfg.Notify.WebhookURL = strings.TrimSpace(cfg.Notify.WebhookURL)
	cfg.Notify.WebhookSecret = strings.TrimSpace(cfg.Notify.WebhookSecret)
	cfg.Log.File = strings.TrimSpace(cfg.Log.File)
}

func (cfg *Config) validate() error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	if cfg.ParamsPath == "" {
		return fmt.Errorf("params: path to protocol parameters required")
	}
	if err := cfg.RPC.validate(); err != nil {
		return fmt.Errorf("rpc: %w", err)
	}
	if cfg.Price.MaxAge < cfg.Price.PollInterval {
		return fmt.Errorf("price: max_age must be at least poll_interval")
	}
	if cfg.Auth.HMACSecret == "" {
		return fmt.Errorf("auth: hmac_secret required")
	}
	if cfg.Notify.Limit < 0 {
		return fmt.Errorf("notify: limit must not be negative")
	}
	if cfg.Notify.Window < 0 {
		return fmt.Errorf("notify: window must not be negative")
	}
	return nil
}

func (cfg RPCConfig) validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("url required")
	}
	if strings.HasPrefix(strings.ToLower(cfg.URL), "http://") && !cfg.AllowInsecure {
		return fmt.Errorf("plaintext url requires allow_insecure=true")
	}
	if cfg.ClientCAPath != "" && cfg.AllowInsecure {
		return fmt.Errorf("client_ca cannot be combined with allow_insecure")
	}
	return nil
}
