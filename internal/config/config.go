// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	APIKey         string        `yaml:"api_key"` // admin routes
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type MatchingConfig struct {
	MinSavings         decimal.Decimal `yaml:"min_savings"`
	MinMatchPercentage float64         `yaml:"min_match_percentage"`
	MaxResults         int             `yaml:"max_results"`
}

type RecommendConfig struct {
	UnusedDays      int           `yaml:"unused_days"`
	LowUsageMinutes int           `yaml:"low_usage_minutes"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Workers         int           `yaml:"workers"`
}

type ScanConfig struct {
	DefaultDays int `yaml:"default_days"`
	MaxResults  int `yaml:"max_results"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
	MaxPromptTokens int    `yaml:"max_prompt_tokens"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type TelegramConfig struct {
	Token        string        `yaml:"token"`
	ReminderDays int           `yaml:"reminder_days"`
	Interval     time.Duration `yaml:"interval"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Matching  MatchingConfig  `yaml:"matching"`
	Recommend RecommendConfig `yaml:"recommend"`
	Scan      ScanConfig      `yaml:"scan"`
	AI        AIConfig        `yaml:"ai"`
	Google    GoogleConfig    `yaml:"google"`
	Spotify   SpotifyConfig   `yaml:"spotify"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads -config and -dev from the command line.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return Load(configPath, dev)
}

func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if n := len(cfg.Security.EncryptionKey); n != 0 && n != 32 {
		return nil, errors.New("security.encryption_key must be 32 bytes")
	}
	if cfg.Matching.MinSavings.IsNegative() {
		return nil, errors.New("matching.min_savings must be >= 0")
	}
	if cfg.Matching.MinMatchPercentage < 0 || cfg.Matching.MinMatchPercentage > 100 {
		return nil, errors.New("matching.min_match_percentage must be within 0-100")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "subsavvy"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Matching.MinSavings.IsZero() {
		cfg.Matching.MinSavings = decimal.NewFromInt(100)
	}
	if cfg.Matching.MaxResults <= 0 {
		cfg.Matching.MaxResults = 10
	}

	if cfg.Recommend.UnusedDays <= 0 {
		cfg.Recommend.UnusedDays = 30
	}
	if cfg.Recommend.LowUsageMinutes <= 0 {
		cfg.Recommend.LowUsageMinutes = 120
	}
	if cfg.Recommend.RefreshInterval <= 0 {
		cfg.Recommend.RefreshInterval = 24 * time.Hour
	}
	if cfg.Recommend.Workers <= 0 {
		cfg.Recommend.Workers = 4
	}

	if cfg.Scan.DefaultDays <= 0 {
		cfg.Scan.DefaultDays = 90
	}
	if cfg.Scan.MaxResults <= 0 {
		cfg.Scan.MaxResults = 100
	}

	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 4
	}
	if cfg.AI.MaxPromptTokens <= 0 {
		cfg.AI.MaxPromptTokens = 512
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}

	if cfg.Telegram.ReminderDays <= 0 {
		cfg.Telegram.ReminderDays = 3
	}
	if cfg.Telegram.Interval <= 0 {
		cfg.Telegram.Interval = 6 * time.Hour
	}

	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 60
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
