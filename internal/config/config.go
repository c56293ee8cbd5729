package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"nse-tracker/internal/market"
	"nse-tracker/internal/tracker"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Market  MarketConfig  `yaml:"market"`
	Tracker TrackerConfig `yaml:"tracker"`
	Push    PushConfig    `yaml:"push"`
	Notify  NotifyConfig  `yaml:"notify"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
}

type MarketConfig struct {
	HomeURL              string `yaml:"home_url"`
	APIBaseURL           string `yaml:"api_base_url"`
	TimeoutMs            int    `yaml:"timeout_ms"`
	SessionMode          string `yaml:"session_mode"`
	UserAgent            string `yaml:"user_agent"`
	AcceptLanguage       string `yaml:"accept_language"`
	Referer              string `yaml:"referer"`
	MinRequestIntervalMs int    `yaml:"min_request_interval_ms"`
	FetchConcurrency     int    `yaml:"fetch_concurrency"`
}

type TrackerConfig struct {
	Symbols     string `yaml:"symbols"`
	IntervalSec int    `yaml:"interval_sec"`
	Autostart   bool   `yaml:"autostart"`
}

type PushConfig struct {
	Dingtalk DingtalkConfig `yaml:"dingtalk"`
}

type DingtalkConfig struct {
	Webhook   string `yaml:"webhook"`
	Secret    string `yaml:"secret"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type NotifyConfig struct {
	CooldownSec int `yaml:"cooldown_sec"`
	PerMinute   int `yaml:"per_minute"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Output: "stderr"},
		Market: MarketConfig{
			HomeURL:          market.DefaultHomeURL,
			APIBaseURL:       market.DefaultAPIBaseURL,
			TimeoutMs:        int(market.DefaultTimeout.Milliseconds()),
			SessionMode:      string(market.SessionReuse),
			UserAgent:        market.DefaultUserAgent,
			AcceptLanguage:   market.DefaultAcceptLanguage,
			Referer:          market.DefaultReferer,
			FetchConcurrency: 1,
		},
		Tracker: TrackerConfig{
			Symbols:     tracker.DefaultSymbols,
			IntervalSec: tracker.DefaultIntervalSec,
		},
		Push: PushConfig{
			Dingtalk: DingtalkConfig{TimeoutMs: 5000},
		},
		Notify: NotifyConfig{CooldownSec: 300, PerMinute: 6},
	}
}

// Load reads path over the defaults, then applies a .env file (if present)
// and environment overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if err := tracker.ValidateInterval(c.Tracker.IntervalSec); err != nil {
		return fmt.Errorf("tracker.interval_sec: %w", err)
	}
	if _, err := market.ParseSessionMode(c.Market.SessionMode); err != nil {
		return fmt.Errorf("market.session_mode: %w", err)
	}
	if c.Market.FetchConcurrency < 1 {
		return fmt.Errorf("invalid market.fetch_concurrency: %d", c.Market.FetchConcurrency)
	}
	if c.Market.TimeoutMs <= 0 {
		return fmt.Errorf("invalid market.timeout_ms: %d", c.Market.TimeoutMs)
	}
	if c.Market.MinRequestIntervalMs < 0 {
		return fmt.Errorf("invalid market.min_request_interval_ms: %d", c.Market.MinRequestIntervalMs)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TRACKER_SYMBOLS"); v != "" {
		cfg.Tracker.Symbols = v
	}
	if v := os.Getenv("TRACKER_INTERVAL_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRACKER_INTERVAL_SEC: %q", v)
		}
		cfg.Tracker.IntervalSec = sec
	}
	if v := os.Getenv("NSE_SESSION_MODE"); v != "" {
		cfg.Market.SessionMode = v
	}
	if v := os.Getenv("DINGTALK_WEBHOOK"); v != "" {
		cfg.Push.Dingtalk.Webhook = v
	}
	if v := os.Getenv("DINGTALK_SECRET"); v != "" {
		cfg.Push.Dingtalk.Secret = v
	}
	return nil
}
