// Package config loads the application configuration from a YAML file,
// applies environment variable overrides and defaults, and validates the
// result. All runtime knobs live here; nothing reads the environment later.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Sim     bool   `yaml:"sim"`
	} `yaml:"provider"`
	Account struct {
		Equity          float64 `yaml:"equity"`
		RiskPerTradePct float64 `yaml:"risk_per_trade_pct"`
		SimulateOnly    bool    `yaml:"simulate_only"`
	} `yaml:"account"`
	Run struct {
		ThrottleSeconds float64 `yaml:"throttle_seconds"`
		GraceSeconds    float64 `yaml:"grace_seconds"`
		ExportPath      string  `yaml:"export_path"`
	} `yaml:"run"`
	Schedule struct {
		IntradayCron string `yaml:"intraday_cron"`
		DailyCron    string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Account.SimulateOnly = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RADAR_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("RADAR_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("ACCOUNT_EQUITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Account.Equity = f
		}
	}
	if v := os.Getenv("RISK_PER_TRADE_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Account.RiskPerTradePct = f
		}
	}
	if v := os.Getenv("EXPORT_PATH"); v != "" {
		cfg.Run.ExportPath = v
	}
	if v := os.Getenv("CRON_INTRADAY"); v != "" {
		cfg.Schedule.IntradayCron = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}

	// Defaults
	if cfg.Account.Equity == 0 {
		cfg.Account.Equity = 30000
	}
	if cfg.Account.RiskPerTradePct == 0 {
		cfg.Account.RiskPerTradePct = 0.005
	}
	if cfg.Run.ThrottleSeconds == 0 {
		cfg.Run.ThrottleSeconds = 1
	}
	if cfg.Run.GraceSeconds == 0 {
		cfg.Run.GraceSeconds = 2
	}
	if cfg.Run.ExportPath == "" {
		cfg.Run.ExportPath = "data/signals.csv"
	}
	if cfg.Schedule.IntradayCron == "" {
		// Every 30 minutes during the regular session, Mon-Fri.
		cfg.Schedule.IntradayCron = "0 */30 10-15 * * 1-5"
	}
	if cfg.Schedule.DailyCron == "" {
		// Half an hour after the close, Mon-Fri.
		cfg.Schedule.DailyCron = "0 30 16 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if !c.Provider.Sim && c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required unless provider.sim is set")
	}
	if c.Account.Equity <= 0 {
		return fmt.Errorf("account.equity must be positive")
	}
	if c.Account.RiskPerTradePct <= 0 || c.Account.RiskPerTradePct > 0.05 {
		return fmt.Errorf("account.risk_per_trade_pct must be in (0, 0.05]")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Throttle returns the inter-symbol spacing as a duration.
func (c *Config) Throttle() time.Duration {
	return time.Duration(c.Run.ThrottleSeconds * float64(time.Second))
}

// GraceDelay returns the pre-disconnect drain window as a duration.
func (c *Config) GraceDelay() time.Duration {
	return time.Duration(c.Run.GraceSeconds * float64(time.Second))
}
