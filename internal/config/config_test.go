package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30000.0, cfg.Account.Equity)
	assert.Equal(t, 0.005, cfg.Account.RiskPerTradePct)
	assert.True(t, cfg.Account.SimulateOnly)
	assert.Equal(t, time.Second, cfg.Throttle())
	assert.Equal(t, 2*time.Second, cfg.GraceDelay())
	assert.Equal(t, "data/signals.csv", cfg.Run.ExportPath)
	assert.NotEmpty(t, cfg.Schedule.IntradayCron)
	assert.NotEmpty(t, cfg.Schedule.DailyCron)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider:
  base_url: https://gw.example.com
  api_key: secret
account:
  equity: 50000
  risk_per_trade_pct: 0.01
run:
  throttle_seconds: 0.5
  export_path: /tmp/out.csv
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example.com", cfg.Provider.BaseURL)
	assert.Equal(t, 50000.0, cfg.Account.Equity)
	assert.Equal(t, 0.01, cfg.Account.RiskPerTradePct)
	assert.Equal(t, 500*time.Millisecond, cfg.Throttle())
	assert.Equal(t, "/tmp/out.csv", cfg.Run.ExportPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RADAR_BASE_URL", "https://env.example.com")
	t.Setenv("ACCOUNT_EQUITY", "12345")
	t.Setenv("RISK_PER_TRADE_PCT", "0.002")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Provider.BaseURL)
	assert.Equal(t, 12345.0, cfg.Account.Equity)
	assert.Equal(t, 0.002, cfg.Account.RiskPerTradePct)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		cfg.Provider.BaseURL = "https://gw.example.com"
		return cfg
	}

	assert.NoError(t, base().Validate())

	noURL := base()
	noURL.Provider.BaseURL = ""
	assert.Error(t, noURL.Validate())

	simNoURL := base()
	simNoURL.Provider.BaseURL = ""
	simNoURL.Provider.Sim = true
	assert.NoError(t, simNoURL.Validate())

	badRisk := base()
	badRisk.Account.RiskPerTradePct = 0.2
	assert.Error(t, badRisk.Validate())

	halfTelegram := base()
	halfTelegram.Telegram.BotToken = "token"
	assert.Error(t, halfTelegram.Validate())

	fullTelegram := base()
	fullTelegram.Telegram.BotToken = "token"
	fullTelegram.Telegram.ChatID = "42"
	assert.NoError(t, fullTelegram.Validate())
}
