package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/subsavvy
redis:
  url: localhost:6379
auth:
  jwt_secret: secret
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.True(t, cfg.Runtime.Dev)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Matching.MinSavings.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 10, cfg.Matching.MaxResults)
	assert.Equal(t, 30, cfg.Recommend.UnusedDays)
	assert.Equal(t, 120, cfg.Recommend.LowUsageMinutes)
	assert.Equal(t, 90, cfg.Scan.DefaultDays)
	assert.Equal(t, 60, cfg.RateLimit.Requests)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  request_timeout: 5s
database:
  url: postgres://localhost/subsavvy
redis:
  url: localhost:6379
auth:
  jwt_secret: secret
matching:
  min_savings: "49.50"
  min_match_percentage: 40
  max_results: 3
telegram:
  interval: 30m
`)
	cfg, err := Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Matching.MinSavings.Equal(decimal.RequireFromString("49.5")))
	assert.InDelta(t, 40.0, cfg.Matching.MinMatchPercentage, 1e-9)
	assert.Equal(t, 3, cfg.Matching.MaxResults)
	assert.Equal(t, 30*time.Minute, cfg.Telegram.Interval)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"missing database": "redis:\n  url: x\nauth:\n  jwt_secret: s\n",
		"missing redis":    "database:\n  url: x\nauth:\n  jwt_secret: s\n",
		"missing secret":   "database:\n  url: x\nredis:\n  url: x\n",
		"short key":        "database:\n  url: x\nredis:\n  url: x\nauth:\n  jwt_secret: s\nsecurity:\n  encryption_key: short\n",
		"bad percentage":   "database:\n  url: x\nredis:\n  url: x\nauth:\n  jwt_secret: s\nmatching:\n  min_match_percentage: 120\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body), false)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	assert.Error(t, err)
}
