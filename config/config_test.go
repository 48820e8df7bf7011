package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "vault_ledger", cfg.Database.DBName)
	assert.Equal(t, int64(1_000_000000), cfg.Vault.WithdrawLimit)
	assert.Equal(t, time.Hour, cfg.Vault.StalenessWindow)
	assert.Equal(t, int32(18), cfg.Vault.NativeDecimals)
	assert.Equal(t, "binance", cfg.Oracle.Provider)
	assert.Equal(t, 5*time.Second, cfg.Oracle.CacheTTL)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
vault:
  withdraw_limit: 500000000
  staleness_window: 30m
  native_binding: "BTCUSDT"
oracle:
  provider: static
  static_prices:
    BTCUSDT: "65000.25"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, int64(500000000), cfg.Vault.WithdrawLimit)
	assert.Equal(t, 30*time.Minute, cfg.Vault.StalenessWindow)
	assert.Equal(t, "BTCUSDT", cfg.Vault.NativeBinding)
	assert.Equal(t, "static", cfg.Oracle.Provider)
	assert.Equal(t, "65000.25", cfg.Oracle.StaticPrices["BTCUSDT"])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CVL_SERVER_PORT", "7070")
	t.Setenv("CVL_VAULT_WITHDRAW_LIMIT", "250000000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, int64(250000000), cfg.Vault.WithdrawLimit)
}

func TestLoad_RejectsNonPositiveLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vault:\n  withdraw_limit: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "withdraw_limit")
}

func TestLoad_RejectsNonPositiveWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vault:\n  staleness_window: 0s\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staleness_window")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p",
		DBName: "vault", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5433/vault?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
