package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	AES      AESConfig      `mapstructure:"aes"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

// VaultConfig holds the ledger's own parameters. WithdrawLimit is fixed at
// startup and never mutated afterwards; StalenessWindow is only the initial
// value, runtime updates go through the vault state store.
type VaultConfig struct {
	WithdrawLimit   int64         `mapstructure:"withdraw_limit"` // unit-of-account minor units (6 decimals)
	StalenessWindow time.Duration `mapstructure:"staleness_window"`
	NativeBinding   string        `mapstructure:"native_binding"` // oracle binding for the native asset
	NativeDecimals  int32         `mapstructure:"native_decimals"`
}

type OracleConfig struct {
	Provider      string            `mapstructure:"provider"` // binance, static
	CacheTTL      time.Duration     `mapstructure:"cache_ttl"`
	BinanceKey    string            `mapstructure:"binance_key"`
	BinanceSecret string            `mapstructure:"binance_secret"`
	StaticPrices  map[string]string `mapstructure:"static_prices"` // binding -> decimal price
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CVL_ (Custody Vault Ledger).
// Nested keys use underscore: CVL_DATABASE_HOST, CVL_VAULT_WITHDRAW_LIMIT, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "vault_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "custody-vault-ledger")
	v.SetDefault("aes.key", "")
	v.SetDefault("vault.withdraw_limit", 1_000_000000) // 1000.000000 units of account
	v.SetDefault("vault.staleness_window", "1h")
	v.SetDefault("vault.native_binding", "ETHUSDT")
	v.SetDefault("vault.native_decimals", 18)
	v.SetDefault("oracle.provider", "binance")
	v.SetDefault("oracle.cache_ttl", "5s")
	v.SetDefault("oracle.binance_key", "")
	v.SetDefault("oracle.binance_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CVL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CVL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Vault.WithdrawLimit <= 0 {
		return nil, fmt.Errorf("vault.withdraw_limit must be positive")
	}
	if cfg.Vault.StalenessWindow <= 0 {
		return nil, fmt.Errorf("vault.staleness_window must be positive")
	}

	return &cfg, nil
}
