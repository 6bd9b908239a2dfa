package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config aggregates application configuration values.
type Config struct {
	Data     DataConfig
	Ledger   LedgerConfig
	Telegram TelegramConfig
	Logging  LoggingConfig
}

// DataConfig locates the on-device stores.
type DataConfig struct {
	Dir         string
	LedgerFile  string
	SecretsFile string
}

// LedgerConfig carries the demo fee schedule.
type LedgerConfig struct {
	MinFee  decimal.Decimal
	FeeRate decimal.Decimal
}

// TelegramConfig configures the bot front-end.
type TelegramConfig struct {
	Token   string
	Timeout int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

const (
	defaultDataDir      = "data"
	defaultLedgerFile   = "wallet.json"
	defaultSecretsFile  = "secrets.json"
	defaultMinFee       = "10"
	defaultFeeRate      = "0.015"
	defaultBotTimeout   = 60
	defaultLoggingLevel = "info"
	defaultLogFormat    = "text"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	dir := valueOrDefault("WALLET_DATA_DIR", defaultDataDir)
	cfg := Config{
		Data: DataConfig{
			Dir:         dir,
			LedgerFile:  filepath.Join(dir, valueOrDefault("WALLET_LEDGER_FILE", defaultLedgerFile)),
			SecretsFile: filepath.Join(dir, valueOrDefault("WALLET_SECRETS_FILE", defaultSecretsFile)),
		},
		Telegram: TelegramConfig{
			Token:   os.Getenv("TELEGRAM_BOT_TOKEN"),
			Timeout: parseIntWithDefault("WALLET_BOT_TIMEOUT", defaultBotTimeout),
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("WALLET_LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("WALLET_LOG_FORMAT", defaultLogFormat),
		},
	}

	minFee, err := parseDecimal("WALLET_MIN_FEE", defaultMinFee)
	if err != nil {
		return Config{}, err
	}
	feeRate, err := parseDecimal("WALLET_FEE_RATE", defaultFeeRate)
	if err != nil {
		return Config{}, err
	}
	cfg.Ledger = LedgerConfig{MinFee: minFee, FeeRate: feeRate}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDecimal(key, fallback string) (decimal.Decimal, error) {
	raw := valueOrDefault(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if d.Sign() < 0 {
		return decimal.Decimal{}, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return d, nil
}
