package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/fee"
	"github.com/mtlprog/fundbook/internal/money"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string
	HTTPPort    string
	AdminAPIKey string

	LogFormat string
	LogLevel  slog.Level

	// DefaultFeeRate is the fee rate the snapshot worker applies; nil charges no fee.
	DefaultFeeRate               *decimal.Decimal
	ProfitBase                   fee.ProfitBase
	RejectDuplicateSnapshotDates bool
	SnapshotWorkerInterval       time.Duration

	SheetsSpreadsheetID   string
	GoogleCredentialsJSON string
}

// LoadDotEnv loads variables from the given .env files without overriding ones already
// set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:                  envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:                     envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:                  os.Getenv("ADMIN_API_KEY"),
		LogFormat:                    envOrDefaultChoice("LOG_FORMAT", "text", "text", "json"),
		LogLevel:                     envOrDefaultLevel("LOG_LEVEL", slog.LevelInfo),
		DefaultFeeRate:               envFeeRate("DEFAULT_FEE_RATE"),
		ProfitBase:                   envProfitBase("PROFIT_BASE"),
		RejectDuplicateSnapshotDates: envOrDefaultBool("REJECT_DUPLICATE_SNAPSHOT_DATES", false),
		SnapshotWorkerInterval:       envOrDefaultDuration("SNAPSHOT_WORKER_INTERVAL", 0),
		SheetsSpreadsheetID:          os.Getenv("SHEETS_SPREADSHEET_ID"),
		GoogleCredentialsJSON:        os.Getenv("GOOGLE_CREDENTIALS_JSON"),
	}
}

// SheetsEnabled reports whether the Google Sheets export hook is configured.
func (c Config) SheetsEnabled() bool {
	return c.SheetsSpreadsheetID != "" && c.GoogleCredentialsJSON != ""
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultChoice(key, defaultVal string, allowed ...string) string {
	v := strings.ToLower(envOrDefault(key, defaultVal))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	slog.Warn("unsupported env var value, using default", "key", key, "value", v, "default", defaultVal)
	return defaultVal
}

func envOrDefaultLevel(key string, defaultVal slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err != nil {
			slog.Warn("invalid log level env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return level
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envFeeRate returns nil when the variable is unset or not a rate in [0, 100].
func envFeeRate(key string) *decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	rate, err := money.Parse(v)
	if err == nil {
		err = fee.ValidateRate(rate)
	}
	if err != nil {
		slog.Warn("invalid fee rate env var, charging no fee", "key", key, "value", v, "error", err)
		return nil
	}
	return &rate
}

func envProfitBase(key string) fee.ProfitBase {
	b, err := fee.ParseProfitBase(os.Getenv(key))
	if err != nil {
		slog.Warn("invalid profit base env var, using default", "key", key, "error", err, "default", fee.CapitalBase)
		return fee.CapitalBase
	}
	return b
}
