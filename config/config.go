package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	JWTSecretKey   string `env:"JWT_SECRET_KEY"`
	// OperatorKeyHash is a bcrypt hash of the key allowed to register tiers.
	OperatorKeyHash   string        `env:"OPERATOR_KEY_HASH"`
	OwnerAddress      string        `env:"OWNER_ADDRESS"`
	RaffleThresholds  []string      `env:"RAFFLE_THRESHOLDS_WEI" envSeparator:","`
	LeaderboardSize   int           `env:"LEADERBOARD_SIZE" envDefault:"100"`
	TiersFile         string        `env:"TIERS_FILE"`
	StallScanInterval time.Duration `env:"STALL_SCAN_INTERVAL" envDefault:"15s"`
	ArchiveRetryEvery time.Duration `env:"ARCHIVE_RETRY_INTERVAL" envDefault:"5m"`
	DBConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	R2 R2Config `envPrefix:"R2_"`
}

// R2Config is optional: the archive is disabled unless every field is set.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	BucketName      string `env:"BUCKET_NAME"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"`
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != "" && c.PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable is not set"))
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver))
	}
	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY environment variable is not set"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort))
	}
	if !common.IsHexAddress(c.OwnerAddress) {
		errs = append(errs, fmt.Errorf("OWNER_ADDRESS must be a hex address, got %q", c.OwnerAddress))
	}
	if _, err := c.Thresholds(); err != nil {
		errs = append(errs, err)
	}
	if c.LeaderboardSize <= 0 {
		errs = append(errs, fmt.Errorf("LEADERBOARD_SIZE must be positive, got %d", c.LeaderboardSize))
	}
	if c.StallScanInterval <= 0 {
		errs = append(errs, fmt.Errorf("STALL_SCAN_INTERVAL must be positive, got %s", c.StallScanInterval))
	}
	return errors.Join(errs...)
}

func (c *Config) Owner() common.Address {
	return common.HexToAddress(c.OwnerAddress)
}

// Thresholds parses RAFFLE_THRESHOLDS_WEI as base-10 wei amounts.
func (c *Config) Thresholds() ([]*big.Int, error) {
	out := make([]*big.Int, 0, len(c.RaffleThresholds))
	for _, raw := range c.RaffleThresholds {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok || v.Sign() <= 0 {
			return nil, fmt.Errorf("RAFFLE_THRESHOLDS_WEI: invalid amount %q", raw)
		}
		out = append(out, v)
	}
	return out, nil
}
