package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"tourmarket-backend/internal/domain"
)

// Config is built once at process start and passed by reference into
// the store, calculator callers, and backup manager. No component reads
// the environment on its own.
type Config struct {
	Env       string
	Port      int
	JWTSecret string

	DataFile    string
	BackupRoot  string
	BackupKeep  int
	BackupDebug bool

	// CommissionPercentRaw keeps the env input so Validate can reject
	// it with the original text; CommissionPercent is the resolved
	// value after Validate.
	CommissionPercentRaw string
	CommissionPercent    float64

	OrdersRepository string
	PostgresDSN      string

	SeedUsersJSON string
}

func Default() Config {
	return Config{
		Env:              "dev",
		Port:             3000,
		JWTSecret:        "",
		DataFile:         "orders.json",
		BackupRoot:       "backups/orders",
		BackupKeep:       30,
		BackupDebug:      false,
		OrdersRepository: "file",
	}
}

func EnvDefaults() Config {
	return fromEnv(Default())
}

func fromEnv(c Config) Config {
	if v := os.Getenv("TOURMARKET_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("TOURMARKET_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("TOURMARKET_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("TOURMARKET_DATA_FILE"); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv("TOURMARKET_BACKUP_ROOT"); v != "" {
		c.BackupRoot = v
	}
	if v := os.Getenv("TOURMARKET_BACKUP_KEEP"); v != "" {
		// non-positive or non-numeric input keeps the default
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BackupKeep = n
		}
	}
	if v := os.Getenv("TOURMARKET_BACKUP_DEBUG"); v != "" {
		c.BackupDebug = truthy(v)
	}
	c.CommissionPercentRaw = os.Getenv("TOURMARKET_PLATFORM_COMMISSION_PERCENT")
	if v := os.Getenv("TOURMARKET_ORDERS_REPOSITORY"); v != "" {
		c.OrdersRepository = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("TOURMARKET_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("TOURMARKET_SEED_USERS_JSON"); v != "" {
		c.SeedUsersJSON = v
	}
	return c
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate resolves the commission percent and checks the settings that
// must fail fast at startup.
func (c *Config) Validate() error {
	raw := strings.TrimSpace(c.CommissionPercentRaw)
	if raw == "" {
		c.CommissionPercent = 0
	} else {
		// ParseFloat accepts "NaN", which sails through range checks
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(pct) || pct < 0 || pct > 100 {
			return &domain.InvalidCommissionConfigError{Raw: raw}
		}
		c.CommissionPercent = pct
	}

	switch c.OrdersRepository {
	case "file", "memory", "postgres":
	default:
		return fmt.Errorf("invalid TOURMARKET_ORDERS_REPOSITORY %q: expected file, memory or postgres", c.OrdersRepository)
	}

	if c.Production() && len(c.JWTSecret) < 16 {
		return fmt.Errorf("TOURMARKET_JWT_SECRET is required in production and must be at least 16 characters")
	}
	return nil
}
