// Package config loads service configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Data source names accepted by DATA_SOURCE.
const (
	SourceFirestore = "firestore"
	SourcePostgres  = "postgres"
	SourceBundled   = "bundled"
)

const minSigningSecretLen = 16

// Validation errors.
var (
	ErrUnknownDataSource    = errors.New("unknown DATA_SOURCE")
	ErrFirestoreProject     = errors.New("FIRESTORE_PROJECT_ID is required for the firestore data source")
	ErrPostgresDSN          = errors.New("POSTGRES_DSN is required for the postgres data source")
	ErrSigningSecretTooWeak = errors.New("AUTH_SIGNING_SECRET must be at least 16 characters")
	ErrBackupDir            = errors.New("BACKUP_DIR is required when backups are enabled")
	ErrNonPositive          = errors.New("value must be positive")
	ErrTrustedProxy         = errors.New("TRUSTED_PROXIES entry must be an IP address or CIDR prefix")
)

type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"local"`
	DataSource string `env:"DATA_SOURCE" envDefault:"bundled"`

	// Firestore
	FirestoreProjectID       string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreCollection      string `env:"FIRESTORE_COLLECTION" envDefault:"transmigrasi"`
	FirestoreAuditCollection string `env:"FIRESTORE_AUDIT_COLLECTION" envDefault:"audit_log"`
	FirestoreCredentialsFile string `env:"FIRESTORE_CREDENTIALS_FILE"`

	// PostgreSQL
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Loading
	BundledDataPath     string        `env:"BUNDLED_DATA_PATH"`
	SourceRetryAttempts int           `env:"SOURCE_RETRY_ATTEMPTS" envDefault:"3"`
	SourceRetryDelay    time.Duration `env:"SOURCE_RETRY_DELAY" envDefault:"2s"`
	LoadTimeout         time.Duration `env:"LOAD_TIMEOUT" envDefault:"30s"`

	// HTTP
	HTTPPort       int      `env:"HTTP_PORT" envDefault:"8080"`
	RateLimitRPM   int      `env:"RATE_LIMIT_RPM" envDefault:"120"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"20"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Auth
	AuthSigningSecret string `env:"AUTH_SIGNING_SECRET"`
	AuthTokenTTLHours int    `env:"AUTH_TOKEN_TTL_HOURS" envDefault:"12"`

	// Backup
	BackupEnabled  bool          `env:"BACKUP_ENABLED" envDefault:"false"`
	BackupDir      string        `env:"BACKUP_DIR" envDefault:"./backups"`
	BackupInterval time.Duration `env:"BACKUP_INTERVAL" envDefault:"24h"`
	BackupKeep     int           `env:"BACKUP_KEEP" envDefault:"50"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	cfg.DataSource = strings.ToLower(strings.TrimSpace(cfg.DataSource))

	return cfg, nil
}

// applyAliases fills settings from the variable names used by hosting
// platforms when the canonical name is not set.
func applyAliases(cfg *Config) {
	if cfg.FirestoreProjectID == "" {
		setStringFromEnv("GOOGLE_CLOUD_PROJECT", &cfg.FirestoreProjectID)
	}

	if cfg.FirestoreCredentialsFile == "" {
		setStringFromEnv("GOOGLE_APPLICATION_CREDENTIALS", &cfg.FirestoreCredentialsFile)
	}

	if cfg.PostgresDSN == "" {
		setStringFromEnv("DATABASE_URL", &cfg.PostgresDSN)
	}
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

// Validate checks cross-field requirements. The signing secret is only
// required by modes that issue or check tokens, so callers pass needAuth.
func (c *Config) Validate(needAuth bool) error {
	var errs []error

	switch c.DataSource {
	case SourceFirestore:
		if c.FirestoreProjectID == "" {
			errs = append(errs, ErrFirestoreProject)
		}
	case SourcePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, ErrPostgresDSN)
		}
	case SourceBundled:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDataSource, c.DataSource))
	}

	if needAuth && len(c.AuthSigningSecret) < minSigningSecretLen {
		errs = append(errs, ErrSigningSecretTooWeak)
	}

	if c.BackupEnabled && strings.TrimSpace(c.BackupDir) == "" {
		errs = append(errs, ErrBackupDir)
	}

	for _, p := range c.TrustedProxies {
		if _, err := parseProxy(p); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrTrustedProxy, p))
		}
	}

	for name, v := range map[string]int{
		"SOURCE_RETRY_ATTEMPTS": c.SourceRetryAttempts,
		"RATE_LIMIT_RPM":        c.RateLimitRPM,
		"RATE_LIMIT_BURST":      c.RateLimitBurst,
		"AUTH_TOKEN_TTL_HOURS":  c.AuthTokenTTLHours,
		"BACKUP_KEEP":           c.BackupKeep,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrNonPositive))
		}
	}

	return errors.Join(errs...)
}

// parseProxy accepts a CIDR prefix or a single address.
func parseProxy(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)

	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}

		return p.Masked(), nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}

	addr = addr.Unmap()

	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// IsLocal reports whether the service runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}
