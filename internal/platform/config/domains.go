package config

import (
	"net/netip"
	"time"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string
	MaxConnections    int32
	MinConnections    int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// FirestoreConfig holds Firestore connection settings.
type FirestoreConfig struct {
	ProjectID       string
	Collection      string
	AuditCollection string
	CredentialsFile string
}

// SourceConfig holds record loading settings.
type SourceConfig struct {
	Kind          string
	BundledPath   string
	RetryAttempts int
	RetryDelay    time.Duration
	LoadTimeout   time.Duration
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Port           int
	RateLimitRPM   int
	RateLimitBurst int
	TrustedProxies []netip.Prefix
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	SigningSecret string
	TokenTTLHours int
}

// BackupConfig holds snapshot backup settings.
type BackupConfig struct {
	Enabled  bool
	Dir      string
	Interval time.Duration
	Keep     int
}

// DatabaseCfg returns the database configuration extracted from Config.
func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{
		PostgresDSN:       c.PostgresDSN,
		MaxConnections:    c.DBMaxConnections,
		MinConnections:    c.DBMinConnections,
		MaxConnIdleTime:   c.DBMaxConnIdleTime,
		MaxConnLifetime:   c.DBMaxConnLifetime,
		HealthCheckPeriod: c.DBHealthCheckPeriod,
	}
}

// FirestoreCfg returns the Firestore configuration.
func (c *Config) FirestoreCfg() FirestoreConfig {
	return FirestoreConfig{
		ProjectID:       c.FirestoreProjectID,
		Collection:      c.FirestoreCollection,
		AuditCollection: c.FirestoreAuditCollection,
		CredentialsFile: c.FirestoreCredentialsFile,
	}
}

// SourceCfg returns the record loading configuration.
func (c *Config) SourceCfg() SourceConfig {
	return SourceConfig{
		Kind:          c.DataSource,
		BundledPath:   c.BundledDataPath,
		RetryAttempts: c.SourceRetryAttempts,
		RetryDelay:    c.SourceRetryDelay,
		LoadTimeout:   c.LoadTimeout,
	}
}

// HTTPCfg returns the API server configuration.
func (c *Config) HTTPCfg() HTTPConfig {
	return HTTPConfig{
		Port:           c.HTTPPort,
		RateLimitRPM:   c.RateLimitRPM,
		RateLimitBurst: c.RateLimitBurst,
		TrustedProxies: c.trustedProxies(),
	}
}

// trustedProxies skips entries rejected by Validate.
func (c *Config) trustedProxies() []netip.Prefix {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))

	for _, s := range c.TrustedProxies {
		if p, err := parseProxy(s); err == nil {
			out = append(out, p)
		}
	}

	return out
}

// AuthCfg returns the session token configuration.
func (c *Config) AuthCfg() AuthConfig {
	return AuthConfig{
		SigningSecret: c.AuthSigningSecret,
		TokenTTLHours: c.AuthTokenTTLHours,
	}
}

// BackupCfg returns the backup configuration.
func (c *Config) BackupCfg() BackupConfig {
	return BackupConfig{
		Enabled:  c.BackupEnabled,
		Dir:      c.BackupDir,
		Interval: c.BackupInterval,
		Keep:     c.BackupKeep,
	}
}
