package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

// Test environment variable keys.
const (
	testEnvDataSource   = "DATA_SOURCE"
	testEnvPostgresDSN  = "POSTGRES_DSN"
	testEnvProjectID    = "FIRESTORE_PROJECT_ID"
	testEnvRetryDelay   = "SOURCE_RETRY_DELAY"
	testEnvDatabaseURL  = "DATABASE_URL"
	testEnvCloudProject = "GOOGLE_CLOUD_PROJECT"
)

// Test values.
const (
	testPostgresDSN = "postgres://localhost/tanah"
	testProjectID   = "pemetaan-upt"
	testSecret      = "0123456789abcdef-secret"
	testErrLoad     = "Load() error = %v"
)

var managedKeys = []string{
	"APP_ENV", testEnvDataSource, testEnvPostgresDSN, testEnvProjectID, testEnvRetryDelay,
	testEnvDatabaseURL, testEnvCloudProject, "GOOGLE_APPLICATION_CREDENTIALS",
	"FIRESTORE_CREDENTIALS_FILE", "FIRESTORE_COLLECTION", "HTTP_PORT", "BACKUP_KEEP",
	"BACKUP_ENABLED", "BACKUP_DIR", "RATE_LIMIT_RPM", "AUTH_TOKEN_TTL_HOURS", "TRUSTED_PROXIES",
}

// clearEnv unsets the keys for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, k := range managedKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != "local" {
		t.Errorf("AppEnv default = %q, want %q", cfg.AppEnv, "local")
	}

	if cfg.DataSource != SourceBundled {
		t.Errorf("DataSource default = %q, want %q", cfg.DataSource, SourceBundled)
	}

	if cfg.FirestoreCollection != "transmigrasi" {
		t.Errorf("FirestoreCollection default = %q, want %q", cfg.FirestoreCollection, "transmigrasi")
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort default = %d, want %d", cfg.HTTPPort, 8080)
	}

	if cfg.BackupKeep != 50 {
		t.Errorf("BackupKeep default = %d, want %d", cfg.BackupKeep, 50)
	}

	if cfg.SourceRetryDelay != 2*time.Second {
		t.Errorf("SourceRetryDelay default = %v, want %v", cfg.SourceRetryDelay, 2*time.Second)
	}

	if !cfg.IsLocal() {
		t.Error("IsLocal() = false, want true")
	}
}

func TestLoad_Values(t *testing.T) {
	clearEnv(t)
	t.Setenv(testEnvDataSource, " Postgres ")
	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
	t.Setenv(testEnvRetryDelay, "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.DataSource != SourcePostgres {
		t.Errorf("DataSource = %q, want %q", cfg.DataSource, SourcePostgres)
	}

	if got := cfg.DatabaseCfg().PostgresDSN; got != testPostgresDSN {
		t.Errorf("DatabaseCfg().PostgresDSN = %q, want %q", got, testPostgresDSN)
	}

	if got := cfg.SourceCfg().RetryDelay; got != 500*time.Millisecond {
		t.Errorf("SourceCfg().RetryDelay = %v, want %v", got, 500*time.Millisecond)
	}
}

func TestLoad_Aliases(t *testing.T) {
	clearEnv(t)
	t.Setenv(testEnvDatabaseURL, testPostgresDSN)
	t.Setenv(testEnvCloudProject, testProjectID)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want alias value %q", cfg.PostgresDSN, testPostgresDSN)
	}

	if cfg.FirestoreProjectID != testProjectID {
		t.Errorf("FirestoreProjectID = %q, want alias value %q", cfg.FirestoreProjectID, testProjectID)
	}
}

func TestLoad_AliasDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(testEnvProjectID, "canonical")
	t.Setenv(testEnvCloudProject, testProjectID)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.FirestoreProjectID != "canonical" {
		t.Errorf("FirestoreProjectID = %q, want %q", cfg.FirestoreProjectID, "canonical")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv(testEnvRetryDelay, "soon")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid SOURCE_RETRY_DELAY")
	}
}

func validConfig() *Config {
	return &Config{
		DataSource:          SourceBundled,
		SourceRetryAttempts: 3,
		RateLimitRPM:        60,
		RateLimitBurst:      10,
		AuthSigningSecret:   testSecret,
		AuthTokenTTLHours:   12,
		BackupDir:           "./backups",
		BackupKeep:          50,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		needAuth bool
		want     error
	}{
		{name: "bundled ok", mutate: func(*Config) {}, needAuth: true},
		{
			name:   "firestore without project",
			mutate: func(c *Config) { c.DataSource = SourceFirestore },
			want:   ErrFirestoreProject,
		},
		{
			name: "firestore with project",
			mutate: func(c *Config) {
				c.DataSource = SourceFirestore
				c.FirestoreProjectID = testProjectID
			},
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *Config) { c.DataSource = SourcePostgres },
			want:   ErrPostgresDSN,
		},
		{
			name:   "unknown source",
			mutate: func(c *Config) { c.DataSource = "mongo" },
			want:   ErrUnknownDataSource,
		},
		{
			name:     "weak secret when auth needed",
			mutate:   func(c *Config) { c.AuthSigningSecret = "short" },
			needAuth: true,
			want:     ErrSigningSecretTooWeak,
		},
		{
			name:   "weak secret ignored without auth",
			mutate: func(c *Config) { c.AuthSigningSecret = "" },
		},
		{
			name: "backup without dir",
			mutate: func(c *Config) {
				c.BackupEnabled = true
				c.BackupDir = " "
			},
			want: ErrBackupDir,
		},
		{
			name:   "trusted proxies ok",
			mutate: func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", " 192.168.1.1", "::1"} },
		},
		{
			name:   "bad trusted proxy",
			mutate: func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "gateway"} },
			want:   ErrTrustedProxy,
		},
		{
			name:   "zero keep",
			mutate: func(c *Config) { c.BackupKeep = 0 },
			want:   ErrNonPositive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate(tt.needAuth)

			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}

				return
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDomainConfigs(t *testing.T) {
	cfg := validConfig()
	cfg.HTTPPort = 9000
	cfg.BackupEnabled = true
	cfg.BackupInterval = time.Hour
	cfg.FirestoreProjectID = testProjectID

	if got := cfg.HTTPCfg().Port; got != 9000 {
		t.Errorf("HTTPCfg().Port = %d, want %d", got, 9000)
	}

	cfg.TrustedProxies = []string{"10.1.2.3/8", "172.16.0.1", "bad"}

	proxies := cfg.HTTPCfg().TrustedProxies
	if len(proxies) != 2 || proxies[0].String() != "10.0.0.0/8" || proxies[1].String() != "172.16.0.1/32" {
		t.Errorf("HTTPCfg().TrustedProxies = %v", proxies)
	}

	if got := cfg.AuthCfg().SigningSecret; got != testSecret {
		t.Errorf("AuthCfg().SigningSecret = %q, want %q", got, testSecret)
	}

	b := cfg.BackupCfg()
	if !b.Enabled || b.Interval != time.Hour || b.Keep != 50 {
		t.Errorf("BackupCfg() = %+v", b)
	}

	if got := cfg.FirestoreCfg().ProjectID; got != testProjectID {
		t.Errorf("FirestoreCfg().ProjectID = %q, want %q", got, testProjectID)
	}
}
