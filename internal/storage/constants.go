package db

import "time"

// SourceName identifies the PostgreSQL backend in logs and metrics.
const SourceName = "postgres"

// Table names.
const (
	tableCases    = "cases"
	tableAuditLog = "audit_log"
)

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants
const (
	defaultMaxConns          int32         = 10
	defaultMinConns          int32         = 1
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)
