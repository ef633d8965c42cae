// Package app wires configuration, storage and the HTTP surface into the
// run modes of the dashboard binary:
//
//   - serve: case API, health and metrics endpoints, periodic backups
//   - export: write the filtered record set to CSV or XLSX
//   - import: merge records from a CSV or XLSX file into the primary store
//   - backup: write one backup or run the backup loop
//   - restore: merge a backup file into the primary store
//   - migrate: apply PostgreSQL migrations
//   - token: issue a session token for a user
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/abah/PERMASALAHAN-TANAH/internal/backup"
	"github.com/abah/PERMASALAHAN-TANAH/internal/bundled"
	"github.com/abah/PERMASALAHAN-TANAH/internal/casestore"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/ports"
	"github.com/abah/PERMASALAHAN-TANAH/internal/datasource"
	"github.com/abah/PERMASALAHAN-TANAH/internal/firestore"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/config"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/worker"
	db "github.com/abah/PERMASALAHAN-TANAH/internal/storage"
)

const (
	logFieldSource = "source"
	logFieldPath   = "path"
	logFieldCount  = "count"
)

// App holds the shared dependencies of every run mode.
type App struct {
	cfg    *config.Config
	logger *zerolog.Logger
	out    io.Writer

	// openPrimary is replaced in tests.
	openPrimary func(ctx context.Context) (backend, error)
}

// backend is an opened primary store. repo and audit are nil for the bundled
// source.
type backend struct {
	repo  ports.RecordRepository
	audit ports.AuditLogger
	close func()
}

// New returns an App that opens the primary source named by cfg and writes
// command output to stdout.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	a := &App{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
	}
	a.openPrimary = a.openBackend

	return a
}

// SetOutput redirects command output such as issued tokens and backup lists.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

func (a *App) openBackend(ctx context.Context) (backend, error) {
	switch a.cfg.DataSource {
	case config.SourceFirestore:
		fc := a.cfg.FirestoreCfg()

		store, err := firestore.New(ctx, firestore.Config{
			ProjectID:       fc.ProjectID,
			Collection:      fc.Collection,
			AuditCollection: fc.AuditCollection,
			CredentialsFile: fc.CredentialsFile,
		}, a.logger)
		if err != nil {
			return backend{}, fmt.Errorf("open firestore: %w", err)
		}

		return backend{
			repo:  store,
			audit: store,
			close: func() {
				if err := store.Close(); err != nil {
					a.logger.Warn().Err(err).Msg("firestore close failed")
				}
			},
		}, nil
	case config.SourcePostgres:
		database, err := a.openDatabase(ctx)
		if err != nil {
			return backend{}, err
		}

		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return backend{}, fmt.Errorf("migrate: %w", err)
		}

		return backend{repo: database, audit: database, close: database.Close}, nil
	default:
		return backend{close: func() {}}, nil
	}
}

func (a *App) openDatabase(ctx context.Context) (*db.DB, error) {
	dc := a.cfg.DatabaseCfg()

	database, err := db.NewWithOptions(ctx, dc.PostgresDSN, db.PoolOptions{
		MaxConns:          dc.MaxConnections,
		MinConns:          dc.MinConnections,
		MaxConnIdleTime:   dc.MaxConnIdleTime,
		MaxConnLifetime:   dc.MaxConnLifetime,
		HealthCheckPeriod: dc.HealthCheckPeriod,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return database, nil
}

// openStore builds the case store over the configured primary source with
// the bundled dataset as fallback. The returned func releases the backend.
func (a *App) openStore(ctx context.Context) (*casestore.Store, func(), error) {
	b, err := a.openPrimary(ctx)
	if err != nil {
		return nil, nil, err
	}

	sc := a.cfg.SourceCfg()

	var (
		primary ports.RecordSource
		writer  ports.RecordWriter
	)

	if b.repo != nil {
		primary = b.repo
		writer = b.repo
	}

	adapter := datasource.New(primary, bundled.New(sc.BundledPath), datasource.Config{
		RetryAttempts: sc.RetryAttempts,
		RetryDelay:    sc.RetryDelay,
	}, a.logger)

	a.logger.Info().Str(logFieldSource, sc.Kind).Bool("writable", writer != nil).Msg("Case store ready")

	return casestore.New(adapter, writer, b.audit, a.logger), b.close, nil
}

// loadStore performs the initial load bounded by LOAD_TIMEOUT.
func (a *App) loadStore(ctx context.Context, store *casestore.Store) (*casestore.Snapshot, error) {
	var snap *casestore.Snapshot

	err := worker.RunWithTimeout(ctx, a.cfg.LoadTimeout, func(ctx context.Context) error {
		var err error
		snap, err = store.Load(ctx)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	return snap, nil
}

func (a *App) backupService(snapshots backup.Snapshots) *backup.Service {
	bc := a.cfg.BackupCfg()

	return backup.New(backup.Config{
		Dir:      bc.Dir,
		Interval: bc.Interval,
		Keep:     bc.Keep,
	}, snapshots, a.logger)
}
