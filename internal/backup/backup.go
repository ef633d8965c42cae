// Package backup writes the current record snapshot to timestamped JSON files,
// prunes old files, and reads a backup back as records for restore.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abah/PERMASALAHAN-TANAH/internal/bundled"
	"github.com/abah/PERMASALAHAN-TANAH/internal/casestore"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/observability"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/worker"
	"github.com/abah/PERMASALAHAN-TANAH/internal/records"
)

const (
	filePrefix = "backup-"
	fileExt    = ".json"
	timeLayout = "20060102T150405.000Z"

	// DefaultKeep is the number of backups retained when Config.Keep is zero.
	DefaultKeep = 50

	dirPerm  = 0o755
	filePerm = 0o600

	logFieldFile  = "file"
	logFieldCount = "count"

	finalBackupTimeout = 30 * time.Second
)

// Snapshots provides the snapshot to back up.
type Snapshots interface {
	Current() *casestore.Snapshot
}

// Config configures the backup service.
type Config struct {
	Dir      string
	Interval time.Duration
	Keep     int
}

// Info describes one backup file.
type Info struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Service writes and reads backups in one directory.
type Service struct {
	cfg       Config
	snapshots Snapshots
	logger    *zerolog.Logger
	now       func() time.Time
}

// New creates a backup service.
func New(cfg Config, snapshots Snapshots, logger *zerolog.Logger) *Service {
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultKeep
	}

	return &Service{cfg: cfg, snapshots: snapshots, logger: logger, now: time.Now}
}

// Run writes a backup immediately and then every interval until ctx is done.
// A final backup is written on shutdown.
func (s *Service) Run(ctx context.Context) error {
	return worker.Loop(ctx, worker.Config{
		Name: "backup",
		PeriodicTasks: []worker.PeriodicTask{{
			Name:     "snapshot-backup",
			Interval: s.cfg.Interval,
			Run:      s.runOnce,
		}},
		OnStop: func() {
			ctx, cancel := context.WithTimeout(context.Background(), finalBackupTimeout)
			defer cancel()

			s.runOnce(ctx)
		},
		Logger: s.logger,
	})
}

func (s *Service) runOnce(ctx context.Context) {
	if _, err := s.Write(ctx); err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
	}
}

// Write stores the current snapshot and prunes old backups. It returns the
// name of the new file.
func (s *Service) Write(ctx context.Context) (string, error) {
	start := s.now()

	name, err := s.write(ctx)
	if err != nil {
		observability.Backups.WithLabelValues(observability.StatusError).Inc()

		return "", err
	}

	observability.Backups.WithLabelValues(observability.StatusSuccess).Inc()
	observability.BackupDurationSeconds.Observe(s.now().Sub(start).Seconds())

	return name, nil
}

func (s *Service) write(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	snap := s.snapshots.Current()
	if snap == nil {
		return "", fmt.Errorf("backup: %w", errors.ErrNoDataAvailable)
	}

	if err := os.MkdirAll(s.cfg.Dir, dirPerm); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	data, err := json.MarshalIndent(snap.Records(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	name := FileName(s.now())
	path := filepath.Join(s.cfg.Dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)

		return "", fmt.Errorf("finalize backup: %w", err)
	}

	s.logger.Info().Str(logFieldFile, name).Int(logFieldCount, snap.Len()).Msg("backup written")

	if err := s.prune(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune old backups")
	}

	return name, nil
}

// prune deletes all but the newest Keep backups.
func (s *Service) prune() error {
	names, err := s.names()
	if err != nil {
		return err
	}

	observability.BackupFiles.Set(float64(min(len(names), s.cfg.Keep)))

	if len(names) <= s.cfg.Keep {
		return nil
	}

	for _, name := range names[s.cfg.Keep:] {
		if err := os.Remove(filepath.Join(s.cfg.Dir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}

		s.logger.Info().Str(logFieldFile, name).Msg("cleaned up old backup")
	}

	return nil
}

// List returns the backups, newest first.
func (s *Service) List() ([]Info, error) {
	names, err := s.names()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(names))

	for _, name := range names {
		fi, err := os.Stat(filepath.Join(s.cfg.Dir, name))
		if err != nil {
			continue
		}

		infos = append(infos, Info{Name: name, Size: fi.Size(), ModTime: fi.ModTime().UTC()})
	}

	return infos, nil
}

// Restore reads the named backup as records. Documents without an id are skipped.
func (s *Service) Restore(name string) ([]domain.Record, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: backup name %q", errors.ErrInvalidInput, name)
	}

	f, err := os.Open(filepath.Join(s.cfg.Dir, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", errors.ErrBackupNotFound, name)
	}

	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	docs, err := bundled.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", name, err)
	}

	recs := make([]domain.Record, 0, len(docs))

	for _, doc := range docs {
		rec, err := records.Normalize(doc)
		if err != nil {
			s.logger.Warn().Err(err).Str(logFieldFile, name).Msg("skipping malformed backup entry")

			continue
		}

		recs = append(recs, rec)
	}

	return recs, nil
}

// names lists backup file names, newest first.
func (s *Service) names() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var names []string

	for _, e := range entries {
		if !e.IsDir() && validName(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	return names, nil
}

// FileName returns the backup file name for t.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(timeLayout) + fileExt
}

func validName(name string) bool {
	return strings.HasPrefix(name, filePrefix) &&
		strings.HasSuffix(name, fileExt) &&
		filepath.Base(name) == name
}
