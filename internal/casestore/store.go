// Package casestore holds the current record snapshot and routes every
// mutation through a capability check, the backing writer and the audit log.
package casestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/ports"
	"github.com/abah/PERMASALAHAN-TANAH/internal/datasource"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/observability"
	"github.com/abah/PERMASALAHAN-TANAH/internal/records"
)

const (
	logFieldRecordID = "record_id"
	logFieldAction   = "action"
	logFieldVersion  = "version"
	logFieldSource   = "source"
	logFieldCount    = "count"

	errFmtReload = "reload after %s: %w"
)

// Loader produces a fresh record set.
type Loader interface {
	Load(ctx context.Context) (datasource.Loaded, error)
}

// Store is safe for concurrent use.
type Store struct {
	loader Loader
	writer ports.RecordWriter
	audit  ports.AuditLogger
	logger *zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *Snapshot
	version uint64

	// reads numbers loads in start order; published is the number of the
	// load behind current.
	reads     uint64
	published uint64
}

// New creates a store. A nil writer makes the store read-only; a nil audit
// logger disables auditing.
func New(loader Loader, writer ports.RecordWriter, audit ports.AuditLogger, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Store{
		loader: loader,
		writer: writer,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// Load reads the record set and makes it the current snapshot. A load that
// finishes after a later-started load has been published is discarded and the
// newer snapshot is returned.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	s.reads++
	seq := s.reads
	s.mu.Unlock()

	loaded, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	s.mu.Lock()

	if seq < s.published {
		snap := s.current
		s.mu.Unlock()

		s.logger.Debug().Uint64(logFieldVersion, snap.Version()).Msg("discarding stale record load")

		return snap, nil
	}

	s.published = seq
	s.version++
	snap := newSnapshot(loaded, s.version, s.now().UTC())
	s.current = snap
	s.mu.Unlock()

	observability.SnapshotVersion.Set(float64(snap.Version()))
	observability.SnapshotRecords.Set(float64(snap.Len()))
	observability.SnapshotLoadedTimestamp.Set(float64(snap.LoadedAt().Unix()))

	s.logger.Info().
		Str(logFieldSource, snap.Source()).
		Int(logFieldCount, snap.Len()).
		Uint64(logFieldVersion, snap.Version()).
		Bool("fallback", snap.Fallback()).
		Msg("record snapshot loaded")

	return snap, nil
}

// Current returns the latest snapshot, or nil before the first successful Load.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Writable reports whether mutations are supported.
func (s *Store) Writable() bool {
	return s.writer != nil
}

// Create validates and stores a new record. An empty id gets a generated one.
func (s *Store) Create(ctx context.Context, who ports.Principal, rec domain.Record) (_ string, _ *Snapshot, err error) {
	defer func() { observeMutation(domain.AuditCreate, err) }()

	if err := s.authorize(who, ports.Authorizer.CanWrite); err != nil {
		return "", nil, err
	}

	rec, err = validate(rec)
	if err != nil {
		return "", nil, err
	}

	snap, err := s.writeBase(ctx)
	if err != nil {
		return "", nil, err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if snap.Has(rec.ID) {
		return "", nil, fmt.Errorf("%w: %w: %s", errors.ErrInvalidInput, errors.ErrDuplicateRecord, rec.ID)
	}

	now := s.now().UTC()
	rec.CreatedBy, rec.UpdatedBy = who.Subject(), who.Subject()
	rec.CreatedAt, rec.UpdatedAt = now, now

	id, err := s.writer.CreateRecord(ctx, rec)
	if err != nil {
		return "", nil, fmt.Errorf("create record: %w", err)
	}

	rec.ID = id
	s.writeAudit(ctx, who, domain.AuditCreate, id, nil, &rec)

	next, err := s.reload(ctx, "create")
	if err != nil {
		return id, nil, err
	}

	return id, next, nil
}

// Update replaces the record with the given id.
func (s *Store) Update(ctx context.Context, who ports.Principal, id string, rec domain.Record) (_ *Snapshot, err error) {
	defer func() { observeMutation(domain.AuditUpdate, err) }()

	if err := s.authorize(who, ports.Authorizer.CanWrite); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, errors.ErrInvalidID
	}

	rec.ID = id

	rec, err = validate(rec)
	if err != nil {
		return nil, err
	}

	snap, err := s.writeBase(ctx)
	if err != nil {
		return nil, err
	}

	old, ok := snap.Get(id)
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, errors.ErrNotFound)
	}

	rec.CreatedBy, rec.CreatedAt = old.CreatedBy, old.CreatedAt
	rec.UpdatedBy, rec.UpdatedAt = who.Subject(), s.now().UTC()

	if err = s.writer.UpdateRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}

	s.writeAudit(ctx, who, domain.AuditUpdate, id, &old, &rec)

	return s.reload(ctx, "update")
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, who ports.Principal, id string) (_ *Snapshot, err error) {
	defer func() { observeMutation(domain.AuditDelete, err) }()

	if err := s.authorize(who, ports.Authorizer.CanDelete); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, errors.ErrInvalidID
	}

	snap, err := s.writeBase(ctx)
	if err != nil {
		return nil, err
	}

	old, ok := snap.Get(id)
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, errors.ErrNotFound)
	}

	if err = s.writer.DeleteRecord(ctx, id); err != nil {
		return nil, fmt.Errorf("delete record: %w", err)
	}

	s.writeAudit(ctx, who, domain.AuditDelete, id, &old, nil)

	return s.reload(ctx, "delete")
}

// Import adds the records whose id is not yet present and returns how many
// were added. Invalid records are skipped.
func (s *Store) Import(ctx context.Context, who ports.Principal, recs []domain.Record) (_ int, _ *Snapshot, err error) {
	defer func() { observeMutation(domain.AuditImport, err) }()

	if err := s.authorize(who, ports.Authorizer.CanWrite); err != nil {
		return 0, nil, err
	}

	snap, err := s.writeBase(ctx)
	if err != nil {
		return 0, nil, err
	}

	seen := make(map[string]struct{}, len(recs))
	now := s.now().UTC()
	added := 0

	for _, rec := range recs {
		rec, err := validate(rec)
		if err != nil || rec.ID == "" {
			s.logger.Warn().Err(err).Str(logFieldRecordID, rec.ID).Msg("skipping invalid import row")

			continue
		}

		if _, dup := seen[rec.ID]; dup || snap.Has(rec.ID) {
			continue
		}

		seen[rec.ID] = struct{}{}

		rec.CreatedBy, rec.UpdatedBy = who.Subject(), who.Subject()
		rec.CreatedAt, rec.UpdatedAt = now, now

		id, err := s.writer.CreateRecord(ctx, rec)
		if err != nil {
			return added, nil, fmt.Errorf("import record %s: %w", rec.ID, err)
		}

		added++

		s.writeAudit(ctx, who, domain.AuditImport, id, nil, &rec)
	}

	s.logger.Info().Int(logFieldCount, added).Msg("records imported")

	next, err := s.reload(ctx, "import")
	if err != nil {
		return added, nil, err
	}

	return added, next, nil
}

func (s *Store) authorize(who ports.Principal, capability func(ports.Authorizer) bool) error {
	if s.writer == nil {
		return fmt.Errorf("%w: record source is read-only", errors.ErrSourceDisabled)
	}

	if who == nil || !capability(who) {
		return errors.ErrPermissionDenied
	}

	return nil
}

// writeBase returns the snapshot a mutation checks ids against. A missing or
// fallback snapshot is reloaded first. While the primary cannot be read the
// mutation is refused; an empty primary yields an empty snapshot so it can be
// seeded.
func (s *Store) writeBase(ctx context.Context) (*Snapshot, error) {
	snap := s.Current()
	if snap != nil && !snap.Fallback() {
		return snap, nil
	}

	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case !snap.Fallback():
		return snap, nil
	case snap.primaryDown():
		return nil, fmt.Errorf("%w: %w", errors.ErrPrimaryUnavailable, snap.primaryErr)
	default:
		return newSnapshot(datasource.Loaded{}, snap.Version(), snap.LoadedAt()), nil
	}
}

// reload publishes the state after a write. The write has landed even when
// an error is returned.
func (s *Store) reload(ctx context.Context, action string) (*Snapshot, error) {
	next, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf(errFmtReload, action, err)
	}

	if next.primaryDown() {
		return nil, fmt.Errorf(errFmtReload, action, errors.ErrPrimaryUnavailable)
	}

	return next, nil
}

// writeAudit records a mutation. Failures are logged and do not fail the mutation.
func (s *Store) writeAudit(ctx context.Context, who ports.Principal, action domain.AuditAction, id string, old, next *domain.Record) {
	if s.audit == nil {
		return
	}

	entry := domain.AuditEntry{
		Actor:     who.Subject(),
		Action:    action,
		RecordID:  id,
		Old:       old,
		New:       next,
		CreatedAt: s.now().UTC(),
	}

	if err := s.audit.WriteAudit(ctx, entry); err != nil {
		observability.AuditFailures.Inc()
		s.logger.Error().Err(err).Str(logFieldAction, string(action)).Str(logFieldRecordID, id).Msg("failed to write audit entry")
	}
}

// validate rejects records without a location or with negative counts and
// returns the trimmed record.
func validate(rec domain.Record) (domain.Record, error) {
	if rec.HouseholdCount < 0 || rec.TitleDeedTarget < 0 || rec.CaseCount < 0 {
		return rec, fmt.Errorf("%w: counts must not be negative", errors.ErrInvalidInput)
	}

	rec = records.Sanitize(rec)

	if rec.Province == "" || rec.District == "" {
		return rec, fmt.Errorf("%w: province and district are required", errors.ErrInvalidInput)
	}

	return rec, nil
}

func observeMutation(action domain.AuditAction, err error) {
	status := observability.StatusSuccess

	switch {
	case err == nil:
	case errors.Is(err, errors.ErrPermissionDenied), errors.Is(err, errors.ErrSourceDisabled):
		status = observability.StatusDenied
	default:
		status = observability.StatusError
	}

	observability.Mutations.WithLabelValues(string(action), status).Inc()
}
