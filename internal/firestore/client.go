// Package firestore stores case records in a Cloud Firestore collection.
//
// Documents use the snake_case field names of the records package; reads
// accept any of the historical key spellings through records.Normalize.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	fs "cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	errs "github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/records"
)

// SourceName identifies the Firestore backend in logs and metrics.
const SourceName = "firestore"

// Defaults for Config.
const (
	DefaultCollection      = "transmigrasi"
	DefaultAuditCollection = "audit_log"
)

const (
	errReadCollection = "read collection %s: %w"
	errCreateDoc      = "create document %s: %w"
	errUpdateDoc      = "update document %s: %w"
	errDeleteDoc      = "delete document %s: %w"
)

// Audit document fields.
const (
	auditFieldActor     = "actor"
	auditFieldAction    = "action"
	auditFieldRecordID  = "record_id"
	auditFieldOld       = "old_data"
	auditFieldNew       = "new_data"
	auditFieldTimestamp = "timestamp"
)

// ErrProjectIDRequired is returned by New when no project id is configured.
var ErrProjectIDRequired = errors.New("firestore project id is required")

// Config selects the project and collections.
type Config struct {
	ProjectID       string
	Collection      string
	AuditCollection string
	CredentialsFile string
}

func (c Config) withDefaults() Config {
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}

	if c.AuditCollection == "" {
		c.AuditCollection = DefaultAuditCollection
	}

	return c
}

// Store implements ports.RecordRepository and ports.AuditLogger on Firestore.
type Store struct {
	client *fs.Client
	cfg    Config
	logger *zerolog.Logger
}

// New connects to Firestore. Set FIRESTORE_EMULATOR_HOST to target the emulator.
func New(ctx context.Context, cfg Config, logger *zerolog.Logger) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, ErrProjectIDRequired
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := fs.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", mapError(err))
	}

	cfg = cfg.withDefaults()

	logger.Info().
		Str("project", cfg.ProjectID).
		Str("collection", cfg.Collection).
		Msg("firestore client ready")

	return &Store{client: client, cfg: cfg, logger: logger}, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Name identifies the backend.
func (s *Store) Name() string { return SourceName }

// Documents reads the whole collection ordered by province and district.
// Each document carries its Firestore id under the "id" key.
func (s *Store) Documents(ctx context.Context) ([]domain.Document, error) {
	q := s.client.Collection(s.cfg.Collection).
		OrderBy(records.ColumnProvince, fs.Asc).
		OrderBy(records.ColumnDistrict, fs.Asc)

	return s.collect(ctx, q)
}

func (s *Store) collect(ctx context.Context, q fs.Query) ([]domain.Document, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []domain.Document

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf(errReadCollection, s.cfg.Collection, mapError(err))
		}

		docs = append(docs, withID(snap.Data(), snap.Ref.ID))
	}

	return docs, nil
}

// CreateRecord stores rec under rec.ID, or under a generated id when rec.ID is empty.
func (s *Store) CreateRecord(ctx context.Context, rec domain.Record) (string, error) {
	data := records.ToDocument(records.Sanitize(rec))
	data[records.ColumnCreatedAt] = fs.ServerTimestamp
	data[records.ColumnUpdatedAt] = fs.ServerTimestamp

	coll := s.client.Collection(s.cfg.Collection)

	if rec.ID == "" {
		ref, _, err := coll.Add(ctx, map[string]any(data))
		if err != nil {
			return "", fmt.Errorf(errCreateDoc, "(new)", mapError(err))
		}

		return ref.ID, nil
	}

	if _, err := coll.Doc(rec.ID).Create(ctx, map[string]any(data)); err != nil {
		return "", fmt.Errorf(errCreateDoc, rec.ID, mapError(err))
	}

	return rec.ID, nil
}

// UpdateRecord merges rec's fields into the existing document.
func (s *Store) UpdateRecord(ctx context.Context, rec domain.Record) error {
	data := records.ToDocument(records.Sanitize(rec))
	data[records.ColumnUpdatedAt] = fs.ServerTimestamp

	if _, err := s.client.Collection(s.cfg.Collection).Doc(rec.ID).Update(ctx, updatesFrom(data)); err != nil {
		return fmt.Errorf(errUpdateDoc, rec.ID, mapError(err))
	}

	return nil
}

// DeleteRecord removes the document with the given id.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if _, err := s.client.Collection(s.cfg.Collection).Doc(id).Delete(ctx, fs.Exists); err != nil {
		return fmt.Errorf(errDeleteDoc, id, mapError(err))
	}

	return nil
}

// WriteAudit appends entry to the audit collection.
func (s *Store) WriteAudit(ctx context.Context, entry domain.AuditEntry) error {
	if _, _, err := s.client.Collection(s.cfg.AuditCollection).Add(ctx, auditDocument(entry)); err != nil {
		return fmt.Errorf("write audit entry: %w", mapError(err))
	}

	return nil
}

func auditDocument(entry domain.AuditEntry) map[string]any {
	doc := map[string]any{
		auditFieldActor:     entry.Actor,
		auditFieldAction:    string(entry.Action),
		auditFieldRecordID:  entry.RecordID,
		auditFieldTimestamp: fs.ServerTimestamp,
	}

	if entry.Old != nil {
		doc[auditFieldOld] = map[string]any(records.ToDocument(*entry.Old))
	}

	if entry.New != nil {
		doc[auditFieldNew] = map[string]any(records.ToDocument(*entry.New))
	}

	return doc
}

// updatesFrom turns a document into field updates in key order.
func updatesFrom(doc domain.Document) []fs.Update {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	updates := make([]fs.Update, len(keys))
	for i, k := range keys {
		updates[i] = fs.Update{Path: k, Value: doc[k]}
	}

	return updates
}

func withID(data map[string]any, id string) domain.Document {
	doc := domain.Document(data)
	if doc == nil {
		doc = domain.Document{}
	}

	doc[records.ColumnID] = id

	return doc
}

// mapError translates gRPC status codes into the application's sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sentinel error

	switch status.Code(err) {
	case codes.NotFound:
		sentinel = errs.ErrNotFound
	case codes.AlreadyExists:
		sentinel = errs.ErrDuplicateRecord
	case codes.PermissionDenied:
		sentinel = errs.ErrPermissionDenied
	case codes.Unauthenticated:
		sentinel = errs.ErrUnauthenticated
	case codes.InvalidArgument, codes.FailedPrecondition:
		sentinel = errs.ErrInvalidInput
	default:
		return err
	}

	return fmt.Errorf("%w: %w", sentinel, err)
}
