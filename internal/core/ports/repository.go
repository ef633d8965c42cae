// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
)

// RecordSource yields the raw documents of a backing store.
// Normalization into domain.Record happens in the data source adapter.
type RecordSource interface {
	Name() string
	Documents(ctx context.Context) ([]domain.Document, error)
}

// RecordWriter persists record mutations. Update and Delete return an error
// wrapping errors.ErrNotFound when the id is unknown.
type RecordWriter interface {
	CreateRecord(ctx context.Context, rec domain.Record) (string, error)
	UpdateRecord(ctx context.Context, rec domain.Record) error
	DeleteRecord(ctx context.Context, id string) error
}

// RecordRepository combines read and write access to one backing store.
type RecordRepository interface {
	RecordSource
	RecordWriter
}

// AuditLogger stores audit entries for record mutations.
type AuditLogger interface {
	WriteAudit(ctx context.Context, entry domain.AuditEntry) error
}

// Authorizer is the capability check consulted before any mutation.
type Authorizer interface {
	CanWrite() bool
	CanDelete() bool
}

// Principal is an Authorizer bound to an identity, used for audit attribution.
type Principal interface {
	Authorizer
	Subject() string
}
