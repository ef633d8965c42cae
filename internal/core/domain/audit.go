package domain

import "time"

// Document is a raw stored document keyed by field name, before normalization.
type Document map[string]any

// AuditAction names a mutation recorded in the audit log.
type AuditAction string

// Audit actions.
const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
	AuditImport AuditAction = "IMPORT"
)

// AuditEntry records who changed which record and how.
type AuditEntry struct {
	Actor     string
	Action    AuditAction
	RecordID  string
	Old       *Record
	New       *Record
	CreatedAt time.Time
}
