package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
)

const insertAuditSQL = "INSERT INTO " + tableAuditLog +
	" (actor, action, record_id, old_data, new_data, created_at) VALUES ($1, $2, $3, $4, $5, $6)"

// WriteAudit appends entry to the audit_log table.
func (db *DB) WriteAudit(ctx context.Context, entry domain.AuditEntry) error {
	oldData, err := auditJSON(entry.Old)
	if err != nil {
		return fmt.Errorf("encode audit old data: %w", err)
	}

	newData, err := auditJSON(entry.New)
	if err != nil {
		return fmt.Errorf("encode audit new data: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, insertAuditSQL,
		entry.Actor, string(entry.Action), entry.RecordID, oldData, newData, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}

	return nil
}

// auditJSON encodes a record snapshot for a JSONB column. Nil maps to SQL NULL.
func auditJSON(rec *domain.Record) (any, error) {
	if rec == nil {
		return nil, nil
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	return b, nil
}
