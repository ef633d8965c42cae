package mocks

import (
	"context"
	"sync"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
)

// AuditLog is a thread-safe in-memory implementation of ports.AuditLogger.
type AuditLog struct {
	mu      sync.Mutex
	entries []domain.AuditEntry

	// WriteAuditFn allows overriding WriteAudit behavior.
	WriteAuditFn func(ctx context.Context, entry domain.AuditEntry) error
}

// NewAuditLog creates a new mock audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// WriteAudit records the entry.
func (a *AuditLog) WriteAudit(ctx context.Context, entry domain.AuditEntry) error {
	if a.WriteAuditFn != nil {
		return a.WriteAuditFn(ctx, entry)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, entry)

	return nil
}

// Entries returns a copy of the recorded entries.
func (a *AuditLog) Entries() []domain.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]domain.AuditEntry(nil), a.entries...)
}

// Reset clears recorded entries.
func (a *AuditLog) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = nil
}
