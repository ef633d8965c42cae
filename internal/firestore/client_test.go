package firestore

import (
	"context"
	"errors"
	"testing"
	"time"

	fs "cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	errs "github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/records"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		code codes.Code
		want error
	}{
		{"not found", codes.NotFound, errs.ErrNotFound},
		{"already exists", codes.AlreadyExists, errs.ErrDuplicateRecord},
		{"permission denied", codes.PermissionDenied, errs.ErrPermissionDenied},
		{"unauthenticated", codes.Unauthenticated, errs.ErrUnauthenticated},
		{"invalid argument", codes.InvalidArgument, errs.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(status.Error(tt.code, "boom"))
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.code, status.Code(err), "original status kept")
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	assert.NoError(t, mapError(nil))

	unavailable := status.Error(codes.Unavailable, "try later")
	assert.Equal(t, unavailable, mapError(unavailable))

	plain := errors.New("plain")
	assert.Equal(t, plain, mapError(plain))
}

func TestUpdatesFrom(t *testing.T) {
	doc := domain.Document{
		records.ColumnProvince:       "Riau",
		records.ColumnHouseholdCount: 12,
		records.ColumnDistrict:       "Kampar",
	}

	got := updatesFrom(doc)

	assert.Equal(t, []fs.Update{
		{Path: records.ColumnHouseholdCount, Value: 12},
		{Path: records.ColumnDistrict, Value: "Kampar"},
		{Path: records.ColumnProvince, Value: "Riau"},
	}, got)
}

func TestWithID(t *testing.T) {
	doc := withID(map[string]any{records.ColumnProvince: "Aceh"}, "abc")
	assert.Equal(t, "abc", doc[records.ColumnID])

	rec, err := records.Normalize(doc)
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.ID)
	assert.Equal(t, "Aceh", rec.Province)

	assert.Equal(t, domain.Document{records.ColumnID: "x"}, withID(nil, "x"))
}

func TestAuditDocument(t *testing.T) {
	old := domain.Record{ID: "1", Province: "Riau", District: "Kampar"}
	entry := domain.AuditEntry{
		Actor:     "admin@bpn.go.id",
		Action:    domain.AuditDelete,
		RecordID:  "1",
		Old:       &old,
		CreatedAt: time.Now(),
	}

	doc := auditDocument(entry)

	assert.Equal(t, "admin@bpn.go.id", doc[auditFieldActor])
	assert.Equal(t, "DELETE", doc[auditFieldAction])
	assert.Equal(t, "1", doc[auditFieldRecordID])
	assert.Equal(t, fs.ServerTimestamp, doc[auditFieldTimestamp])
	assert.NotContains(t, doc, auditFieldNew)

	oldDoc, ok := doc[auditFieldOld].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Riau", oldDoc[records.ColumnProvince])
}

func TestNew_RequiresProject(t *testing.T) {
	logger := zerolog.Nop()

	_, err := New(context.Background(), Config{}, &logger)
	assert.ErrorIs(t, err, ErrProjectIDRequired)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{ProjectID: "p"}.withDefaults()
	assert.Equal(t, DefaultCollection, cfg.Collection)
	assert.Equal(t, DefaultAuditCollection, cfg.AuditCollection)

	cfg = Config{Collection: "kasus", AuditCollection: "log"}.withDefaults()
	assert.Equal(t, "kasus", cfg.Collection)
	assert.Equal(t, "log", cfg.AuditCollection)
}
