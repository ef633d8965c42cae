package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abah/PERMASALAHAN-TANAH/internal/auth"
	"github.com/abah/PERMASALAHAN-TANAH/internal/casestore"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/ports/mocks"
	"github.com/abah/PERMASALAHAN-TANAH/internal/datasource"
	"github.com/abah/PERMASALAHAN-TANAH/internal/engine"
	"github.com/abah/PERMASALAHAN-TANAH/internal/export"
)

const testSecret = "dashboard-test-secret-0123456789"

var errBackendDown = errors.New("backend down")

type fixture struct {
	repo    *mocks.RecordRepository
	handler *Handler
	tokens  *auth.TokenService
}

func seedRecords() []domain.Record {
	return []domain.Record{
		{ID: "1", Province: "Riau", District: "Kab. Kampar - UPT. Sibiruang", YearAllocated: "2005", HouseholdCount: 300, TitleDeedTarget: 280, CaseCount: 2, ProblemForestArea: true},
		{ID: "2", Province: "Riau", District: "Kab. Siak - UPT. Lubuk Dalam", YearAllocated: "2008/2009", HouseholdCount: 150, StatusUnderManagementNoTitle: true},
		{ID: "3", Province: "Aceh", District: "Kab. Aceh Timur - UPT. Peunaron", YearAllocated: "2010", HouseholdCount: 200, ProblemCommunity: true},
	}
}

func newFixture(t *testing.T, cfg Config, writable bool) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	repo := mocks.NewRecordRepository("mock")
	repo.AddRecords(seedRecords()...)

	adapter := datasource.New(repo, nil, datasource.Config{RetryAttempts: 1}, &logger)

	store := casestore.New(adapter, nil, nil, &logger)
	if writable {
		store = casestore.New(adapter, repo, mocks.NewAuditLog(), &logger)
	}

	if cfg.RateLimitRPM == 0 {
		cfg = Config{RateLimitRPM: 10000, RateLimitBurst: 1000}
	}

	tokens := auth.NewTokenService(testSecret, 1)

	return &fixture{
		repo:    repo,
		handler: NewHandler(cfg, store, tokens, &logger),
		tokens:  tokens,
	}
}

func (f *fixture) token(t *testing.T, role auth.Role) string {
	t.Helper()

	tok, err := f.tokens.Generate(string(role)+"@bpn.go.id", role)
	require.NoError(t, err)

	return tok
}

func (f *fixture) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

func recordJSON(t *testing.T, rec domain.Record) io.Reader {
	t.Helper()

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	return bytes.NewReader(b)
}

func TestHandler_Authentication(t *testing.T) {
	f := newFixture(t, Config{}, true)

	expired := auth.NewTokenService(testSecret, -1)
	expiredToken, err := expired.Generate("u1", auth.RoleAdmin)
	require.NoError(t, err)

	otherKey, err := auth.NewTokenService("some-other-secret-value", 1).Generate("u1", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-token"},
		{"wrong key", otherKey},
		{"expired", expiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/records", tt.token, nil, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEmpty(t, decode[errorBody](t, rec).Error)
		})
	}
}

func TestHandler_SecurityHeaders(t *testing.T) {
	f := newFixture(t, Config{}, true)

	rec := f.do(t, http.MethodGet, "/api/records", f.token(t, auth.RoleViewer), nil, "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, contentTypeJSON, rec.Header().Get(headerContentType))
}

func TestHandler_Records(t *testing.T) {
	f := newFixture(t, Config{}, true)
	viewer := f.token(t, auth.RoleViewer)

	rec := f.do(t, http.MethodGet, "/api/records?province=Riau&color=red", viewer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[RecordsResponse](t, rec)
	assert.Len(t, body.Records, 2)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 450, body.Stats.TotalHouseholdCount)
	assert.Equal(t, "Filter Data (2 dari 3 lokasi)", body.Summary.Title)
	assert.False(t, body.Summary.Empty)
	require.Len(t, body.Ignored, 1)
	assert.Equal(t, "color", body.Ignored[0].Key)
	assert.Equal(t, "province=Riau", body.Filter)

	rec = f.do(t, http.MethodGet, "/api/records?provinsi=Riau&statusBina=blmHPL", viewer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body = decode[RecordsResponse](t, rec)
	assert.Equal(t, "province=Riau&statusBina=bina_blm_hpl", body.Filter)
	require.Len(t, body.Records, 1)
	assert.Equal(t, "2", body.Records[0].ID)
}

func TestHandler_RecordsEmptyResult(t *testing.T) {
	f := newFixture(t, Config{}, true)

	rec := f.do(t, http.MethodGet, "/api/records?province=Papua", f.token(t, auth.RoleViewer), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[RecordsResponse](t, rec)
	assert.NotNil(t, body.Records)
	assert.Empty(t, body.Records)
	assert.True(t, body.Summary.Empty)
	assert.Equal(t, "Tidak ada data", body.Summary.YearRange)
	assert.Contains(t, rec.Body.String(), `"records":[]`)
}

func TestHandler_RecordByID(t *testing.T) {
	f := newFixture(t, Config{}, true)
	viewer := f.token(t, auth.RoleViewer)

	rec := f.do(t, http.MethodGet, "/api/records/3", viewer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Aceh", decode[domain.Record](t, rec).Province)

	rec = f.do(t, http.MethodGet, "/api/records/404", viewer, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_StatsChartsOptions(t *testing.T) {
	f := newFixture(t, Config{}, true)
	viewer := f.token(t, auth.RoleViewer)

	rec := f.do(t, http.MethodGet, "/api/stats?problem=forest", viewer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[StatsResponse](t, rec)
	assert.Equal(t, 1, stats.Stats.LocationCount)
	assert.Equal(t, "2005", stats.Summary.YearRange)

	rec = f.do(t, http.MethodGet, "/api/charts", viewer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	charts := decode[engine.Charts](t, rec)
	assert.Equal(t, []string{"Riau", "Aceh"}, charts.Provinces.Labels)

	rec = f.do(t, http.MethodGet, "/api/options?province=Riau", viewer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	opts := decode[engine.FilterOptions](t, rec)
	assert.Equal(t, []string{"Riau", "Aceh"}, opts.Provinces)
	assert.Len(t, opts.Districts, 2)
	assert.Equal(t, []string{"2005", "2008", "2010"}, opts.Years)
}

func TestHandler_Session(t *testing.T) {
	f := newFixture(t, Config{}, true)

	rec := f.do(t, http.MethodGet, "/api/session", f.token(t, auth.RoleEditor), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	s := decode[SessionResponse](t, rec)
	assert.Equal(t, auth.RoleEditor, s.Role)
	assert.True(t, s.CanWrite)
	assert.False(t, s.CanDelete)
	assert.True(t, s.Writable)
	assert.Contains(t, s.Pages, auth.PageDataTable)
	assert.NotContains(t, s.Pages, auth.PageAdminUsers)
}

func TestHandler_ExportCSV(t *testing.T) {
	f := newFixture(t, Config{}, true)

	rec := f.do(t, http.MethodGet, "/api/export.csv?province=Aceh", f.token(t, auth.RoleViewer), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, export.ContentTypeCSV, rec.Header().Get(headerContentType))
	assert.Regexp(t, `^attachment; filename="data_transmigrasi_\d{4}-\d{2}-\d{2}\.csv"$`, rec.Header().Get(headerContentDisposition))

	parsed, err := export.ReadCSV(rec.Body)
	require.NoError(t, err)
	require.Len(t, parsed.Records, 1)
	assert.Equal(t, "3", parsed.Records[0].ID)
}

func TestHandler_ExportXLSX(t *testing.T) {
	f := newFixture(t, Config{}, true)

	rec := f.do(t, http.MethodGet, "/api/export.xlsx", f.token(t, auth.RoleViewer), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get(headerContentType))

	parsed, err := export.ReadXLSX(rec.Body)
	require.NoError(t, err)
	assert.Len(t, parsed.Records, 3)
}

func TestHandler_CreatePermissions(t *testing.T) {
	f := newFixture(t, Config{}, true)
	newRec := domain.Record{Province: "Jambi", District: "Kab. Muaro Jambi - UPT. Sungai Bahar", HouseholdCount: 40}

	rec := f.do(t, http.MethodPost, "/api/records", f.token(t, auth.RoleViewer), recordJSON(t, newRec), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 3, f.repo.Len())

	rec = f.do(t, http.MethodPost, "/api/records", f.token(t, auth.RoleEditor), recordJSON(t, newRec), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[MutationResponse](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 4, created.Records)

	rec = f.do(t, http.MethodGet, "/api/records/"+created.ID, f.token(t, auth.RoleViewer), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "editor@bpn.go.id", decode[domain.Record](t, rec).CreatedBy)
}

func TestHandler_CreateInvalid(t *testing.T) {
	f := newFixture(t, Config{}, true)
	editor := f.token(t, auth.RoleEditor)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"province":`},
		{"unknown field", `{"province":"Riau","district":"X","colour":"red"}`},
		{"missing district", `{"province":"Riau"}`},
		{"negative count", `{"province":"Riau","district":"X","householdCount":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/records", editor, strings.NewReader(tt.body), "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	assert.Equal(t, 3, f.repo.Len())
}

func TestHandler_Update(t *testing.T) {
	f := newFixture(t, Config{}, true)
	editor := f.token(t, auth.RoleEditor)

	upd := seedRecords()[0]
	upd.HouseholdCount = 310

	rec := f.do(t, http.MethodPut, "/api/records/1", editor, recordJSON(t, upd), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/records/1", editor, nil, "")
	assert.Equal(t, 310, decode[domain.Record](t, rec).HouseholdCount)

	rec = f.do(t, http.MethodPut, "/api/records/2", editor, recordJSON(t, upd), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "body id differs from path")

	upd.ID = ""
	rec = f.do(t, http.MethodPut, "/api/records/missing", editor, recordJSON(t, upd), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Delete(t *testing.T) {
	f := newFixture(t, Config{}, true)

	rec := f.do(t, http.MethodDelete, "/api/records/2", f.token(t, auth.RoleEditor), nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/records/2", f.token(t, auth.RoleAdmin), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[MutationResponse](t, rec).Records)

	rec = f.do(t, http.MethodDelete, "/api/records/2", f.token(t, auth.RoleAdmin), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Import(t *testing.T) {
	f := newFixture(t, Config{}, true)

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, []domain.Record{
		seedRecords()[0],
		{ID: "10", Province: "Jambi", District: "Kab. Tebo - UPT. Rimbo Bujang", HouseholdCount: 90},
	}))

	rec := f.do(t, http.MethodPost, "/api/import", f.token(t, auth.RoleAdmin), &buf, export.ContentTypeCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[ImportResponse](t, rec)
	assert.Equal(t, 1, body.Added)
	assert.Equal(t, 1, body.Skipped)
	assert.Equal(t, 4, f.repo.Len())
}

func TestHandler_ImportXLSX(t *testing.T) {
	f := newFixture(t, Config{}, true)

	var buf bytes.Buffer
	recs := []domain.Record{{ID: "20", Province: "Papua", District: "Kab. Merauke - UPT. Kurik", HouseholdCount: 12}}
	require.NoError(t, export.WriteXLSX(&buf, recs, engine.Aggregate(recs)))

	rec := f.do(t, http.MethodPost, "/api/import", f.token(t, auth.RoleEditor), &buf, export.ContentTypeXLSX)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[ImportResponse](t, rec).Added)
}

func TestHandler_Reload(t *testing.T) {
	f := newFixture(t, Config{}, true)

	rec := f.do(t, http.MethodPost, "/api/reload", f.token(t, auth.RoleViewer), nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/reload", f.token(t, auth.RoleAdmin), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[MutationResponse](t, rec)
	assert.Equal(t, uint64(1), body.Version)
	assert.Equal(t, "mock", body.Source)
}

func TestHandler_Unavailable(t *testing.T) {
	f := newFixture(t, Config{}, true)
	f.repo.DocumentsFn = func(context.Context) ([]domain.Document, error) { return nil, errBackendDown }

	rec := f.do(t, http.MethodGet, "/api/records", f.token(t, auth.RoleViewer), nil, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode[errorBody](t, rec)
	assert.True(t, body.Retryable)
	assert.NotEmpty(t, body.Error)

	rec = f.do(t, http.MethodPost, "/api/reload", f.token(t, auth.RoleAdmin), nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_ReadOnlyStore(t *testing.T) {
	f := newFixture(t, Config{}, false)
	newRec := domain.Record{Province: "Jambi", District: "Kab. Tebo - UPT. Rimbo Bujang"}

	rec := f.do(t, http.MethodPost, "/api/records", f.token(t, auth.RoleAdmin), recordJSON(t, newRec), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/session", f.token(t, auth.RoleAdmin), nil, "")
	assert.False(t, decode[SessionResponse](t, rec).Writable)
}

func TestHandler_MutationWhilePrimaryDown(t *testing.T) {
	logger := zerolog.Nop()

	repo := mocks.NewRecordRepository("mock")
	repo.DocumentsFn = func(context.Context) ([]domain.Document, error) { return nil, errBackendDown }

	bundled := mocks.NewRecordRepository("bundled")
	bundled.AddRecords(seedRecords()...)

	store := casestore.New(datasource.New(repo, bundled, datasource.Config{RetryAttempts: 1}, &logger), repo, mocks.NewAuditLog(), &logger)
	tokens := auth.NewTokenService(testSecret, 1)
	f := &fixture{
		repo:    repo,
		handler: NewHandler(Config{RateLimitRPM: 10000, RateLimitBurst: 1000}, store, tokens, &logger),
		tokens:  tokens,
	}
	admin := f.token(t, auth.RoleAdmin)

	rec := f.do(t, http.MethodGet, "/api/records/1", admin, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   func() io.Reader
	}{
		{"update", http.MethodPut, "/api/records/1", func() io.Reader { return recordJSON(t, seedRecords()[0]) }},
		{"create", http.MethodPost, "/api/records", func() io.Reader {
			return recordJSON(t, domain.Record{Province: "Jambi", District: "Kab. Tebo - UPT. Rimbo Bujang"})
		}},
		{"delete", http.MethodDelete, "/api/records/1", func() io.Reader { return nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, admin, tt.body(), "application/json")
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.True(t, decode[errorBody](t, rec).Retryable)
		})
	}

	assert.Equal(t, 0, repo.Len())
}

func TestHandler_RateLimit(t *testing.T) {
	f := newFixture(t, Config{RateLimitRPM: 1, RateLimitBurst: 1}, true)
	viewer := f.token(t, auth.RoleViewer)

	rec := f.do(t, http.MethodGet, "/api/records", viewer, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/records", viewer, nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	logger := zerolog.Nop()
	h := NewHandler(Config{
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("127.0.0.1/32"), netip.MustParsePrefix("172.16.0.0/12")},
	}, nil, nil, &logger)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"untrusted peer ignores forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "203.0.113.7:4000", "203.0.113.7"},
		{"untrusted peer ignores real ip", map[string]string{"X-Real-IP": "10.0.0.2"}, "203.0.113.7:4000", "203.0.113.7"},
		{"trusted proxy forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 172.16.0.1"}, "127.0.0.1:1234", "10.0.0.1"},
		{"spoofed left entry skipped", map[string]string{"X-Forwarded-For": "1.1.1.1, 10.0.0.9"}, "127.0.0.1:1234", "10.0.0.9"},
		{"trusted proxy real ip", map[string]string{"X-Real-IP": "10.0.0.2"}, "127.0.0.1:1234", "10.0.0.2"},
		{"garbage forwarded falls back", map[string]string{"X-Forwarded-For": "unknown"}, "127.0.0.1:1234", "127.0.0.1"},
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
			req.RemoteAddr = tt.remote

			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, h.clientIP(req))
		})
	}
}

func TestHandler_RateLimitIgnoresSpoofedHeaders(t *testing.T) {
	f := newFixture(t, Config{RateLimitRPM: 1, RateLimitBurst: 1}, true)
	viewer := f.token(t, auth.RoleViewer)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("Authorization", "Bearer "+viewer)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))

		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code)
	}
}

func TestAllowRequest_EvictsIdleLimiters(t *testing.T) {
	logger := zerolog.Nop()
	h := NewHandler(Config{RateLimitRPM: 1, RateLimitBurst: 1}, nil, nil, &logger)

	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	for i := range 100 {
		require.True(t, h.allowRequest(fmt.Sprintf("10.0.%d.%d", i/256, i%256)))
	}

	require.Len(t, h.limiters, 100)

	now = now.Add(limiterIdleTTL / 2)
	assert.True(t, h.allowRequest("10.0.0.0"))

	now = now.Add(limiterIdleTTL/2 + time.Second)
	assert.True(t, h.allowRequest("192.0.2.1"))

	assert.Len(t, h.limiters, 2)
	assert.Contains(t, h.limiters, "10.0.0.0")
	assert.Contains(t, h.limiters, "192.0.2.1")
}
