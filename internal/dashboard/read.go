package dashboard

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/abah/PERMASALAHAN-TANAH/internal/auth"
	"github.com/abah/PERMASALAHAN-TANAH/internal/casestore"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/engine"
	"github.com/abah/PERMASALAHAN-TANAH/internal/export"
)

// RecordsResponse is the body of GET /api/records. Filter holds the applied
// criteria as a canonical query string, reusable for the export endpoints.
type RecordsResponse struct {
	Records []domain.Record  `json:"records"`
	Stats   engine.Stats     `json:"stats"`
	Summary engine.Summary   `json:"summary"`
	Ignored []engine.Ignored `json:"ignored,omitempty"`
	Filter  string           `json:"filter"`
	Total   int              `json:"total"`
	Version uint64           `json:"version"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Stats   engine.Stats     `json:"stats"`
	Summary engine.Summary   `json:"summary"`
	Ignored []engine.Ignored `json:"ignored,omitempty"`
}

// SessionResponse is the body of GET /api/session.
type SessionResponse struct {
	UserID    string      `json:"userId"`
	Role      auth.Role   `json:"role"`
	Pages     []auth.Page `json:"pages"`
	CanWrite  bool        `json:"canWrite"`
	CanDelete bool        `json:"canDelete"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Writable  bool        `json:"writable"`
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	s := sessionOf(r)

	h.writeJSON(w, http.StatusOK, SessionResponse{
		UserID:    s.UserID,
		Role:      s.Role,
		Pages:     s.Role.Pages(),
		CanWrite:  s.CanWrite(),
		CanDelete: s.CanDelete(),
		ExpiresAt: s.ExpiresAt,
		Writable:  h.store.Writable(),
	})
}

// filterResult is a snapshot filtered by request criteria.
type filterResult struct {
	snap     *casestore.Snapshot
	criteria domain.FilterCriteria
	result   engine.Result
	ignored  []engine.Ignored
}

// filtered parses the query criteria and applies them to the snapshot.
func (h *Handler) filtered(w http.ResponseWriter, r *http.Request) (filterResult, bool) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return filterResult{}, false
	}

	criteria, ignored := engine.ParseCriteria(r.URL.Query())

	return filterResult{
		snap:     snap,
		criteria: criteria,
		result:   snap.Apply(criteria),
		ignored:  ignored,
	}, true
}

func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filtered(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, RecordsResponse{
		Records: f.result.Filtered,
		Stats:   f.result.Stats,
		Summary: engine.Summarize(f.result.Stats, f.snap.Len()),
		Ignored: f.ignored,
		Filter:  engine.Values(f.criteria).Encode(),
		Total:   f.snap.Len(),
		Version: f.snap.Version(),
	})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	rec, found := snap.Get(r.PathValue("id"))
	if !found {
		h.writeError(w, http.StatusNotFound, "record not found")

		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filtered(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, StatsResponse{
		Stats:   f.result.Stats,
		Summary: engine.Summarize(f.result.Stats, f.snap.Len()),
		Ignored: f.ignored,
	})
}

func (h *Handler) handleCharts(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filtered(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, engine.BuildCharts(f.result.Stats))
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, snap.Options(r.URL.Query().Get(engine.KeyProvince)))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filtered(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, f.result.Filtered); err != nil {
		h.exportFailed(w, err)

		return
	}

	h.writeAttachment(w, export.ExtCSV, export.ContentTypeCSV, buf.Bytes())
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filtered(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, f.result.Filtered, f.result.Stats); err != nil {
		h.exportFailed(w, err)

		return
	}

	h.writeAttachment(w, export.ExtXLSX, export.ContentTypeXLSX, buf.Bytes())
}

func (h *Handler) exportFailed(w http.ResponseWriter, err error) {
	h.logger.Error().Err(err).Msg("export failed")
	ErrorsTotal.WithLabelValues(ErrorTypeExport).Inc()
	h.writeError(w, http.StatusInternalServerError, "export failed")
}

func (h *Handler) writeAttachment(w http.ResponseWriter, ext, contentType string, body []byte) {
	w.Header().Set(headerContentType, contentType)
	w.Header().Set(headerContentDisposition, fmt.Sprintf("attachment; filename=%q", export.FileName(ext, h.now())))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		h.logger.Debug().Err(err).Msg("client went away during export")
	}
}
