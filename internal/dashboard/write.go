package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/abah/PERMASALAHAN-TANAH/internal/casestore"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/export"
)

// MutationResponse is the body returned by record mutations and reloads.
type MutationResponse struct {
	ID      string `json:"id,omitempty"`
	Version uint64 `json:"version"`
	Records int    `json:"records"`
	Source  string `json:"source,omitempty"`
}

// ImportResponse is the body of POST /api/import.
type ImportResponse struct {
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Version uint64 `json:"version"`
}

func mutationResponse(id string, snap *casestore.Snapshot) MutationResponse {
	return MutationResponse{ID: id, Version: snap.Version(), Records: snap.Len(), Source: snap.Source()}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	s := sessionOf(r)

	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	id, snap, err := h.store.Create(r.Context(), s, rec)
	if err != nil {
		h.writeStoreError(w, err)

		return
	}

	h.logger.Info().Str(logFieldUser, s.UserID).Str(logFieldRecordID, id).Msg("record created")
	h.writeJSON(w, http.StatusCreated, mutationResponse(id, snap))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s := sessionOf(r)

	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if rec.ID != "" && rec.ID != id {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: body id %q does not match path", errors.ErrInvalidID, rec.ID))

		return
	}

	snap, err := h.store.Update(r.Context(), s, id, rec)
	if err != nil {
		h.writeStoreError(w, err)

		return
	}

	h.logger.Info().Str(logFieldUser, s.UserID).Str(logFieldRecordID, id).Msg("record updated")
	h.writeJSON(w, http.StatusOK, mutationResponse(id, snap))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	s := sessionOf(r)

	id := r.PathValue("id")

	snap, err := h.store.Delete(r.Context(), s, id)
	if err != nil {
		h.writeStoreError(w, err)

		return
	}

	h.logger.Info().Str(logFieldUser, s.UserID).Str(logFieldRecordID, id).Msg("record deleted")
	h.writeJSON(w, http.StatusOK, mutationResponse(id, snap))
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	s := sessionOf(r)

	body := http.MaxBytesReader(w, r.Body, maxImportBodyBytes)

	parsed, err := readImport(r.Header.Get(headerContentType), body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	added, snap, err := h.store.Import(r.Context(), s, parsed.Records)
	if err != nil {
		h.writeStoreError(w, err)

		return
	}

	h.logger.Info().Str(logFieldUser, s.UserID).Int("added", added).Int("skipped", parsed.Skipped).Msg("records imported")
	h.writeJSON(w, http.StatusOK, ImportResponse{
		Added:   added,
		Skipped: parsed.Skipped + len(parsed.Records) - added,
		Version: snap.Version(),
	})
}

// readImport parses an upload as XLSX when the content type says so, CSV otherwise.
func readImport(contentType string, body io.Reader) (export.ImportResult, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType) //nolint:errcheck // empty or malformed types fall back to CSV

	if mediaType == export.ContentTypeXLSX {
		return export.ReadXLSX(body)
	}

	return export.ReadCSV(body)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	s := sessionOf(r)

	snap, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str(logFieldUser, s.UserID).Msg("reload failed")
		ErrorsTotal.WithLabelValues(ErrorTypeLoad).Inc()
		h.writeUnavailable(w)

		return
	}

	h.writeJSON(w, http.StatusOK, mutationResponse("", snap))
}

func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (domain.Record, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecordBodyBytes))
	dec.DisallowUnknownFields()

	var rec domain.Record
	if err := dec.Decode(&rec); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %v", errors.ErrInvalidInput, err))

		return domain.Record{}, false
	}

	return rec, true
}
