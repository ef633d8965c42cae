// Package dashboard serves the case dashboard's JSON API: filtered records,
// statistics, chart series, filter options, exports and record mutations.
package dashboard

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/abah/PERMASALAHAN-TANAH/internal/auth"
	"github.com/abah/PERMASALAHAN-TANAH/internal/casestore"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/ports"
)

// Rate limiting defaults.
const (
	defaultRateLimitRPM   = 120
	defaultRateLimitBurst = 20
	rateLimitWindow       = time.Minute

	// Limiters unused for limiterIdleTTL are dropped on the next sweep.
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

// Body size limits.
const (
	maxRecordBodyBytes = 1 << 20
	maxImportBodyBytes = 10 << 20
)

// Log field constants.
const (
	logFieldRecordID = "record_id"
	logFieldUser     = "user"
	logFieldRoute    = "route"
)

// HTTP header constants.
const (
	headerContentType        = "Content-Type"
	headerContentDisposition = "Content-Disposition"
	contentTypeJSON          = "application/json; charset=utf-8"
)

const routeRateLimited = "rate_limited"

// CaseStore is the record store the API reads from and writes through.
type CaseStore interface {
	Current() *casestore.Snapshot
	Load(ctx context.Context) (*casestore.Snapshot, error)
	Writable() bool
	Create(ctx context.Context, who ports.Principal, rec domain.Record) (string, *casestore.Snapshot, error)
	Update(ctx context.Context, who ports.Principal, id string, rec domain.Record) (*casestore.Snapshot, error)
	Delete(ctx context.Context, who ports.Principal, id string) (*casestore.Snapshot, error)
	Import(ctx context.Context, who ports.Principal, recs []domain.Record) (int, *casestore.Snapshot, error)
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Session, error)
}

// Config configures request limits.
type Config struct {
	RateLimitRPM   int
	RateLimitBurst int
	// TrustedProxies lists the networks whose X-Forwarded-For and X-Real-IP
	// headers identify the client. Other peers are keyed by their address.
	TrustedProxies []netip.Prefix
}

type capability int

const (
	capRead capability = iota
	capWrite
	capDelete
)

// Handler serves the /api/ routes.
type Handler struct {
	store  CaseStore
	tokens TokenVerifier
	logger *zerolog.Logger
	now    func() time.Time
	mux    *http.ServeMux

	limit   rate.Limit
	burst   int
	proxies []netip.Prefix

	// IP-based rate limiting
	limiters   map[string]*clientLimiter
	limitersMu sync.Mutex
	lastSweep  time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewHandler creates the API handler.
func NewHandler(cfg Config, store CaseStore, tokens TokenVerifier, logger *zerolog.Logger) *Handler {
	if cfg.RateLimitRPM <= 0 {
		cfg.RateLimitRPM = defaultRateLimitRPM
	}

	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	h := &Handler{
		store:    store,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
		mux:      http.NewServeMux(),
		limit:    rate.Every(rateLimitWindow / time.Duration(cfg.RateLimitRPM)),
		burst:    cfg.RateLimitBurst,
		proxies:  cfg.TrustedProxies,
		limiters: make(map[string]*clientLimiter),
	}

	h.routes()

	return h
}

func (h *Handler) routes() {
	h.route("GET /api/session", capRead, h.handleSession)
	h.route("GET /api/records", capRead, h.handleRecords)
	h.route("GET /api/records/{id}", capRead, h.handleRecord)
	h.route("GET /api/stats", capRead, h.handleStats)
	h.route("GET /api/charts", capRead, h.handleCharts)
	h.route("GET /api/options", capRead, h.handleOptions)
	h.route("GET /api/export.csv", capRead, h.handleExportCSV)
	h.route("GET /api/export.xlsx", capRead, h.handleExportXLSX)

	h.route("POST /api/records", capWrite, h.handleCreate)
	h.route("PUT /api/records/{id}", capWrite, h.handleUpdate)
	h.route("DELETE /api/records/{id}", capDelete, h.handleDelete)
	h.route("POST /api/import", capWrite, h.handleImport)
	h.route("POST /api/reload", capWrite, h.handleReload)
}

// ServeHTTP applies security headers and per-client rate limiting, then routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "private, no-store")

	if !h.allowRequest(h.clientIP(r)) {
		h.writeError(w, http.StatusTooManyRequests, "too many requests, please wait before trying again")
		HitsTotal.WithLabelValues(routeRateLimited, strconv.Itoa(http.StatusTooManyRequests)).Inc()
		DeniedTotal.WithLabelValues(ReasonRateLimited).Inc()

		return
	}

	h.mux.ServeHTTP(w, r)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request)

// route registers fn behind authentication and the capability check.
func (h *Handler) route(pattern string, need capability, fn handlerFunc) {
	h.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			LatencyHistogram.WithLabelValues(pattern).Observe(time.Since(start).Seconds())
			HitsTotal.WithLabelValues(pattern, strconv.Itoa(sw.status)).Inc()
		}()

		session, ok := h.authenticate(sw, r)
		if !ok {
			return
		}

		if !allowed(session.Role, need) {
			DeniedTotal.WithLabelValues(ReasonForbidden).Inc()
			h.logger.Warn().Str(logFieldUser, session.UserID).Str(logFieldRoute, pattern).Msg("role lacks capability")
			h.writeError(sw, http.StatusForbidden, errors.ErrPermissionDenied.Error())

			return
		}

		fn(sw, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

// sessionOf returns the session stored by route. A request without one
// carries the zero session, which has no capabilities.
func sessionOf(r *http.Request) auth.Session {
	s, _ := auth.SessionFrom(r.Context())

	return s
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	token, ok := auth.BearerToken(r)
	if !ok {
		DeniedTotal.WithLabelValues(ReasonMissingToken).Inc()
		h.writeError(w, http.StatusUnauthorized, errors.ErrUnauthenticated.Error())

		return auth.Session{}, false
	}

	session, err := h.tokens.Verify(token)
	if err != nil {
		reason := ReasonInvalidToken
		if errors.Is(err, auth.ErrTokenExpired) {
			reason = ReasonExpired
		}

		DeniedTotal.WithLabelValues(reason).Inc()
		h.writeError(w, http.StatusUnauthorized, err.Error())

		return auth.Session{}, false
	}

	return session, true
}

func allowed(role auth.Role, need capability) bool {
	switch need {
	case capWrite:
		return role.CanWrite()
	case capDelete:
		return role.CanDelete()
	default:
		return role.CanRead()
	}
}

// snapshot returns the current snapshot, loading it on first use. It writes
// a retryable 503 when no data can be loaded.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (*casestore.Snapshot, bool) {
	if snap := h.store.Current(); snap != nil {
		return snap, true
	}

	snap, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load records")
		ErrorsTotal.WithLabelValues(ErrorTypeLoad).Inc()
		h.writeUnavailable(w)

		return nil, false
	}

	return snap, true
}

type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, errorBody{Error: msg})
}

func (h *Handler) writeUnavailable(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusServiceUnavailable, errorBody{
		Error:     "data is temporarily unavailable",
		Retryable: true,
	})
}

// writeStoreError maps store and backend errors to HTTP responses. An
// unavailable primary is matched first since it wraps the backend failure.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrPrimaryUnavailable):
		h.logger.Warn().Err(err).Msg("mutation refused while primary source is unavailable")
		ErrorsTotal.WithLabelValues(ErrorTypeLoad).Inc()
		h.writeUnavailable(w)
	case errors.Is(err, errors.ErrPermissionDenied):
		DeniedTotal.WithLabelValues(ReasonForbidden).Inc()
		h.writeError(w, http.StatusForbidden, errors.ErrPermissionDenied.Error())
	case errors.Is(err, errors.ErrSourceDisabled):
		h.writeError(w, http.StatusConflict, "records are read-only in this deployment")
	case errors.Is(err, errors.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, errors.ErrDuplicateRecord):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errors.ErrNoDataAvailable), errors.Is(err, context.DeadlineExceeded):
		ErrorsTotal.WithLabelValues(ErrorTypeLoad).Inc()
		h.writeUnavailable(w)
	default:
		h.logger.Error().Err(err).Msg("record store error")
		ErrorsTotal.WithLabelValues(ErrorTypeWrite).Inc()
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
		ErrorsTotal.WithLabelValues(ErrorTypeEncode).Inc()
	}
}

func (h *Handler) allowRequest(ip string) bool {
	now := h.now()

	h.limitersMu.Lock()

	if now.Sub(h.lastSweep) >= limiterSweepInterval {
		h.evictIdleLimiters(now)
		h.lastSweep = now
	}

	cl, ok := h.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(h.limit, h.burst)}
		h.limiters[ip] = cl
	}

	cl.lastSeen = now

	h.limitersMu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// evictIdleLimiters must be called with limitersMu held.
func (h *Handler) evictIdleLimiters(now time.Time) {
	for ip, cl := range h.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(h.limiters, ip)
		}
	}
}

// clientIP returns the address used for rate limiting. Forwarding headers
// are read only when the peer is a trusted proxy; X-Forwarded-For is walked
// from the right, skipping further trusted hops.
func (h *Handler) clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if hp, _, err := net.SplitHostPort(host); err == nil {
		host = hp
	}

	peer, err := netip.ParseAddr(host)
	if err != nil || !h.trusted(peer) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}

			if !h.trusted(addr) {
				return addr.String()
			}
		}
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.String()
	}

	return host
}

func (h *Handler) trusted(addr netip.Addr) bool {
	addr = addr.Unmap()

	for _, p := range h.proxies {
		if p.Contains(addr) {
			return true
		}
	}

	return false
}

// statusWriter records the status code for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
