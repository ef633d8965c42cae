// Package datasource loads the record set from the configured primary store,
// falling back to the bundled dataset. It is the single place where stored
// documents are normalized into domain records.
package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/ports"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/worker"
	"github.com/abah/PERMASALAHAN-TANAH/internal/records"
)

const (
	logFieldSource   = "source"
	logFieldRecordID = "record_id"
	logFieldAttempt  = "attempt"
	logFieldIndex    = "index"

	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
)

// Config tunes the primary source retry policy.
type Config struct {
	RetryAttempts int
	RetryDelay    time.Duration
}

// Loaded is the outcome of one Load call.
type Loaded struct {
	Records []domain.Record
	// Source names the backend the records came from.
	Source string
	// Skipped counts documents dropped for a missing or repeated id.
	Skipped int
	// PrimaryErr holds the primary source failure when the fallback served the
	// load. It wraps errors.ErrEmptySource when the primary was read but empty.
	PrimaryErr error
}

// Adapter reads records from a primary source with a bundled fallback.
// It never writes.
type Adapter struct {
	primary  ports.RecordSource
	fallback ports.RecordSource
	cfg      Config
	logger   *zerolog.Logger
}

// New creates an adapter. Either source may be nil.
func New(primary, fallback ports.RecordSource, cfg Config, logger *zerolog.Logger) *Adapter {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}

	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Adapter{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		logger:   logger,
	}
}

// Load returns a fresh record set. The primary source is tried first; an
// error or an empty result switches to the fallback. When neither yields a
// record the error wraps errors.ErrNoDataAvailable and the primary failure.
func (a *Adapter) Load(ctx context.Context) (Loaded, error) {
	var primaryErr error

	if a.primary != nil {
		loaded, err := a.loadPrimary(ctx)
		if err == nil && len(loaded.Records) > 0 {
			RecordsLoaded.Set(float64(len(loaded.Records)))

			return loaded, nil
		}

		if ctx.Err() != nil {
			return Loaded{}, fmt.Errorf("load %s: %w", a.primary.Name(), ctx.Err())
		}

		primaryErr = err
		if primaryErr == nil {
			primaryErr = fmt.Errorf("%s: %w", a.primary.Name(), errors.ErrEmptySource)
		}

		a.logger.Warn().Err(primaryErr).Str(logFieldSource, a.primary.Name()).Msg("primary source unavailable, using bundled data")
	}

	if a.fallback != nil {
		loaded, err := a.read(ctx, a.fallback)
		if err == nil && len(loaded.Records) > 0 {
			FallbacksTotal.Inc()
			RecordsLoaded.Set(float64(len(loaded.Records)))

			loaded.PrimaryErr = primaryErr

			return loaded, nil
		}

		if err != nil {
			a.logger.Error().Err(err).Str(logFieldSource, a.fallback.Name()).Msg("fallback source failed")
		}
	}

	if primaryErr != nil {
		return Loaded{}, fmt.Errorf("%w: %w", errors.ErrNoDataAvailable, primaryErr)
	}

	return Loaded{}, errors.ErrNoDataAvailable
}

// loadPrimary reads the primary source, retrying transient failures with a
// fixed delay.
func (a *Adapter) loadPrimary(ctx context.Context) (Loaded, error) {
	var lastErr error

	for attempt := 1; attempt <= a.cfg.RetryAttempts; attempt++ {
		loaded, err := a.read(ctx, a.primary)
		if err == nil {
			return loaded, nil
		}

		lastErr = err

		if !isTransient(ctx, err) || attempt == a.cfg.RetryAttempts {
			break
		}

		a.logger.Debug().Err(err).Int(logFieldAttempt, attempt).Str(logFieldSource, a.primary.Name()).Msg("retrying primary source")

		if err := worker.Wait(ctx, a.cfg.RetryDelay); err != nil {
			return Loaded{}, err
		}
	}

	return Loaded{}, lastErr
}

func (a *Adapter) read(ctx context.Context, src ports.RecordSource) (Loaded, error) {
	start := time.Now()
	docs, err := src.Documents(ctx)

	LoadDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		LoadsTotal.WithLabelValues(src.Name(), StatusError).Inc()

		return Loaded{}, fmt.Errorf("read %s: %w", src.Name(), err)
	}

	loaded := a.normalize(src.Name(), docs)

	status := StatusOK
	if len(loaded.Records) == 0 {
		status = StatusEmpty
	}

	LoadsTotal.WithLabelValues(src.Name(), status).Inc()

	return loaded, nil
}

// normalize converts documents to records. Documents without an id are
// skipped; for repeated ids the first occurrence wins.
func (a *Adapter) normalize(source string, docs []domain.Document) Loaded {
	out := Loaded{
		Records: make([]domain.Record, 0, len(docs)),
		Source:  source,
	}

	seen := make(map[string]struct{}, len(docs))

	for i, doc := range docs {
		rec, err := records.Normalize(doc)
		if err != nil {
			out.Skipped++
			SkippedTotal.WithLabelValues(ReasonMissingID).Inc()
			a.logger.Warn().Err(err).Str(logFieldSource, source).Int(logFieldIndex, i).Msg("skipping document without id")

			continue
		}

		rec = records.Sanitize(rec)

		if _, dup := seen[rec.ID]; dup {
			out.Skipped++
			SkippedTotal.WithLabelValues(ReasonDuplicateID).Inc()
			a.logger.Warn().
				Err(errors.ErrDuplicateRecord).
				Str(logFieldSource, source).
				Str(logFieldRecordID, rec.ID).
				Msg("skipping duplicate document")

			continue
		}

		seen[rec.ID] = struct{}{}
		out.Records = append(out.Records, rec)
	}

	return out
}

// isTransient reports whether a failed read is worth retrying.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	switch {
	case errors.Is(err, errors.ErrSourceDisabled),
		errors.Is(err, errors.ErrPermissionDenied),
		errors.Is(err, errors.ErrUnauthenticated),
		errors.Is(err, errors.ErrInvalidInput):
		return false
	default:
		return true
	}
}
