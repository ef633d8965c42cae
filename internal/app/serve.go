package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abah/PERMASALAHAN-TANAH/internal/auth"
	"github.com/abah/PERMASALAHAN-TANAH/internal/casestore"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/dashboard"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/observability"
)

// RunServe serves the case API with health and metrics endpoints, and runs
// the backup loop when enabled. A failed initial load is not fatal: the API
// answers 503 and retries the load on the next request.
func (a *App) RunServe(ctx context.Context) error {
	store, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	if snap, err := a.loadStore(ctx, store); err != nil {
		a.logger.Warn().Err(err).Msg("Initial load failed, serving unavailable until a reload succeeds")
	} else {
		a.logger.Info().
			Str(logFieldSource, snap.Source()).
			Int(logFieldCount, snap.Len()).
			Msg("Initial load complete")
	}

	srv := a.newServer(store)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(gctx); err != nil {
			return fmt.Errorf("api server: %w", err)
		}

		return nil
	})

	if a.cfg.BackupEnabled {
		svc := a.backupService(store)

		g.Go(func() error {
			return svc.Run(gctx)
		})

		a.logger.Info().Str(logFieldPath, a.cfg.BackupDir).Dur("interval", a.cfg.BackupInterval).Msg("Backups enabled")
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return ctx.Err()
}

func (a *App) newServer(store *casestore.Store) *observability.Server {
	ac := a.cfg.AuthCfg()
	hc := a.cfg.HTTPCfg()

	tokens := auth.NewTokenService(ac.SigningSecret, ac.TokenTTLHours)

	handler := dashboard.NewHandler(dashboard.Config{
		RateLimitRPM:   hc.RateLimitRPM,
		RateLimitBurst: hc.RateLimitBurst,
		TrustedProxies: hc.TrustedProxies,
	}, store, tokens, a.logger)

	return observability.NewServer(hc.Port, storeReady(store), handler, a.logger)
}

// storeReady reports ready once a snapshot is published.
func storeReady(store *casestore.Store) observability.ReadyFunc {
	return func(context.Context) error {
		if store.Current() == nil {
			return errors.ErrNoDataAvailable
		}

		return nil
	}
}
