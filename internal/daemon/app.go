// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon assembles the trackgate components and owns their lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/trackgate/internal/access"
	"github.com/ManuGH/trackgate/internal/api"
	"github.com/ManuGH/trackgate/internal/auth"
	"github.com/ManuGH/trackgate/internal/cache"
	"github.com/ManuGH/trackgate/internal/catalog"
	"github.com/ManuGH/trackgate/internal/config"
	"github.com/ManuGH/trackgate/internal/keys"
	"github.com/ManuGH/trackgate/internal/log"
	"github.com/ManuGH/trackgate/internal/segment"
	"github.com/ManuGH/trackgate/internal/storage"
	"github.com/ManuGH/trackgate/internal/telemetry"
	"github.com/ManuGH/trackgate/internal/token"
	"github.com/ManuGH/trackgate/internal/workpool"
)

// ServiceName identifies the daemon in logs and traces.
const ServiceName = "trackgate"

const cacheJanitorInterval = time.Minute

// App is a fully wired daemon.
type App struct {
	cfg       config.AppConfig
	logger    zerolog.Logger
	handler   http.Handler
	server    *http.Server
	telemetry *telemetry.Provider
	watcher   *storage.Watcher
	watching  bool
	cancel    context.CancelFunc
	closers   []func() error
}

// Build wires every component from cfg. On error, everything opened so far
// is closed again.
func Build(ctx context.Context, cfg config.AppConfig) (app *App, err error) {
	a := &App{cfg: cfg, logger: log.WithComponent("daemon")}
	defer func() {
		if err != nil {
			a.abort(ctx)
		}
	}()

	a.telemetry, err = telemetry.NewProvider(ctx, cfg.TelemetryConfig(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	store, err := catalog.Open(ctx, cfg.CatalogConfig())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	if err := seedCatalog(ctx, store, cfg); err != nil {
		return nil, err
	}

	sizes, sizesReady, err := a.buildSizeCache(ctx)
	if err != nil {
		return nil, err
	}

	fetcher, err := a.buildFetcher(sizes)
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewAuthority(cfg.TokenConfig())
	if err != nil {
		return nil, err
	}
	deriver, err := keys.NewHKDF([]byte(cfg.Secret))
	if err != nil {
		return nil, err
	}

	registry := auth.NewRegistry(cfg.Viewers)
	if registry.Len() == 0 {
		a.logger.Warn().Str(log.FieldEvent, "auth.no_viewers").Msg("no viewer credentials configured; only preload and delivery tokens will be accepted")
	}

	srv, err := api.New(cfg.APIConfig(ServiceName), api.Deps{
		Tokens:  tokens,
		TTLs:    cfg.TokenTTLs(),
		Planner: segment.NewPlanner(fetcher, tokens, cfg.PlannerConfig()),
		Fetcher: fetcher,
		Tracks:  store,
		Access:  access.NewVerifier(registry, store),
		Keys:    deriver,
		IOPool:  workpool.New("io", cfg.Pools.IO),
		CPUPool: workpool.New("cpu", cfg.Pools.CPU),
		Ready: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			if sizesReady != nil {
				return sizesReady(ctx)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	a.handler = srv.Handler()
	return a, nil
}

func seedCatalog(ctx context.Context, store *catalog.Store, cfg config.AppConfig) error {
	for _, t := range cfg.SeedTracks() {
		if err := store.UpsertTrack(ctx, t); err != nil {
			return fmt.Errorf("seed track %s: %w", t.ID, err)
		}
	}
	for _, m := range cfg.Catalog.Members {
		if err := store.AddMember(ctx, m.LobbyID, m.PrincipalID); err != nil {
			return fmt.Errorf("seed member %s/%s: %w", m.LobbyID, m.PrincipalID, err)
		}
	}
	return nil
}

func (a *App) buildSizeCache(ctx context.Context) (cache.SizeCache, func(context.Context) error, error) {
	switch a.cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, a.cfg.RedisConfig(), log.WithComponent("cache"))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, rc.Close)
		return rc, rc.HealthCheck, nil
	case "none":
		return cache.NewNoOpCache(), nil, nil
	default:
		mc := cache.NewMemoryCache(cacheJanitorInterval)
		a.closers = append(a.closers, mc.Close)
		return mc, nil, nil
	}
}

func (a *App) buildFetcher(sizes cache.SizeCache) (storage.Fetcher, error) {
	var (
		inner storage.Fetcher
		root  string
	)
	switch a.cfg.Storage.Backend {
	case "remote":
		remote, err := storage.NewRemote(a.cfg.RemoteConfig())
		if err != nil {
			return nil, err
		}
		breaker := storage.NewBreaker("remote", a.cfg.Storage.BreakerThreshold, a.cfg.Storage.BreakerReset)
		inner = storage.NewGuarded(remote, "remote", breaker)
	default:
		local, err := storage.NewLocal(a.cfg.Storage.Root)
		if err != nil {
			return nil, err
		}
		inner, root = local, local.Root()
	}

	cached := storage.NewCached(inner, sizes, a.cfg.Cache.TTL)
	if root != "" && a.cfg.Storage.Watch {
		a.watcher = storage.NewWatcher(root, cached.Invalidate)
	}

	a.logger.Info().
		Str(log.FieldBackend, a.cfg.Storage.Backend).
		Str("cache", a.cfg.Cache.Backend).
		Bool("watch", a.watcher != nil).
		Msg("storage configured")
	return cached, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP on ln (or the configured address when ln is nil) until ctx
// ends, then shuts down gracefully.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("media watcher unavailable, cached sizes expire by TTL only")
		} else {
			a.watching = true
		}
	}

	sc := a.cfg.Server
	a.server = &http.Server{
		Addr:              sc.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: sc.ReadHeaderTimeout,
		ReadTimeout:       sc.ReadTimeout,
		WriteTimeout:      sc.WriteTimeout,
		IdleTimeout:       sc.IdleTimeout,
		MaxHeaderBytes:    sc.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", sc.ListenAddr)
		if err != nil {
			a.close()
			return fmt.Errorf("listen %s: %w", sc.ListenAddr, err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info().Str(log.FieldEvent, "server.listening").Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		a.close()
		return err
	case <-ctx.Done():
		return a.Shutdown(context.WithoutCancel(ctx))
	}
}

// Shutdown stops the server and releases every component.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Str(log.FieldEvent, "daemon.stopping").Msg("shutting down")

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.watching {
		<-a.watcher.Done()
		a.watching = false
	}
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	if err := a.close(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("daemon stopped")
	return errors.Join(errs...)
}

// abort undoes a partial Build.
func (a *App) abort(ctx context.Context) {
	if err := a.telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn().Err(err).Msg("telemetry shutdown after failed startup")
	}
	_ = a.close()
}

// close releases components in reverse order of construction.
func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
