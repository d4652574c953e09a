package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/pulse/internal/app"
	"github.com/nhle/pulse/internal/checkin"
	"github.com/nhle/pulse/internal/credential"
	"github.com/nhle/pulse/internal/logging"
	"github.com/nhle/pulse/internal/metrics"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/source"
	"github.com/nhle/pulse/internal/store"
)

// appRuntime holds everything a command needs once configuration is loaded.
type appRuntime struct {
	cfg       *model.AppConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics
	backend   *app.Backend
	store     store.Store
	engine    *checkin.Engine
	presenter *checkin.Presenter

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (r *appRuntime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// loadConfig reads the config file, applies dotenv and environment
// overrides, and resolves secrets from the keyring.
func loadConfig(flags globalFlags) (*model.AppConfig, error) {
	if err := model.LoadDotEnv(flags.envFile); err != nil {
		return nil, err
	}

	cfg, err := model.LoadConfig(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := model.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}
	if flags.metricsAddr != "" {
		cfg.Metrics.Addr = flags.metricsAddr
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	creds, err := credential.Open(model.ConfigDir())
	if err != nil {
		// Secrets can still come from the environment.
		creds = nil
	}
	if cfg.Backend.Token, err = creds.Resolve(cfg.Backend.Token, credential.KeyBackendToken); err != nil {
		return nil, err
	}
	if cfg.State.RedisPassword, err = creds.Resolve(cfg.State.RedisPassword, credential.KeyRedisPassword); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildOptions selects which parts of the runtime a command needs.
type buildOptions struct {
	// logToFile redirects console logging so it does not draw over the TUI.
	logToFile bool
	withStore bool
	withFeed  bool
}

func newRuntime(ctx context.Context, flags globalFlags, opts buildOptions) (*appRuntime, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	if opts.logToFile && (cfg.Log.Output == "" || cfg.Log.Output == "stderr" || cfg.Log.Output == "stdout") {
		cfg.Log.Output = model.DefaultLogPath()
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	r := &appRuntime{cfg: cfg, logger: logger, metrics: metrics.New()}
	r.closers = append(r.closers, closeLog)

	if opts.withStore {
		st, err := app.OpenStore(ctx, cfg.State, logger)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("open state store: %w", err)
		}
		r.store = st
		r.closers = append(r.closers, func() {
			if err := st.Close(); err != nil {
				logger.Warn("closing state store", zap.Error(err))
			}
		})
	}

	if opts.withFeed {
		b, err := app.OpenBackend(ctx, cfg.Backend, logger)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("open backend: %w", err)
		}
		r.backend = b
		r.closers = append(r.closers, func() {
			if err := b.Close(); err != nil {
				logger.Warn("closing backend", zap.Error(err))
			}
		})
	}

	if opts.withStore && opts.withFeed {
		r.buildEngine(ctx)
	}

	return r, nil
}

func (r *appRuntime) fetcher() *source.Fetcher {
	return source.NewFetcher(r.backend.Lister, r.logger,
		source.WithTimeout(r.cfg.Backend.Timeout),
		source.WithMaxDetails(r.cfg.CheckIn.MaxDetails),
	)
}

func (r *appRuntime) buildEngine(ctx context.Context) {
	r.engine = checkin.New(ctx,
		checkin.ConfigFrom(r.cfg.CheckIn),
		r.fetcher(),
		store.NewCheckinState(r.store),
		checkin.WithLogger(r.logger.Named("checkin")),
		checkin.WithMetrics(r.metrics),
		checkin.WithEventLog(r.store),
	)
	r.presenter = checkin.NewPresenter(r.engine)
	r.closers = append(r.closers, func() {
		_ = r.engine.Close()
	})

	idCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	name, err := r.backend.Identity.DisplayName(idCtx)
	switch {
	case source.IsAuthError(err):
		r.logger.Error("backend rejected credentials", zap.Error(err))
	case err != nil:
		r.logger.Warn("resolving display name", zap.Error(err))
	default:
		r.engine.SetDisplayName(name)
	}
}

// serveMetrics exposes /metrics until the runtime closes.
func (r *appRuntime) serveMetrics() {
	addr := r.cfg.Metrics.Addr
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	r.logger.Info("serving metrics", zap.String("addr", addr))

	r.closers = append(r.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}
