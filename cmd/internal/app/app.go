// Package app wires the Hub server runtime: config, logging, stores, the
// auth gate, the realtime gateway, and webhook ingestion.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hub/cmd/identity"
	"hub/cmd/internal/auth"
	authapi "hub/cmd/internal/auth/api"
	"hub/cmd/internal/auth/apikey"
	"hub/cmd/internal/auth/session"
	"hub/cmd/internal/capture"
	"hub/cmd/internal/realtime"
	"hub/cmd/internal/settings"
	"hub/cmd/internal/webhook"
	"hub/cmd/security/token"

	"github.com/jackc/pgx/v5/pgxpool"
)

// stores groups the persistence backends behind one construction choice:
// Postgres when a database URL is configured, in-memory otherwise (dev mode).
type stores struct {
	users    identity.Store
	sessions session.Store
	keys     apikey.Store
	settings settings.Store
	commands webhook.Store
	captures capture.Store
}

// App is the Hub server runtime.
type App struct {
	cfg Config
	log *slog.Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	metricsHandler http.Handler

	authHandler    *authapi.Handler
	captureHandler *capture.Handler
	webhookHandler *webhook.Handler
	gate           *authapi.Gate
	ws             *realtime.Gateway
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	if cfg.TokenSecret == "" {
		return nil, errors.New("app: HUB_TOKEN_SECRET is required")
	}
	codec, err := token.NewCodec(token.Config{
		Issuer:     cfg.TokenIssuer,
		Secret:     []byte(cfg.TokenSecret),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	if err != nil {
		return nil, err
	}

	st, pool, dbEnabled, err := newStores(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	if err := settings.Seed(context.Background(), st.settings, map[string]string{
		settings.KeySlackSigningSecret:  cfg.SlackSigningSecret,
		settings.KeyGitHubWebhookSecret: cfg.GitHubWebhookSecret,
		settings.KeyGitHubAPIToken:      cfg.GitHubAPIToken,
	}); err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	authSvc := auth.NewService(log, st.users, st.sessions, codec)
	keySvc := auth.NewKeyService(st.keys)

	promReg := NewMetricsRegistry()
	wsMetrics := realtime.NewMetrics(promReg)
	wsPool := realtime.NewPool(log, wsMetrics)
	socketAuth := auth.NewSocketAuthenticator(authSvc, keySvc, nil)
	ws := realtime.NewGateway(log, wsPool, socketAuth, wsMetrics, realtime.GatewayConfig{
		AuthTimeout:        cfg.WSAuthTimeout,
		SendQueueSize:      cfg.WSSendQueueSize,
		OriginPatterns:     cfg.WSOriginPatterns,
		InsecureSkipVerify: cfg.WSDevInsecure,
	})

	replier := webhook.NewGitHubReplier(st.settings, "")
	ingestor := webhook.NewIngestor(log, st.commands, wsPool, replier, cfg.BotHandle)
	webhookHandler := webhook.NewHandler(log, ingestor, st.settings, nil)

	captureSvc := capture.NewService(log, st.captures, wsPool)
	captureHandler := capture.NewHandler(log, captureSvc, nil)

	authHandler := authapi.NewHandler(log, authSvc, keySvc, authapi.Config{
		BootstrapSecret: cfg.BootstrapSecret,
	}, nil)
	gate := authapi.NewGate(log, authapi.NewVerifier(authSvc, keySvc))

	return &App{
		cfg:            cfg,
		log:            log,
		dbPool:         pool,
		dbEnabled:      dbEnabled,
		metricsHandler: MetricsHandler(promReg),
		authHandler:    authHandler,
		captureHandler: captureHandler,
		webhookHandler: webhookHandler,
		gate:           gate,
		ws:             ws,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(a.gate.Wrap(mux), a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStores decides between Postgres-backed persistence and in-memory dev
// stores.
func newStores(ctx context.Context, cfg Config, log *slog.Logger) (stores, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return stores{
			users:    identity.NewMemoryStore(),
			sessions: session.NewMemoryStore(),
			keys:     apikey.NewMemoryStore(),
			settings: settings.NewMemoryStore(),
			commands: webhook.NewMemoryStore(),
			captures: capture.NewMemoryStore(),
		}, nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return stores{}, nil, false, err
	}
	log.Info("db.enabled.postgres_store")

	return stores{
		users:    identity.NewPostgresStore(pool),
		sessions: session.NewPostgresStore(pool),
		keys:     apikey.NewPostgresStore(pool),
		settings: settings.NewPostgresStore(pool),
		commands: webhook.NewPostgresStore(pool),
		captures: capture.NewPostgresStore(pool),
	}, pool, true, nil
}
