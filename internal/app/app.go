// Package app wires configuration, logging, stores and subgraph clients for
// the command line tools.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"strategy-reset-lab/internal/config"
	"strategy-reset-lab/internal/logging"
	"strategy-reset-lab/internal/observability"
	"strategy-reset-lab/internal/storage"
	chstore "strategy-reset-lab/internal/storage/clickhouse"
	"strategy-reset-lab/internal/storage/migrations"
	pgstore "strategy-reset-lab/internal/storage/postgres"
	"strategy-reset-lab/internal/subgraph"
	"strategy-reset-lab/internal/validation"
)

// App holds the shared dependencies of a command.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	pgPool *pgstore.Pool
	chConn *chstore.Conn
}

// New loads configuration and builds the logger.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.DefaultMetrics,
	}, nil
}

// OpenStores connects the configured databases and applies migrations.
// A backend with an empty DSN stays disabled.
func (a *App) OpenStores(ctx context.Context) error {
	if dsn := a.Config.Storage.PostgresDSN; dsn != "" && a.pgPool == nil {
		pool, err := pgstore.NewPool(ctx, dsn, int32(a.Config.Storage.PostgresMaxConns))
		if err != nil {
			return err
		}
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return err
		}
		a.pgPool = pool
		a.Logger.Info("connected postgres trade cache", zap.Strings("migrations_applied", applied))
	}

	if dsn := a.Config.Storage.ClickhouseDSN; dsn != "" && a.chConn == nil {
		conn, err := chstore.OpenDatabase(ctx, dsn)
		if err != nil {
			return err
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			return err
		}
		a.chConn = conn
		a.Logger.Info("connected clickhouse result store", zap.String("database", conn.Database()))
	}
	return nil
}

// SubgraphClient returns a client for the subgraph of network.
func (a *App) SubgraphClient(network string) (*subgraph.Client, error) {
	cfg := a.Config.Subgraph
	endpoint, err := subgraph.EndpointFor(network, cfg.Endpoints)
	if err != nil {
		return nil, err
	}
	return subgraph.NewClient(endpoint,
		subgraph.WithTimeout(cfg.Timeout),
		subgraph.WithMaxRetries(cfg.MaxRetries),
		subgraph.WithPageSize(cfg.PageSize),
		subgraph.WithPageDelay(cfg.PageDelay),
		subgraph.WithCacheTTL(cfg.CacheTTL),
		subgraph.WithLogger(a.Logger.With(zap.String("network", network))),
		subgraph.WithMetrics(a.Metrics),
	), nil
}

// TradeSource returns the trade source of network, cached in PostgreSQL
// when a pool is open.
func (a *App) TradeSource(network string) (validation.TradeSource, error) {
	client, err := a.SubgraphClient(network)
	if err != nil {
		return nil, err
	}
	if a.pgPool == nil {
		return client, nil
	}
	return validation.NewCachedSource(client,
		pgstore.NewTradeStore(a.pgPool),
		pgstore.NewFetchProgressStore(a.pgPool),
		a.Logger,
	), nil
}

// ResultStore returns the ClickHouse result store, or nil when disabled.
func (a *App) ResultStore() storage.ValidationResultStore {
	if a.chConn == nil {
		return nil
	}
	return chstore.NewValidationResultStore(a.chConn)
}

// Runner returns a validation runner for network with the shared run id.
func (a *App) Runner(network, runID string) (*validation.Runner, error) {
	source, err := a.TradeSource(network)
	if err != nil {
		return nil, err
	}
	r := validation.NewRunner(source).
		WithLogger(a.Logger.With(zap.String("network", network))).
		WithMetrics(a.Metrics)
	if runID != "" {
		r.WithRunID(runID)
	}
	if store := a.ResultStore(); store != nil {
		r.WithResultStore(store)
	}
	return r, nil
}

// ServeMetrics starts the /metrics and /health listener when an address is
// configured. The listener stops with ctx.
func (a *App) ServeMetrics(ctx context.Context) {
	addr := a.Config.MetricsAddr
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.Logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("metrics server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

// Close releases database connections and flushes the logger.
func (a *App) Close() {
	if a.pgPool != nil {
		a.pgPool.Close()
	}
	if a.chConn != nil {
		if err := a.chConn.Close(); err != nil {
			a.Logger.Warn("close clickhouse", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
