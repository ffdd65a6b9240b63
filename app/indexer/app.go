package indexer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/desoc-network/govx/pkg/config"
	"github.com/desoc-network/govx/pkg/db/memory"
	"github.com/desoc-network/govx/pkg/db/postgres"
	"github.com/desoc-network/govx/pkg/db/postgres/derived"
	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/logging"
	"github.com/desoc-network/govx/pkg/projection"
	"github.com/desoc-network/govx/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Schema    *schema.Schema
	Store     projection.Store
	Projector *projection.Projector
	Progress  *Progress
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Checks    map[string]HealthCheck
	// Server represents the HTTP server exposing health, status and metrics.
	Server *http.Server

	closers []func()
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *App {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Schema:   schema.Default(),
		Progress: NewProgress(),
		Registry: registry,
		Checks:   make(map[string]HealthCheck),
	}

	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("Using in-memory derived store, projections are lost on restart")
		app.Store = memory.New()
	default:
		db, dbErr := derived.NewWithPoolConfig(ctx, logger, cfg.PostgresURL, app.Schema, postgres.PoolConfig{
			MinConns:        cfg.PostgresMinConns,
			MaxConns:        cfg.PostgresMaxConns,
			ConnMaxLifetime: cfg.PostgresConnMaxLifetime,
			ConnMaxIdleTime: cfg.PostgresConnMaxIdleTime,
			Component:       "projector",
		})
		if dbErr != nil {
			logger.Fatal("Unable to initialize derived database", zap.Error(dbErr))
		}
		app.Store = db
		app.Checks["postgres"] = func(ctx context.Context) error { return db.Pool.Ping(ctx) }
		app.closers = append(app.closers, db.Close)
	}

	redisClient, err := redis.NewClient(ctx, logger, redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		StreamMaxLen: cfg.RedisStreamMaxLen,
	})
	if err != nil {
		logger.Fatal("Unable to connect to Redis", zap.Error(err))
	}
	app.Redis = redisClient
	app.Checks["redis"] = redisClient.Health
	app.closers = append(app.closers, func() { _ = redisClient.Close() })

	app.Projector = projection.New(app.Schema, app.Store, logger,
		projection.WithMetrics(projection.NewMetrics(registry)))

	app.Server = NewServer(app)

	return app
}

// Start runs one consumer per stream and the HTTP server, and blocks until
// the context is canceled.
func (a *App) Start(ctx context.Context) {
	go func() {
		a.Logger.Info("Starting server", zap.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()

	pool := pond.NewPool(len(a.Config.Streams))
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	for _, stream := range a.Config.Streams {
		consumer, err := redis.NewStreamConsumer(a.Redis, redis.StreamConsumerConfig{
			Stream:   stream,
			Group:    a.Config.ConsumerGroup,
			Consumer: a.Config.ConsumerName,
			Count:    a.Config.BatchSize,
			Block:    a.Config.BlockTimeout,
			Logger:   a.Logger,
		})
		if err != nil {
			a.Logger.Fatal("Unable to create stream consumer", zap.String("stream", stream), zap.Error(err))
		}
		handler := a.streamHandler(stream)

		group.SubmitErr(func() error {
			return consumer.Run(group.Context(), handler.Handle)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		a.Logger.Error("Stream consumer stopped", zap.Error(err))
	}
	a.Stop()
}

func (a *App) streamHandler(stream string) *StreamHandler {
	return &StreamHandler{
		Stream:    stream,
		Schema:    a.Schema,
		Projector: a.Projector,
		Store:     a.Store,
		Progress:  a.Progress,
		Publisher: a.Redis,
		Channel:   a.Config.NotifyChannel,
		Logger:    a.Logger,
	}
}

// Stop shuts the server down and releases connections.
func (a *App) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
