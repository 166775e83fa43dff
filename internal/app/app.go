package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	cacheredis "github.com/pct1089547896/games-marketplace-sub000/internal/cache/redis"
	"github.com/pct1089547896/games-marketplace-sub000/internal/config"
	"github.com/pct1089547896/games-marketplace-sub000/internal/event"
	handler "github.com/pct1089547896/games-marketplace-sub000/internal/handler/http"
	"github.com/pct1089547896/games-marketplace-sub000/internal/identity"
	"github.com/pct1089547896/games-marketplace-sub000/internal/repository/postgres"
	"github.com/pct1089547896/games-marketplace-sub000/internal/service"
	"github.com/pct1089547896/games-marketplace-sub000/migrations"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/database"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/health"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/httpclient"
	pkgkafka "github.com/pct1089547896/games-marketplace-sub000/pkg/kafka"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/middleware"
	"github.com/pct1089547896/games-marketplace-sub000/pkg/tracing"
)

// ServiceName identifies this process in logs, traces and metrics.
const ServiceName = "engagement-service"

// App wires together all dependencies and runs the engagement service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool       *pgxpool.Pool
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	dlq        *pkgkafka.DLQProducer
	consumers  []*pkgkafka.Consumer
	tracerDown tracing.Shutdown
	httpServer *http.Server

	// background owns the consumers and the rate limiter sweeper.
	background context.Context
	stop       context.CancelFunc
	wg         sync.WaitGroup
}

// NewApp creates a new application instance, initializing all dependencies.
// On failure everything opened so far is closed again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	a.background, a.stop = context.WithCancel(context.Background())
	defer func() {
		if err != nil {
			a.closeAll()
		}
	}()

	a.tracerDown, err = tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}
	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	a.rdb, err = database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Repositories and the shared recompute path.
	catalog := postgres.NewCatalogRepository(a.pool)
	ratings := postgres.NewRatingRepository(a.pool)
	votes := postgres.NewVoteRepository(a.pool)
	favorites := postgres.NewFavoriteRepository(a.pool)
	reports := postgres.NewReportRepository(a.pool)
	downloads := postgres.NewDownloadRepository(a.pool)
	relatedCache := cacheredis.NewRelatedCache(a.rdb, cfg.RelatedCacheTTL)
	recompute := service.NewRecomputer(catalog, ratings, votes, logger)

	var events service.EventPublisher = event.NopPublisher{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			WriteTimeout: 10 * time.Second,
		}, event.Source, logger)
		events = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("kafka disabled, domain events are dropped and inbound catalog events are not consumed")
	}

	ratingService := service.NewRatingService(ratings, catalog, recompute, events, logger)
	voteService := service.NewVoteService(ratings, votes, recompute, logger)
	favoriteService := service.NewFavoriteService(favorites, catalog, events, logger)
	reportService := service.NewReportService(reports, catalog, events, logger)
	relatedService := service.NewRelatedService(catalog, relatedCache, logger)
	syncService := service.NewCatalogSyncService(catalog, ratings, favorites, downloads, relatedCache, logger)

	if cfg.KafkaEnabled {
		a.consumers = a.newConsumers(syncService)
	}

	verify, err := newVerifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	healthHandler := health.NewHandler(5 * time.Second)
	healthHandler.Register("postgres", a.pool.Ping)
	healthHandler.Register("redis", func(ctx context.Context) error {
		return a.rdb.Ping(ctx).Err()
	})
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Ratings:       ratingService,
		Votes:         voteService,
		Favorites:     favoriteService,
		Reports:       reportService,
		Related:       relatedService,
		Health:        healthHandler,
		Verify:        verify,
		ReportLimiter: middleware.NewRateLimiter(a.background, cfg.ReportRatePerMin, cfg.ReportRateBurst, logger),
		CORS:          middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins, MaxAge: 3600},
		PprofCIDRs:    cfg.PprofAllowedCIDRs,
		RelatedMaxAge: int(cfg.RelatedMaxAge.Seconds()),
		Logger:        logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// newConsumers builds the inbound catalog consumers behind the Redis
// idempotency guard.
func (a *App) newConsumers(catalogSync *service.CatalogSyncService) []*pkgkafka.Consumer {
	if a.cfg.KafkaDeadLetter {
		a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)
	}
	store := pkgkafka.NewRedisIdempotencyStore(a.rdb, "engagement:processed", a.cfg.IdempotencyTTL)
	h := pkgkafka.IdempotentHandler(store, event.NewConsumerHandler(catalogSync, a.logger).Handle, a.logger)
	return event.NewConsumers(event.ConsumerOptions{
		Brokers:    a.cfg.KafkaBrokers,
		GroupID:    a.cfg.KafkaConsumerGroup,
		MaxRetries: a.cfg.KafkaMaxRetries,
		RetryWait:  a.cfg.KafkaRetryWait,
	}, h, a.dlq, a.logger)
}

// newVerifier picks local JWT verification or the remote identity provider.
func newVerifier(cfg *config.Config, logger *slog.Logger) (middleware.TokenVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		return identity.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer).Verify, nil
	case config.AuthModeRemote:
		client := httpclient.New(httpclient.Config{
			Timeout:      cfg.AuthRemoteTimeout,
			MaxRetries:   2,
			RetryWaitMin: 50 * time.Millisecond,
			RetryWaitMax: 500 * time.Millisecond,
		})
		breaker := httpclient.NewBreakerClient(client, httpclient.BreakerConfig{
			Name:        "identity",
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     15 * time.Second,
		}, logger)
		return identity.NewRemoteVerifier(breaker, cfg.AuthRemoteURL).Verify, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// Run starts the HTTP server and the consumers and blocks until ctx is
// canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	for _, c := range a.consumers {
		a.wg.Add(1)
		go func(c *pkgkafka.Consumer) {
			defer a.wg.Done()
			if err := c.Start(a.background); err != nil {
				a.logger.Error("consumer stopped with error",
					slog.String("topic", c.Topic()),
					slog.String("error", err.Error()),
				)
			}
		}(c)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops HTTP first, then the consumers, then flushes traces and
// closes Kafka, Redis and Postgres.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		firstErr = err
	}

	a.stop()
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("consumers did not stop before the shutdown deadline")
	}

	if a.tracerDown != nil {
		if err := a.tracerDown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
		a.tracerDown = nil
	}
	a.closeAll()

	a.logger.Info("application shutdown complete")
	return firstErr
}

// closeAll releases the Kafka, Redis and Postgres clients that were opened.
func (a *App) closeAll() {
	a.stop()
	if a.tracerDown != nil {
		_ = a.tracerDown(context.Background())
		a.tracerDown = nil
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
		a.producer = nil
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dead-letter producer close error", slog.String("error", err.Error()))
		}
		a.dlq = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.rdb = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
