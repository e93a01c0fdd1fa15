package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appauth "github.com/turtacn/patentdesk/internal/application/auth"
	"github.com/turtacn/patentdesk/internal/application/events"
	apppatent "github.com/turtacn/patentdesk/internal/application/patent"
	appreport "github.com/turtacn/patentdesk/internal/application/report"
	appsub "github.com/turtacn/patentdesk/internal/application/subscription"
	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/auth/token"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/patentdesk/internal/infrastructure/database/redis"
	"github.com/turtacn/patentdesk/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/internal/infrastructure/storage"
	"github.com/turtacn/patentdesk/internal/intelligence/providers"
	"github.com/turtacn/patentdesk/internal/interfaces/cli"
	"github.com/turtacn/patentdesk/internal/interfaces/graphql"
	httpserver "github.com/turtacn/patentdesk/internal/interfaces/http"
	"github.com/turtacn/patentdesk/internal/interfaces/http/handlers"
	"github.com/turtacn/patentdesk/internal/interfaces/http/middleware"
)

// limiterIdle is how long an idle client's rate limit state is kept.
const limiterIdle = 10 * time.Minute

// app owns every long-lived dependency of the server process.
type app struct {
	cfg    *config.Config
	logger logging.Logger

	db        *postgres.Connection
	redis     *redis.Client
	publisher kafka.Publisher
	scheduler *appsub.Scheduler
	limiter   *middleware.KeyedLimiter
	server    *httpserver.Server
}

// serve is the cli.ServeFunc for the production build.
func serve(ctx context.Context, cc *cli.CLIContext, opts cli.ServeOptions) error {
	cfg, logger := cc.Config, cc.Logger
	gin.SetMode(cfg.Server.Mode)

	if opts.Migrate {
		if err := migrateUp(cfg, logger); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	return a.run(ctx)
}

func migrateUp(cfg *config.Config, logger logging.Logger) error {
	m, err := postgres.NewMigrator(cfg.Database.DSN(), cfg.Database.MigrationsDir, logger)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	// --- Metrics ---
	var (
		metrics        *prometheus.AppMetrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		collector, cerr := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if cerr != nil {
			return nil, fmt.Errorf("metrics: %w", cerr)
		}
		metrics = prometheus.NewAppMetrics(collector)
		metricsHandler = collector.Handler()
	}

	// --- Storage backends ---
	a.db, err = postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	checkers := []handlers.HealthChecker{a.db}

	var (
		cache  redis.Cache  = redis.NewNopCache()
		locker redis.Locker = redis.NewLocalLocker()
	)
	if cfg.Redis.Enabled {
		a.redis, err = redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		cache = redis.NewRedisCache(a.redis, logger, redis.WithPrefix("patentdesk:"))
		locker = redis.NewLocker(a.redis, logger)
		checkers = append(checkers, a.redis)
	}

	blobs, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	checkers = append(checkers, blobs)

	// --- Messaging ---
	a.publisher = kafka.NewNoopPublisher()
	if cfg.Kafka.Enabled {
		producer, perr := kafka.NewProducer(cfg.Kafka, logger)
		if perr != nil {
			return nil, perr
		}
		a.publisher = producer
	}
	emitter := events.NewEmitter(a.publisher, metrics, logger.Named("events"))

	// --- AI ---
	analyzer, err := providers.New(cfg.Intelligence, metrics, logger.Named("intelligence"))
	if err != nil {
		return nil, err
	}

	// --- Repositories and services ---
	users := repositories.NewUserRepository(a.db, logger)
	subs := repositories.NewSubscriptionRepository(a.db, logger)
	patents := repositories.NewPatentRepository(a.db, logger)
	docs := repositories.NewDocumentRepository(a.db, logger)
	issuer := token.NewIssuer(cfg.Auth)

	authSvc := appauth.NewService(users, subs, a.db, issuer, emitter, metrics, logger, appauth.Options{
		TrialDays: cfg.Subscription.TrialDays,
	})
	patentSvc := apppatent.NewService(patents, docs, blobs, cache, emitter, metrics, logger, apppatent.Options{
		PublicPrefix:  cfg.Storage.PublicPrefix,
		MaxFileSize:   cfg.Storage.MaxFileSize,
		StorageDriver: cfg.Storage.Driver,
	})
	reportSvc := appreport.NewService(patents, analyzer, cache, emitter, metrics, logger, appreport.Options{
		MatchThreshold: cfg.Intelligence.MatchThreshold,
		CorpusLimit:    cfg.Intelligence.CorpusLimit,
		CacheTTL:       cfg.Intelligence.CacheTTL,
	})
	subSvc := appsub.NewService(subs, users, a.db, emitter, metrics, logger, cfg.Subscription.TrialDays)

	a.scheduler, err = appsub.NewScheduler(cfg.Subscription.ExpirySchedule, subSvc, locker, logger)
	if err != nil {
		return nil, fmt.Errorf("subscription.expiry_schedule: %w", err)
	}

	// --- Transport ---
	gqlHandler, err := graphql.NewHandler(
		graphql.NewResolver(authSvc, patentSvc, reportSvc, subSvc, logger),
		cfg.Server.GraphQLMaxDepth,
	)
	if err != nil {
		return nil, err
	}

	a.limiter = middleware.NewKeyedLimiter(cfg.Server.AuthRateLimit, cfg.Server.AuthRateBurst, limiterIdle)

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.Server.CORSOrigins
	}

	routerCfg := httpserver.RouterConfig{
		AuthHandler:         handlers.NewAuthHandler(authSvc, logger),
		PatentHandler:       handlers.NewPatentHandler(patentSvc, logger),
		DocumentHandler:     handlers.NewDocumentHandler(patentSvc, logger),
		ReportHandler:       handlers.NewReportHandler(reportSvc, logger),
		SubscriptionHandler: handlers.NewSubscriptionHandler(subSvc, logger),
		HealthHandler:       handlers.NewHealthHandler(version, metrics, checkers...),
		GraphQLHandler:      gqlHandler,
		MetricsHandler:      metricsHandler,
		AuthMiddleware:      middleware.NewAuthMiddleware(issuer, logger),
		AuthLimiter:         a.limiter,
		CORS:                cors,
		Logging:             middleware.DefaultLoggingConfig(),
		MaxBodySize:         cfg.Server.MaxBodySize,
		Logger:              logger,
		Metrics:             metrics,
	}
	if cfg.Storage.Driver == config.StorageLocal {
		routerCfg.StaticDir = cfg.Storage.LocalDir
		routerCfg.StaticPrefix = cfg.Storage.PublicPrefix
	}

	a.server = httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)
	return a, nil
}

// run serves until ctx is cancelled. The sweep scheduler and the limiter
// janitor live exactly as long as the server.
func (a *app) run(ctx context.Context) error {
	a.logger.Info("starting PatentDesk",
		logging.String("version", version),
		logging.String("addr", a.server.Addr()),
		logging.String("storage", a.cfg.Storage.Driver),
		logging.String("ai_provider", a.cfg.Intelligence.Provider),
	)

	go a.limiter.Run(ctx)
	a.scheduler.Start()

	err := a.server.Run(ctx)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	a.scheduler.Stop(stopCtx)
	return err
}

func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close event publisher", logging.Err(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", logging.Err(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
