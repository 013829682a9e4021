package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukerupert/savoir/internal"
	"github.com/dukerupert/savoir/internal/auth"
	"github.com/dukerupert/savoir/internal/billing"
	"github.com/dukerupert/savoir/internal/cookie"
	"github.com/dukerupert/savoir/internal/events"
	"github.com/dukerupert/savoir/internal/handler/admin"
	"github.com/dukerupert/savoir/internal/handler/storefront"
	"github.com/dukerupert/savoir/internal/handler/webhook"
	"github.com/dukerupert/savoir/internal/middleware"
	"github.com/dukerupert/savoir/internal/postgres"
	"github.com/dukerupert/savoir/internal/router"
	"github.com/dukerupert/savoir/internal/routes"
	"github.com/dukerupert/savoir/internal/service"
	"github.com/dukerupert/savoir/internal/session"
	"github.com/dukerupert/savoir/internal/telemetry"
	"github.com/dukerupert/savoir/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	repo := store.Queries()

	// ==========================================================================
	// Sessions and rate limiting
	// ==========================================================================

	var (
		sessions session.Store
		limiter  middleware.Limiter
		pruner   *middleware.MemoryLimiter
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		limiter = middleware.NewRedisLimiter(rdb, "http", int64(cfg.RateLimit.RequestsPerSecond*60), time.Minute)
		logger.Info("Redis session store initialized", "addr", cfg.Redis.Addr)
	} else {
		sessions = session.NewMemoryStore()
		pruner = middleware.NewMemoryLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		limiter = pruner
		logger.Warn("REDIS_ADDR not set, sessions kept in memory")
	}
	checkoutLimiter := middleware.NewMemoryLimiter(cfg.RateLimit.RequestsPerSecond/10, max(cfg.RateLimit.Burst/4, 1))

	// ==========================================================================
	// Payment gateway and events
	// ==========================================================================

	var gateway billing.Gateway
	if cfg.Stripe.SecretKey != "" {
		stripeConfig := billing.StripeConfig{
			APIKey:        cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			MaxRetries:    3,
		}
		gateway, err = billing.NewStripeGateway(stripeConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe gateway: %w", err)
		}
		logger.Info("Stripe gateway initialized", "test_mode", stripeConfig.IsTestMode())
	} else {
		gateway = billing.NewMockGateway()
		logger.Warn("STRIPE_SECRET_KEY not set, using mock payment gateway")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, nc, err := events.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				logger.Warn("nats drain failed", "error", err)
			}
		}()
		publisher = natsPublisher
		logger.Info("NATS event publisher connected", "url", cfg.NATS.URL)
	}

	// ==========================================================================
	// Metrics
	// ==========================================================================

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg, "savoir")
	business := telemetry.NewBusinessMetrics(reg, "savoir")

	// ==========================================================================
	// Services
	// ==========================================================================

	tokens, err := auth.NewTokenVerifier(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	users := service.NewUserService(repo)
	catalogService := service.NewCatalogService(repo)
	libraryService := service.NewLibraryService(repo, logger)
	cartService := service.NewCartService(service.NewCartStore(logger, business), repo, logger, business)
	purchaseService := service.NewPurchaseService(store, publisher, logger, business)
	checkoutService := service.NewCheckoutService(cartService, purchaseService, gateway, service.CheckoutConfig{
		BaseURL:  cfg.BaseURL,
		Currency: cfg.Currency,
	}, logger, business)
	validationService := service.NewValidationService(store, publisher, logger, business)
	themeService := service.NewThemeService(store, publisher, logger, business)

	// ==========================================================================
	// Routes
	// ==========================================================================

	cookies := cookie.NewConfig("", cfg.Env == "prod", int(cfg.SessionTTL.Seconds()))

	storefrontDeps := routes.StorefrontDeps{
		Session:         middleware.WithSession(sessions, cookies),
		CheckoutLimit:   middleware.RateLimit(checkoutLimiter),
		CatalogHandler:  storefront.NewCatalogHandler(catalogService, libraryService),
		CartHandler:     storefront.NewCartHandler(cartService),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService, cartService),
		LessonHandler:   storefront.NewLessonHandler(validationService),
		AccountHandler:  storefront.NewAccountHandler(libraryService),
	}
	adminDeps := routes.AdminDeps{
		Token:        cfg.AdminToken,
		ThemeHandler: admin.NewThemeHandler(themeService),
	}
	webhookDeps := routes.WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(gateway, business).HandleWebhook,
	}

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig()),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.RateLimit(limiter),
		middleware.WithUser(tokens, users),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		telemetry.SentryMiddleware,
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Handle(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.RegisterStorefrontRoutes(r, storefrontDeps)
	routes.RegisterAdminRoutes(r, adminDeps)
	routes.RegisterWebhookRoutes(r, webhookDeps)

	if cfg.AdminToken == "" {
		logger.Info("ADMIN_TOKEN not set, admin routes disabled")
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(int(cfg.Port)),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	memLimiters := []*middleware.MemoryLimiter{checkoutLimiter}
	if pruner != nil {
		memLimiters = append(memLimiters, pruner)
	}
	maintenance := worker.New(logger, 1, worker.Task{
		Name:     "prune_rate_limits",
		Interval: time.Minute,
		Run: func(context.Context) error {
			for _, l := range memLimiters {
				l.Prune()
			}
			return nil
		},
	})
	g.Go(func() error {
		return maintenance.Start(gctx)
	})

	return g.Wait()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
