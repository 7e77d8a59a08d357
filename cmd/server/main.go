package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v82"

	"github.com/dukerupert/academy/internal"
	"github.com/dukerupert/academy/internal/auth"
	"github.com/dukerupert/academy/internal/bootstrap"
	"github.com/dukerupert/academy/internal/cookie"
	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/email"
	"github.com/dukerupert/academy/internal/events"
	"github.com/dukerupert/academy/internal/gateway"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/handler/admin"
	"github.com/dukerupert/academy/internal/handler/storefront"
	"github.com/dukerupert/academy/internal/handler/webhook"
	"github.com/dukerupert/academy/internal/jobs"
	"github.com/dukerupert/academy/internal/middleware"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/router"
	"github.com/dukerupert/academy/internal/routes"
	"github.com/dukerupert/academy/internal/service"
	"github.com/dukerupert/academy/internal/telemetry"
	"github.com/dukerupert/academy/internal/worker"
)

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

	// Error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics("academy")

	// Database
	logger.Info("Connecting to database...")
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	sqlDB := stdlib.OpenDBFromPool(pool)
	if err := internal.RunMigrations(ctx, sqlDB, logger); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()

	repo := repository.New(pool)
	hasher := auth.NewHasher(0)

	if err := bootstrap.EnsureAdmin(ctx, repo, hasher, &bootstrap.AdminConfig{
		Phone:    cfg.Admin.Phone,
		Password: cfg.Admin.Password,
		Name:     cfg.Admin.Name,
	}, logger); err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}

	// Payment gateways
	gateways := newGatewayRegistry(cfg, logger)

	// Email
	var sender email.Sender
	if cfg.Email.Enabled() {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
	} else {
		logger.Warn("SMTP not configured, emails will be logged only")
		sender = email.NewNoopSender(logger)
	}
	mailer, err := email.NewService(sender)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Domain events
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = nats
	}
	defer publisher.Close()

	// Background work
	workers := worker.NewPool(worker.Config{WorkerID: "academy"}, logger)
	workers.Start(ctx)
	notifier := service.NewPoolNotifier(workers, mailer, publisher, logger)

	// Services
	checkoutConfig := service.CheckoutConfig{
		CallbackBaseURL: cfg.BaseURL,
		ResultURL:       cfg.PaymentResultURL,
	}
	analyticsService := service.NewAnalyticsService(repo, logger)
	pricingService := service.NewPricingService(repo, logger)
	commissionService := service.NewCommissionService(repo, analyticsService, logger)
	roadmapService := service.NewRoadmapService(repo, notifier, logger)
	catalogService := service.NewCatalogService(repo, pricingService, logger)
	adminService := service.NewAdminService(repo, logger)
	walletService := service.NewWalletService(repo, gateways, notifier, checkoutConfig, logger)
	accountService := service.NewAccountService(repo, hasher, analyticsService, service.AccountConfig{
		SessionTTL:               cfg.SessionTTL,
		MarketerRegistrationDays: cfg.MarketerRegistrationDays,
	}, logger)
	checkoutService := service.NewCheckoutService(
		repo,
		gateways,
		pricingService,
		commissionService,
		analyticsService,
		roadmapService,
		notifier,
		checkoutConfig,
		logger,
	)

	// Cron cleanup
	scheduler := jobs.NewScheduler(repo, jobs.SchedulerConfig{PendingTTL: cfg.PendingTTL}, logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// ==========================================================================
	// Build route dependencies
	// ==========================================================================

	production := cfg.Env == "prod"
	cookies := cookie.NewConfig(cfg.CookieDomain, production)

	strictLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	defer strictLimiter.Stop()

	storefrontDeps := routes.StorefrontDeps{
		CatalogHandler: storefront.NewCatalogHandler(catalogService, pricingService),
		PaymentHandler: storefront.NewPaymentHandler(checkoutService, walletService),
		RoadmapHandler: storefront.NewRoadmapHandler(roadmapService),
		AccountHandler: storefront.NewAccountHandler(accountService, storefront.AccountConfig{
			Cookies:      cookies,
			MarketingTTL: cfg.MarketingTTL,
			FrontendURL:  cfg.FrontendURL,
		}),
		StrictLimit: strictLimiter.Middleware,
	}

	adminDeps := routes.AdminDeps{
		DiscountHandler:   admin.NewDiscountHandler(adminService),
		CommissionHandler: admin.NewCommissionHandler(commissionService),
		AnalyticsHandler:  admin.NewAnalyticsHandler(analyticsService),
	}

	webhookDeps := routes.WebhookDeps{
		PaymentCallbackHandler: webhook.NewPaymentCallbackHandler(checkoutService, walletService, cfg.PaymentResultURL),
	}

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics("academy", prometheus.DefaultRegisterer)

	defaultLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer defaultLimiter.Stop()

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		middleware.WithUser(accountService),
		telemetry.SentryMiddleware(sentryUser),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		metrics.Middleware,
		middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(production)),
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		defaultLimiter.Middleware,
	)

	routes.RegisterSystemRoutes(r, routes.SystemDeps{
		HealthHandler: func(w http.ResponseWriter, req *http.Request) {
			pingCtx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(pingCtx); err != nil {
				handler.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
			handler.OK(w, map[string]string{"status": "ok"})
		},
		MetricsHandler: metrics.Handler(),
	})
	routes.RegisterStorefrontRoutes(r, storefrontDeps)
	routes.RegisterAdminRoutes(r, adminDeps)
	routes.RegisterWebhookRoutes(r, webhookDeps)
	r.NotFound(handler.NotFoundHandler)

	// CORS wraps the mux so preflight requests never hit method patterns.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.CORS(cfg.CORSOrigins, 10*time.Minute)(r),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	scheduler.Stop(shutdownCtx)
	if err := workers.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
	return nil
}

// newGatewayRegistry registers every configured gateway. The wallet is always
// available.
func newGatewayRegistry(cfg *internal.Config, logger *slog.Logger) *gateway.Registry {
	providers := []gateway.Provider{gateway.NewWalletProvider()}

	if cfg.Zarinpal.MerchantID != "" {
		client := &http.Client{
			Timeout:   15 * time.Second,
			Transport: &telemetry.HTTPTransport{Gateway: "zarinpal"},
		}
		providers = append(providers, gateway.NewZarinpalProvider(
			cfg.Zarinpal.MerchantID,
			cfg.Zarinpal.Sandbox,
			gateway.WithZarinpalHTTPClient(client),
		))
		logger.Info("Zarinpal gateway enabled", "sandbox", cfg.Zarinpal.Sandbox)
	}

	if cfg.Stripe.SecretKey != "" {
		stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient: &http.Client{
				Timeout:   30 * time.Second,
				Transport: &telemetry.HTTPTransport{Gateway: "stripe"},
			},
		}))
		providers = append(providers, gateway.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.Currency))
		logger.Info("Stripe gateway enabled", "currency", cfg.Stripe.Currency)
	}

	return gateway.NewRegistry(providers...)
}

func sentryUser(ctx context.Context) *telemetry.UserInfo {
	user := domain.UserFromContext(ctx)
	if user == nil {
		return nil
	}
	return &telemetry.UserInfo{ID: user.ID.String(), Phone: user.Phone}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
