package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/shoeparadise/storefront-backend/api/routes"
	"github.com/shoeparadise/storefront-backend/internal/addresses"
	"github.com/shoeparadise/storefront-backend/internal/auth"
	"github.com/shoeparadise/storefront-backend/internal/cart"
	"github.com/shoeparadise/storefront-backend/internal/catalog"
	"github.com/shoeparadise/storefront-backend/internal/checkout"
	"github.com/shoeparadise/storefront-backend/internal/orders"
	"github.com/shoeparadise/storefront-backend/internal/reviews"
	"github.com/shoeparadise/storefront-backend/internal/users"
	stripewebhook "github.com/shoeparadise/storefront-backend/internal/webhooks/stripe"
	"github.com/shoeparadise/storefront-backend/internal/wishlist"
	"github.com/shoeparadise/storefront-backend/pkg/config"
	"github.com/shoeparadise/storefront-backend/pkg/db"
	"github.com/shoeparadise/storefront-backend/pkg/logger"
	"github.com/shoeparadise/storefront-backend/pkg/metrics"
	"github.com/shoeparadise/storefront-backend/pkg/migrate"
	"github.com/shoeparadise/storefront-backend/pkg/redis"
	"github.com/shoeparadise/storefront-backend/pkg/stripe"
)

const (
	shutdownTimeout    = 15 * time.Second
	webhookDedupeTTL   = 24 * time.Hour
	webhookDedupeScope = "stripe-webhook"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	defer func() {
		if err := closeResources(dbClient, redisClient); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gdb := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		UserRepo:       users.NewRepository(gdb),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		DB:   dbClient,
		Repo: catalog.NewRepository(gdb),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo: reviews.NewRepository(gdb),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		DB:   dbClient,
		Repo: cart.NewRepository(gdb),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo: wishlist.NewRepository(gdb),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	addressService, err := addresses.NewService(addresses.ServiceParams{
		DB:   dbClient,
		Repo: addresses.NewRepository(gdb),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo: orders.NewRepository(gdb),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		DB:            dbClient,
		Repo:          checkout.NewRepository(gdb),
		AddressRepo:   addresses.NewRepository(gdb),
		OrderRepo:     orders.NewRepository(gdb),
		PaymentIntent: checkout.NewStripeClient(stripeClient),
		Config:        cfg.Checkout,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		TransactionRunner: dbClient,
		OrderRepo:         orders.NewRepository(gdb),
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookDedupeTTL, webhookDedupeScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config: cfg,
		Logger: logg,

		DBPinger:    dbClient,
		RedisClient: redisClient,
		Metrics:     httpMetrics,
		Registry:    registry,

		AuthService:     authService,
		CatalogService:  catalogService,
		ReviewService:   reviewService,
		CartService:     cartService,
		WishlistService: wishlistService,
		AddressService:  addressService,
		OrderService:    orderService,
		CheckoutService: checkoutService,

		StripeClient: stripeClient,
		WebhookSvc:   webhookService,
		WebhookGuard: webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}

func closeResources(dbClient *db.Client, redisClient *redis.Client) error {
	var errs error
	if err := dbClient.Close(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := redisClient.Close(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}
