package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/ratelimit"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "checkout",
		Usage: "order placement service for the storefront",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the fulfillment consumer",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: migrate,
				Subcommands: []*cli.Command{
					{
						Name:   "status",
						Usage:  "print the migration status",
						Action: migrationStatus,
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("checkout").WithField("error", err.Error()).Fatal("Command failed")
	}
}

func setup(c *cli.Context) (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	db, err := repository.Open(c.Context, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrate(c *cli.Context) error {
	_, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()

	return repository.Migrate(db.DB)
}

func migrationStatus(c *cli.Context) error {
	_, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()

	return repository.MigrationStatus(db.DB)
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := logging.NewLogger("checkout")

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db.DB); err != nil {
			return err
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	policy := ratelimit.Policy{
		Window:         cfg.RateLimit.Window,
		MaxSubmissions: cfg.RateLimit.MaxSubmissions,
		MinInterval:    cfg.RateLimit.MinInterval,
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(policy)
	if cfg.Features.EnableRedisRateLimit {
		limiter = ratelimit.NewRedisLimiter(rdb, policy)
	}

	var gateway clients.PaymentGateway
	if cfg.Payment.GatewayConfigured() {
		gateway = clients.NewStripeGateway(cfg.Payment.StripeSecretKey)
	}

	publisher := events.NewKafkaPublisher(cfg.Kafka)
	defer publisher.Close()

	m := metrics.New()
	orderRepo := repository.NewPostgresOrderRepository(db)
	orderService := service.NewOrderService(
		repository.NewPostgresUserRepository(db),
		repository.NewPostgresCatalogRepository(db),
		orderRepo,
		repository.NewRedisOrderCache(rdb, cfg.Redis.TTL),
		limiter,
		gateway,
		publisher,
		m,
		cfg,
	)

	checks := map[string]handlers.HealthCheck{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
	srv := server.New(handlers.NewHandlers(orderService, checks, cfg), m, cfg)

	logger.WithFields(logging.Fields{
		"port":              cfg.Server.Port,
		"payment_gateway":   cfg.Payment.GatewayConfigured(),
		"redis_rate_limit":  cfg.Features.EnableRedisRateLimit,
		"order_events":      cfg.Features.EnableOrderEvents,
		"order_caching":     cfg.Features.EnableOrderCaching,
		"fulfillment_input": cfg.Features.EnableFulfillment,
	}).Info("Checkout service starting")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if cfg.Features.EnableFulfillment {
		consumer := events.NewKafkaConsumer(cfg.Kafka, orderService)
		g.Go(func() error {
			err := consumer.Start(gctx)
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			consumer.Stop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Checkout service stopped")
	return nil
}
