package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/minsukang/storefront-backend/api/routes"
	"github.com/minsukang/storefront-backend/internal/cart"
	"github.com/minsukang/storefront-backend/internal/orders"
	"github.com/minsukang/storefront-backend/internal/payments"
	"github.com/minsukang/storefront-backend/internal/products"
	"github.com/minsukang/storefront-backend/pkg/config"
	"github.com/minsukang/storefront-backend/pkg/db"
	"github.com/minsukang/storefront-backend/pkg/logger"
	"github.com/minsukang/storefront-backend/pkg/migrate"
	"github.com/minsukang/storefront-backend/pkg/redis"
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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, cart badge counts are uncached")
	}

	productRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	productService, err := products.NewService(productRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	var badgeCache *redis.Client
	if redisClient != nil {
		badgeCache = redisClient
	}
	cartService, err := newCartService(cartRepo, productRepo, badgeCache, cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := newOrderService(dbClient, orderRepo, cartRepo, productRepo, badgeCache, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(orderRepo, cfg.Payments, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient,
			productService, cartService, orderService, paymentService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// newCartService keeps the nil cache typed correctly: a nil *redis.Client
// must become a nil interface, not a non-nil interface wrapping nil.
func newCartService(repo *cart.Repository, productRepo *products.Repository, cache *redis.Client, cfg *config.Config, logg *logger.Logger) (cart.Service, error) {
	if cache == nil {
		return cart.NewService(repo, productRepo, nil, cfg.Cart, logg)
	}
	return cart.NewService(repo, productRepo, cache, cfg.Cart, logg)
}

func newOrderService(dbClient *db.Client, repo *orders.Repository, cartRepo *cart.Repository, productRepo *products.Repository, cache *redis.Client, logg *logger.Logger) (orders.Service, error) {
	if cache == nil {
		return orders.NewService(dbClient, repo, cartRepo, productRepo, nil, logg)
	}
	return orders.NewService(dbClient, repo, cartRepo, productRepo, cache, logg)
}
