package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"zawadi-commerce/internal/checkout"
	"zawadi-commerce/internal/config"
	"zawadi-commerce/internal/db"
	"zawadi-commerce/internal/events"
	"zawadi-commerce/internal/httpserver"
	"zawadi-commerce/internal/mpesa"
	cartrepo "zawadi-commerce/internal/repository/cart"
	orderrepo "zawadi-commerce/internal/repository/order"
	productrepo "zawadi-commerce/internal/repository/product"
	cartsvc "zawadi-commerce/internal/service/cart"
	catalogsvc "zawadi-commerce/internal/service/catalog"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	catalogService := catalogsvc.New(productRepo)
	cartService := cartsvc.New(cartRepo, productRepo, cfg.DeliveryFeeCents, cfg.Currency)

	gateway := mpesa.NewClient(mpesa.Config{
		BaseURL:   cfg.GatewayBaseURL,
		ShortCode: cfg.GatewayShortCode,
		Passkey:   cfg.GatewayPasskey,
		APIKey:    cfg.GatewayAPIKey,
		Timeout:   cfg.GatewayTimeout,
	}, logger)

	var locker checkout.FlowLocker
	if cfg.RedisAddr != "" {
		locker = checkout.NewRedisLocker(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		logger.Printf("flow locking via redis at %s", cfg.RedisAddr)
	} else {
		locker = checkout.NewMemoryLocker()
	}

	var publisher checkout.EventPublisher = events.Noop{}
	if cfg.AMQPURL != "" {
		p, err := events.NewPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatalf("connect amqp: %v", err)
		}
		defer p.Close()
		publisher = p
		logger.Printf("order events enabled")
	}

	verifier := checkout.NewVerifier(productRepo, logger)
	builder := checkout.NewBuilder(orderRepo, logger)
	checkoutService := checkout.NewService(cartService, verifier, builder, orderRepo, gateway, locker, publisher, checkout.ServiceConfig{
		PollInterval:    cfg.PollInterval,
		PollMaxAttempts: cfg.PollMaxAttempts,
		GatewayTimeout:  cfg.GatewayTimeout,
	}, logger)
	defer checkoutService.Close()

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CatalogSvc:  catalogService,
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		OrderSvc:    orderRepo,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
