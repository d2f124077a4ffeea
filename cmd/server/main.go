// Package main is the entry point for the API server. It wires the
// repositories, services and HTTP handlers together and serves the wallet,
// transfer, virtual account, callback and plan endpoints.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumapay/internal/config"
	"lumapay/internal/handlers"
	"lumapay/internal/middleware"
	"lumapay/internal/queue"
	"lumapay/internal/repositories"
	"lumapay/internal/repositories/cache"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/callback"
	"lumapay/internal/services/notification"
	"lumapay/internal/services/plan"
	"lumapay/internal/services/transfer"
	"lumapay/internal/services/virtualaccount"
	"lumapay/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	db, err := repositories.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cacheService := cache.NewCacheService(redisClient, 10*time.Minute)
	defer cacheService.Close()

	ledgerRepo := repositories.NewLedgerRepository(db)
	vaRepo := repositories.NewVirtualAccountRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	tasks := queue.NewRedisQueue(redisClient)

	banks := buildBankRegistry(cfg)

	walletService := wallet.NewService(ledgerRepo, cacheService, wallet.Config{
		PinAttemptLimit: cfg.PinAttemptLimit,
	}, nil)
	transferService := transfer.NewService(ledgerRepo, walletService, banks, tasks, cacheService, notification.NewService(), transfer.Config{
		MinAmount:            cfg.MinTransferAmount,
		MaxAmount:            cfg.MaxTransferAmount,
		SerializationRetries: cfg.TransferRetries,
		RetryBaseDelay:       cfg.TransferRetryBase,
	}, nil)
	vaService := virtualaccount.NewService(vaRepo, walletService, banks, tasks, virtualaccount.Config{
		CreditExpiry:   cfg.CreditVAExpiry,
		DebitExpiry:    cfg.DebitVAExpiry,
		NumberAttempts: cfg.VANumberAttempts,
		WithdrawTTL:    cfg.WithdrawTTL,
	})
	callbackService := callback.NewService(ledgerRepo, vaRepo, vaService, cacheService, callback.Config{
		ChannelKeys: cfg.CallbackKeys,
	})
	planService := plan.NewService(planRepo, walletService, banks)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api/callbacks", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	handlers.SetupRoutes(app, handlers.Handlers{
		Wallet:         handlers.NewWalletHandler(walletService),
		Transfer:       handlers.NewTransferHandler(transferService),
		VirtualAccount: handlers.NewVirtualAccountHandler(vaService),
		Callback:       handlers.NewCallbackHandler(callbackService),
		Plan:           handlers.NewPlanHandler(planService),
		Health:         handlers.NewHealthHandler(cacheService),
	}, middleware.NewAuthMiddleware(cfg.JWTSecret))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	log.Printf("API server listening on :%s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// buildBankRegistry registers the configured providers. Stripe backs the
// payout rail when a key is configured; the sandbox provider covers local
// development and the VA rail.
func buildBankRegistry(cfg config.Config) *bank.Registry {
	registry := bank.NewRegistry()

	sandbox := bank.NewSandboxProvider()
	mustRegister(registry, bank.Entry{
		Code:          "SANDBOX",
		Name:          "Sandbox Bank",
		AccountPrefix: "9900",
		Provider:      sandbox,
	})

	if cfg.StripeKey != "" {
		mustRegister(registry, bank.Entry{
			Code:          "STRIPE",
			Name:          "Stripe",
			AccountPrefix: "9901",
			Provider:      bank.NewStripeProvider(cfg.StripeKey),
		})
	}
	return registry
}

func mustRegister(r *bank.Registry, e bank.Entry) {
	if err := r.Register(e); err != nil {
		log.Fatalf("Failed to register bank %s: %v", e.Code, err)
	}
}
