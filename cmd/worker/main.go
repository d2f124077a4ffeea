// Package main is the entry point for the background worker. It runs the
// settlement worker that talks to bank providers and the scheduler that
// dispatches due payment plan installments.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lumapay/internal/config"
	"lumapay/internal/queue"
	"lumapay/internal/repositories"
	"lumapay/internal/repositories/cache"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/transfer"
	"lumapay/internal/services/wallet"
	"lumapay/internal/worker"
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
	transferService := transfer.NewService(ledgerRepo, walletService, banks, tasks, cacheService, nil, transfer.Config{
		MinAmount:            cfg.MinTransferAmount,
		MaxAmount:            cfg.MaxTransferAmount,
		SerializationRetries: cfg.TransferRetries,
		RetryBaseDelay:       cfg.TransferRetryBase,
	}, nil)

	settlement := worker.NewSettlement(
		tasks,
		cfg.SettlementQueue,
		ledgerRepo,
		vaRepo,
		planRepo,
		transferService,
		banks,
		worker.RetryPolicy{
			MaxAttempts: cfg.SettlementAttempts,
			BaseDelay:   cfg.SettlementBackoff,
			MaxDelay:    cfg.SettlementMaxDelay,
		},
		cfg.SettlementTimeout,
	)
	scheduler := worker.NewScheduler(planRepo, tasks, cfg.SettlementQueue, cfg.SchedulerInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := settlement.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Settlement worker stopped: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := scheduler.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Scheduler stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down workers")
	wg.Wait()
}

func buildBankRegistry(cfg config.Config) *bank.Registry {
	registry := bank.NewRegistry()

	if err := registry.Register(bank.Entry{
		Code:          "SANDBOX",
		Name:          "Sandbox Bank",
		AccountPrefix: "9900",
		Provider:      bank.NewSandboxProvider(),
	}); err != nil {
		log.Fatalf("Failed to register bank: %v", err)
	}
	if cfg.StripeKey != "" {
		if err := registry.Register(bank.Entry{
			Code:          "STRIPE",
			Name:          "Stripe",
			AccountPrefix: "9901",
			Provider:      bank.NewStripeProvider(cfg.StripeKey),
		}); err != nil {
			log.Fatalf("Failed to register bank: %v", err)
		}
	}
	return registry
}
