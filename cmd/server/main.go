package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/binrental/binrental-backend/internal/adapter/health"
	"github.com/binrental/binrental-backend/internal/adapter/httpapi"
	"github.com/binrental/binrental-backend/internal/adapter/notify"
	"github.com/binrental/binrental-backend/internal/adapter/repository/postgres"
	"github.com/binrental/binrental-backend/internal/adapter/repository/rediscache"
	"github.com/binrental/binrental-backend/internal/config"
	"github.com/binrental/binrental-backend/internal/usecase/booking"
	"github.com/binrental/binrental-backend/internal/usecase/matching"
	"github.com/binrental/binrental-backend/internal/usecase/registry"
	"github.com/binrental/binrental-backend/internal/usecase/seeder"
	"github.com/binrental/binrental-backend/internal/usecase/settlement"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "binrental").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	// 1. Storage
	db, err := postgres.NewDB(cfg.Database.ConnString())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	binRepo := postgres.NewBinRepository(db)
	itemRepo := postgres.NewOrderItemRepository(db)
	requestRepo := postgres.NewRequestRepository(db)
	quoteRepo := postgres.NewQuoteRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	payoutRepo := postgres.NewPayoutRepository(db)
	billRepo := postgres.NewBillRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	settingRepo := postgres.NewSettingRepository(db)

	cache, err := rediscache.NewRequestCache(cfg.Redis.Addr(), "", 0)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer cache.Close()

	// 2. Messaging
	notifier := notify.NewKafkaNotifier(notify.NewWriter(cfg.Kafka.Broker, cfg.Kafka.EventsTopic))
	defer notifier.Close()
	pushSender := notify.NewKafkaPushSender(notify.NewWriter(cfg.Kafka.Broker, cfg.Kafka.PushTopic))
	defer pushSender.Close()

	// 3. Use cases
	registryService := registry.NewRegistryService(binRepo)
	matchingService := matching.NewMatchingService(binRepo)
	settlementService := settlement.NewSettlementService(db, walletRepo, transactionRepo, payoutRepo, invoiceRepo, settingRepo)
	bookingService := booking.NewBookingService(
		db, requestRepo, itemRepo, binRepo, quoteRepo, billRepo,
		matchingService, settlementService, notifier, cache,
	)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := seeder.NewSystemSeeder(settingRepo).Seed(seedCtx); err != nil {
		cancelSeed()
		logger.Fatal().Err(err).Msg("failed to seed system settings")
	}
	cancelSeed()

	// 4. Servers
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	healthServer := health.NewServer(db)
	go func() {
		logger.Info().Str("addr", cfg.HealthAddr).Msg("health server listening")
		if err := healthServer.Serve(ctx, cfg.HealthAddr); err != nil {
			logger.Error().Err(err).Msg("health server stopped")
		}
	}()

	handler := httpapi.NewHandler(registryService, bookingService, settlementService, pushSender)
	e := httpapi.NewRouter(handler, cfg.APIToken)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	healthServer.Stop()
}
