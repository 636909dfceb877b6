package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/config"
	"github.com/seffafbagis/donation-platform/internal/domain/event"
	"github.com/seffafbagis/donation-platform/internal/infrastructure/database"
	httpServer "github.com/seffafbagis/donation-platform/internal/infrastructure/http"
	providerfactory "github.com/seffafbagis/donation-platform/internal/infrastructure/provider"
	"github.com/seffafbagis/donation-platform/internal/scheduler"
	"github.com/seffafbagis/donation-platform/internal/usecase"
	"github.com/seffafbagis/donation-platform/pkg/logger"
	"github.com/seffafbagis/donation-platform/pkg/messaging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       "info",
		Format:      "json",
		Output:      "stdout",
		Development: cfg.Service.Environment != "production",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	// Event publisher. Redis being down degrades to silent events rather
	// than refusing donations.
	var publisher event.Publisher = event.NopPublisher{}
	if cfg.Redis.Addr != "" {
		redisClient, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zapLogger.Warn("Redis unavailable, events will be discarded", zap.Error(err))
		} else {
			defer redisClient.Close()
			publisher = redisClient
		}
	}

	gateway, err := providerfactory.NewGateway(cfg.Service.Gateway, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to configure payment gateway", zap.Error(err))
	}

	settings := usecase.NewSettingService(repos.Setting, zapLogger)
	receipts := usecase.NewReceiptService(repos.Receipt, zapLogger)
	donations := usecase.NewDonationService(repos.Donation, repos.Campaign, repos.User, receipts, settings, publisher, zapLogger)
	transfers := usecase.NewBankTransferService(repos.BankTransfer, repos.BankAccount, repos.Campaign, donations, publisher, zapLogger)
	recurring := usecase.NewRecurringService(repos.Recurring, repos.Campaign, publisher, zapLogger)
	sessions := usecase.NewSessionService(repos.Session, repos.Donation, donations, zapLogger)
	payments := usecase.NewPaymentService(
		gateway,
		repos.Donation,
		repos.Transaction,
		repos.Recurring,
		repos.User,
		donations,
		sessions,
		recurring,
		cfg.Service.Gateway.CallbackURL,
		zapLogger,
	)
	recurring.SetCharger(payments)
	transactions := usecase.NewTransactionService(repos.Transaction, repos.Donation, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeps := scheduler.New(cfg.Scheduler, transfers, sessions, recurring, zapLogger)
	sweeps.Start(ctx)

	httpSrv := httpServer.NewServer(cfg, zapLogger, &httpServer.Services{
		Donations:    donations,
		Transfers:    transfers,
		Recurring:    recurring,
		Sessions:     sessions,
		Payments:     payments,
		Transactions: transactions,
	})

	go func() {
		if err := httpSrv.Start(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down...")
	cancel()
	sweeps.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Shutdown complete")
}
