package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"windreseller/internal/bootstrap"
	"windreseller/internal/bot"
	"windreseller/internal/config"
	cronpkg "windreseller/internal/cron"
	"windreseller/internal/middleware"
	"windreseller/internal/pkg/secrets"
	"windreseller/internal/pkg/telegram"
	"windreseller/internal/repository"
	"windreseller/internal/router"
	"windreseller/internal/service"
)

// operatorNotifier forwards audit alerts to the bot once it exists.
// Breaks the service -> auditor -> bot -> service construction cycle.
type operatorNotifier struct {
	target service.Notifier
}

func (n *operatorNotifier) NotifyOperator(text string) {
	if n.target != nil {
		n.target.NotifyOperator(text)
	}
}

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(logger); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Credential sealer ---
	sealer, err := secrets.New(cfg.Secrets.Key)
	if err != nil {
		logger.Fatal("Failed to initialize credential sealer", zap.Error(err))
	}

	// --- Telegram Bot API (direct HTTP client) ---
	botAPI := telegram.NewBotAPI(cfg.Bot.Token)

	// --- Domain service ---
	notifier := &operatorNotifier{}
	store := repository.NewGormStore(db)
	auditor := service.NewAuditor(store, notifier, logger)
	svc := service.New(store, auditor, logger)

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Webhook Deduper (Redis with in-memory fallback) ---
	updateDeduper, dedupeErr := middleware.NewUpdateDeduper(cfg.Redis, 10*time.Minute)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Bot ---
	botRepos := &bot.BotRepos{
		User:    repository.NewUserRepository(db),
		Order:   repository.NewOrderRepository(db),
		Seat:    repository.NewSeatRepository(db),
		Wallet:  repository.NewWalletRepository(db),
		Card:    repository.NewCardRepository(db),
		Setting: repository.NewSettingRepository(db),
	}
	teleBot, err := bot.New(cfg, botRepos, svc, sealer, botAPI, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}
	notifier.target = teleBot

	// --- Routes ---
	router.Setup(e, db, cfg, svc, sealer, botAPI, logger, updateDeduper, teleBot.WebhookHandler())

	// --- Cron Scheduler ---
	cronRepos := &cronpkg.CronRepos{
		User:  repository.NewUserRepository(db),
		Order: repository.NewOrderRepository(db),
		Seat:  repository.NewSeatRepository(db),
		Utm:   repository.NewUtmRepository(db),
	}
	scheduler := cronpkg.New(cfg, cronRepos, svc, auditor, botAPI, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	go teleBot.Start()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	teleBot.Stop()

	ctx := scheduler.Stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// last chance for queued audit events
	auditor.Flush(context.Background())

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

func runDBBootstrap(logger *zap.Logger) error {
	dbCfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return err
	}
	db, err := config.NewDatabase(dbCfg)
	if err != nil {
		return err
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		return err
	}
	logger.Info("Schema migration and default seed completed")
	return nil
}
