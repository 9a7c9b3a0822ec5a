package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"windreseller/internal/config"
	"windreseller/internal/handler/api"
	"windreseller/internal/middleware"
	"windreseller/internal/pkg/secrets"
	"windreseller/internal/pkg/telegram"
	"windreseller/internal/repository"
	"windreseller/internal/service"

	"gorm.io/gorm"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	db *gorm.DB,
	cfg *config.Config,
	svc *service.Service,
	sealer *secrets.Sealer,
	botAPI *telegram.BotAPI,
	logger *zap.Logger,
	updateDeduper middleware.UpdateDeduper,
	webhookHandler http.Handler,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Repositories
	repos := &api.Repos{
		User:    repository.NewUserRepository(db),
		Seat:    repository.NewSeatRepository(db),
		Order:   repository.NewOrderRepository(db),
		Wallet:  repository.NewWalletRepository(db),
		Card:    repository.NewCardRepository(db),
		Setting: repository.NewSettingRepository(db),
		Utm:     repository.NewUtmRepository(db),
	}

	// Handlers
	orderHandler := api.NewOrderHandler(repos, svc, cfg, botAPI, sealer, logger)
	seatHandler := api.NewSeatHandler(repos, svc, sealer, logger)
	userHandler := api.NewUserHandler(repos, svc, botAPI, logger)
	cardHandler := api.NewCardHandler(repos, logger)
	statsHandler := api.NewStatsHandler(repos, logger)
	settingsHandler := api.NewSettingsHandler(repos, logger)

	// API group with key auth
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.APIAuth(cfg.API.Key))

	// All endpoints accept POST with an "actions" field; GET is kept
	// for list actions issued from the panel's address bar.
	apiGroup.POST("/orders", orderHandler.Handle)
	apiGroup.GET("/orders", orderHandler.Handle)
	apiGroup.POST("/seats", seatHandler.Handle)
	apiGroup.GET("/seats", seatHandler.Handle)
	apiGroup.POST("/users", userHandler.Handle)
	apiGroup.GET("/users", userHandler.Handle)
	apiGroup.POST("/cards", cardHandler.Handle)
	apiGroup.GET("/cards", cardHandler.Handle)
	apiGroup.POST("/stats", statsHandler.Handle)
	apiGroup.GET("/stats", statsHandler.Handle)
	apiGroup.POST("/settings", settingsHandler.Handle)
	apiGroup.GET("/settings", settingsHandler.Handle)

	// Telegram webhook (protected by IP check + deduplication)
	if webhookHandler != nil {
		botWebhookGroup := e.Group("/bot")
		botWebhookGroup.Use(middleware.TelegramIPCheck())
		botWebhookGroup.Use(middleware.TelegramUpdateDedup(updateDeduper))
		botWebhookGroup.POST("/webhook", echo.WrapHandler(webhookHandler))
	} else {
		logger.Info("Telegram webhook routes disabled (bot update mode is polling)")
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
