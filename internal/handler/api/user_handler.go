package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"windreseller/internal/pkg/telegram"
	"windreseller/internal/service"
)

// UserHandler exposes buyer accounts and their wallets to the admin
// panel.
type UserHandler struct {
	repos  *Repos
	svc    *service.Service
	botAPI *telegram.BotAPI
	logger *zap.Logger
}

func NewUserHandler(repos *Repos, svc *service.Service, botAPI *telegram.BotAPI, logger *zap.Logger) *UserHandler {
	return &UserHandler{repos: repos, svc: svc, botAPI: botAPI, logger: logger}
}

// Handle routes user API requests based on the "actions" field.
// POST /api/users
func (h *UserHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "Invalid request body")
	}

	switch action {
	case "users":
		return h.listUsers(c, body)
	case "user":
		return h.getUser(c, body)
	case "add_balance":
		return h.addBalance(c, body)
	case "withdrawal":
		return h.withdrawal(c, body)
	case "send_message":
		return h.sendMessage(c, body)
	default:
		return errorResponse(c, "Unknown action: "+action)
	}
}

func (h *UserHandler) listUsers(c echo.Context, body map[string]interface{}) error {
	limit := getIntField(body, "limit", 50)
	page := getIntField(body, "page", 1)
	q := getStringField(body, "q")

	users, total, err := h.repos.User.FindAll(limit, page, q)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		return errorResponse(c, "Failed to retrieve users")
	}
	return successResponse(c, "Successful", paginatedResponse(users, total, page, limit))
}

// getUser - action: "user" — profile plus wallet, orders, and referral
// stats in one response.
func (h *UserHandler) getUser(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "user_id")
	if id == 0 {
		return errorResponse(c, "user_id is required")
	}
	user, err := h.repos.User.FindByID(id)
	if err != nil {
		return errorResponse(c, "User not found")
	}
	wallet, err := h.repos.Wallet.GetOrCreate(id)
	if err != nil {
		h.logger.Error("Failed to load wallet", zap.Uint("user_id", id), zap.Error(err))
		return errorResponse(c, "Failed to load wallet")
	}
	orders, err := h.repos.Order.ApprovedByUser(id)
	if err != nil {
		return errorResponse(c, "Failed to load orders")
	}
	referred, _ := h.repos.User.CountReferredBy(id)

	return successResponse(c, "Successful", map[string]interface{}{
		"user":     user,
		"wallet":   wallet,
		"orders":   orders,
		"referred": referred,
	})
}

// addBalance - action: "add_balance" — manual wallet credit. kind is
// "balance" or "free_credit".
func (h *UserHandler) addBalance(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "user_id")
	amount := getInt64Field(body, "amount", 0)
	kind := getStringField(body, "kind")
	if kind == "" {
		kind = service.CreditBalance
	}
	if id == 0 || amount <= 0 {
		return errorResponse(c, "user_id and a positive amount are required")
	}
	if err := h.svc.Credit(c.Request().Context(), id, amount, kind); err != nil {
		return errorResponse(c, domainErrorMessage(err))
	}
	return successResponse(c, "Balance updated", nil)
}

// withdrawal - action: "withdrawal" — debit after a manual payout.
func (h *UserHandler) withdrawal(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "user_id")
	amount := getInt64Field(body, "amount", 0)
	if id == 0 || amount <= 0 {
		return errorResponse(c, "user_id and a positive amount are required")
	}
	if err := h.svc.Debit(c.Request().Context(), id, amount); err != nil {
		return errorResponse(c, domainErrorMessage(err))
	}
	return successResponse(c, "Withdrawal recorded", nil)
}

// sendMessage - action: "send_message" — direct Telegram message to a
// buyer from the panel.
func (h *UserHandler) sendMessage(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "user_id")
	text := getStringField(body, "text")
	if id == 0 || text == "" {
		return errorResponse(c, "user_id and text are required")
	}
	user, err := h.repos.User.FindByID(id)
	if err != nil {
		return errorResponse(c, "User not found")
	}
	if _, err := h.botAPI.SendMessage(user.TgID, text, nil); err != nil {
		h.logger.Warn("Failed to deliver admin message",
			zap.Int64("tg_id", user.TgID), zap.Error(err))
		return errorResponse(c, "Failed to deliver message (user may have blocked the bot)")
	}
	return successResponse(c, "Message sent", nil)
}
