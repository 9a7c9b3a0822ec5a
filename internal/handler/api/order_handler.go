package api

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"windreseller/internal/config"
	"windreseller/internal/pkg/secrets"
	"windreseller/internal/pkg/telegram"
	"windreseller/internal/pkg/utils"
	"windreseller/internal/service"
)

// OrderHandler handles order ledger API actions. All status mutations
// go through the domain service.
type OrderHandler struct {
	repos  *Repos
	svc    *service.Service
	cfg    *config.Config
	botAPI *telegram.BotAPI
	sealer *secrets.Sealer
	logger *zap.Logger
}

func NewOrderHandler(repos *Repos, svc *service.Service, cfg *config.Config, botAPI *telegram.BotAPI, sealer *secrets.Sealer, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{repos: repos, svc: svc, cfg: cfg, botAPI: botAPI, sealer: sealer, logger: logger}
}

// Handle routes order API requests based on the "actions" field.
// POST /api/orders
func (h *OrderHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "Invalid request body")
	}

	switch action {
	case "orders":
		return h.listOrders(c, body)
	case "order":
		return h.getOrder(c, body)
	case "approve_order":
		return h.approveOrder(c, body)
	case "reject_order":
		return h.rejectOrder(c, body)
	case "delete_order":
		return h.deleteOrder(c, body)
	case "disable_twofa":
		return h.disableTwofa(c, body)
	case "order_log":
		return h.orderLog(c, body)
	default:
		return errorResponse(c, "Unknown action: "+action)
	}
}

// listOrders - action: "orders"
func (h *OrderHandler) listOrders(c echo.Context, body map[string]interface{}) error {
	limit := getIntField(body, "limit", 50)
	page := getIntField(body, "page", 1)
	status := getStringField(body, "status")

	orders, total, err := h.repos.Order.FindAll(limit, page, status)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		return errorResponse(c, "Failed to retrieve orders")
	}
	return successResponse(c, "Successful", paginatedResponse(orders, total, page, limit))
}

// getOrder - action: "order"
func (h *OrderHandler) getOrder(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "order_id")
	if id == 0 {
		return errorResponse(c, "order_id is required")
	}
	order, err := h.repos.Order.FindByID(id)
	if err != nil {
		return errorResponse(c, "Order not found")
	}
	user, _ := h.repos.User.FindByID(order.UserID)
	receipt, _ := h.repos.Order.FindReceipt(id)
	logs, _ := h.repos.Order.Logs(id)

	return successResponse(c, "Successful", map[string]interface{}{
		"order":   order,
		"user":    user,
		"receipt": receipt,
		"log":     logs,
	})
}

// approveOrder - action: "approve_order"
func (h *OrderHandler) approveOrder(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "order_id")
	if id == 0 {
		return errorResponse(c, "order_id is required")
	}

	set := settingsSnapshot(h.cfg, h.repos.Setting)
	res, err := h.svc.Approve(c.Request().Context(), id, set)
	if err != nil {
		h.logger.Warn("Order approval failed", zap.Uint("order_id", id), zap.Error(err))
		return errorResponse(c, domainErrorMessage(err))
	}

	h.notifyBuyer(res)

	return successResponse(c, "Order approved", map[string]interface{}{
		"order":      res.Order,
		"seat_id":    res.Seat.ID,
		"commission": res.Commission,
	})
}

// notifyBuyer delivers the seat credentials to the buyer and a sell
// report to the report channel. Failures here are logged only: the
// approval is already committed.
func (h *OrderHandler) notifyBuyer(res *service.ApprovalResult) {
	password, err := h.sealer.Open(res.Seat.PassEnc)
	if err != nil {
		h.logger.Error("Failed to open seat password", zap.Uint("seat_id", res.Seat.ID), zap.Error(err))
		return
	}

	text := fmt.Sprintf(
		"✅ سفارش شما تایید شد\n\n👤 نام کاربری: %s\n🔑 رمز عبور: %s\n\nبرای دریافت کد 2FA از دکمه زیر استفاده کنید.",
		res.Seat.Email, password,
	)
	keyboard := map[string]interface{}{
		"inline_keyboard": [][]map[string]string{{{
			"text":          "📲 دریافت کد 2FA",
			"callback_data": fmt.Sprintf("code:%d", res.Order.ID),
		}}},
	}
	if _, err := h.botAPI.SendMessage(res.User.TgID, text, keyboard); err != nil {
		h.logger.Error("Failed to notify buyer", zap.Int64("tg_id", res.User.TgID), zap.Error(err))
	}

	if h.cfg.Bot.ReportChannel != 0 {
		report := fmt.Sprintf(
			"✅ گزارش فروش\n\nسفارش #%d برای @%s تایید شد\n💺 ظرفیت باقی‌مانده صندلی: %d\n💰 مبلغ: %s",
			res.Order.ID, res.User.Username, res.Seat.FreeSlots(),
			utils.FormatAmount(res.Order.Amount, res.Order.Currency),
		)
		_, _ = h.botAPI.SendMessage(h.cfg.Bot.ReportChannel, report, nil)
	}
}

// rejectOrder - action: "reject_order"
func (h *OrderHandler) rejectOrder(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "order_id")
	if id == 0 {
		return errorResponse(c, "order_id is required")
	}
	reason := getStringField(body, "reason")
	if reason == "" {
		reason = "admin"
	}

	order, err := h.repos.Order.FindByID(id)
	if err != nil {
		return errorResponse(c, "Order not found")
	}

	if err := h.svc.Reject(c.Request().Context(), id, reason); err != nil {
		h.logger.Warn("Order rejection failed", zap.Uint("order_id", id), zap.Error(err))
		return errorResponse(c, domainErrorMessage(err))
	}

	if user, err := h.repos.User.FindByID(order.UserID); err == nil {
		_, _ = h.botAPI.SendMessage(user.TgID,
			"❌ سفارش شما رد شد. در صورت ابهام با پشتیبانی تماس بگیرید.", nil)
	}

	return successResponse(c, "Order rejected", nil)
}

// deleteOrder - action: "delete_order"
func (h *OrderHandler) deleteOrder(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "order_id")
	if id == 0 {
		return errorResponse(c, "order_id is required")
	}
	if err := h.svc.DeleteOrder(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return errorResponse(c, "Order not found")
		}
		h.logger.Error("Failed to delete order", zap.Uint("order_id", id), zap.Error(err))
		return errorResponse(c, "Failed to delete order")
	}
	return successResponse(c, "Order deleted", nil)
}

// disableTwofa - action: "disable_twofa"
func (h *OrderHandler) disableTwofa(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "order_id")
	if id == 0 {
		return errorResponse(c, "order_id is required")
	}
	if err := h.svc.DisableTwofaGuard(c.Request().Context(), id); err != nil {
		return errorResponse(c, domainErrorMessage(err))
	}
	return successResponse(c, "2FA guard disabled", nil)
}

// orderLog - action: "order_log"
func (h *OrderHandler) orderLog(c echo.Context, body map[string]interface{}) error {
	id := getUintField(body, "order_id")
	if id == 0 {
		return errorResponse(c, "order_id is required")
	}
	logs, err := h.repos.Order.Logs(id)
	if err != nil {
		return errorResponse(c, "Failed to retrieve order log")
	}
	return successResponse(c, "Successful", logs)
}
