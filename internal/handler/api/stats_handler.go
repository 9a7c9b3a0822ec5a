package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"windreseller/internal/models"
)

// StatsHandler aggregates dashboard numbers: sales, capacity, campaign
// counters.
type StatsHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewStatsHandler(repos *Repos, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{repos: repos, logger: logger}
}

// Handle routes stats API requests based on the "actions" field.
// POST /api/stats
func (h *StatsHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "Invalid request body")
	}

	switch action {
	case "stats":
		return h.overview(c)
	case "sales_chart":
		return h.salesChart(c, body)
	case "utm_stats":
		return h.utmStats(c)
	default:
		return errorResponse(c, "Unknown action: "+action)
	}
}

// overview - action: "stats" — one-shot dashboard snapshot.
func (h *StatsHandler) overview(c echo.Context) error {
	userCount, err := h.repos.User.Count()
	if err != nil {
		h.logger.Error("Failed to count users", zap.Error(err))
		return errorResponse(c, "Failed to compute stats")
	}

	pending, _ := h.repos.Order.CountByStatus(models.OrderStatusPending)
	receipt, _ := h.repos.Order.CountByStatus(models.OrderStatusReceipt)
	approved, _ := h.repos.Order.CountByStatus(models.OrderStatusApproved)
	rejected, _ := h.repos.Order.CountByStatus(models.OrderStatusRejected)
	revenue, _ := h.repos.Order.SumApproved()

	activeSeats, _ := h.repos.Seat.CountActive()
	freeSlots, _ := h.repos.Seat.FreeSlotTotal()
	soldSlots, _ := h.repos.Seat.SoldTotal()

	return successResponse(c, "Successful", map[string]interface{}{
		"users": userCount,
		"orders": map[string]int64{
			"pending":  pending,
			"receipt":  receipt,
			"approved": approved,
			"rejected": rejected,
		},
		"revenue": revenue,
		"seats": map[string]int64{
			"active":     activeSeats,
			"free_slots": freeSlots,
			"sold_slots": soldSlots,
		},
	})
}

// salesChart - action: "sales_chart" — approved sales per day for the
// last N days (default 30).
func (h *StatsHandler) salesChart(c echo.Context, body map[string]interface{}) error {
	days := getIntField(body, "days", 30)
	if days <= 0 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)
	rows, err := h.repos.Order.SalesByDay(since)
	if err != nil {
		h.logger.Error("Failed to build sales chart", zap.Error(err))
		return errorResponse(c, "Failed to build sales chart")
	}
	return successResponse(c, "Successful", rows)
}

// utmStats - action: "utm_stats" — per-keyword campaign counters.
func (h *StatsHandler) utmStats(c echo.Context) error {
	rows, err := h.repos.Utm.All()
	if err != nil {
		return errorResponse(c, "Failed to retrieve campaign stats")
	}
	return successResponse(c, "Successful", rows)
}
