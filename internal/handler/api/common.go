package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"windreseller/internal/config"
	"windreseller/internal/models"
	"windreseller/internal/repository"
	"windreseller/internal/service"
)

// Response helpers: every endpoint answers with the same envelope.
func successResponse(c echo.Context, msg string, obj interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: true,
		Msg:    msg,
		Obj:    obj,
	})
}

func errorResponse(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: false,
		Msg:    msg,
		Obj:    nil,
	})
}

func paginatedResponse(data interface{}, total int64, page, limit int) models.PaginatedResponse {
	return models.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		limit = 50
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}

// parseBodyAction extracts the "actions" field routing every API
// request within its resource group.
func parseBodyAction(c echo.Context) (string, map[string]interface{}, error) {
	body := make(map[string]interface{})
	if err := c.Bind(&body); err != nil {
		return "", nil, err
	}
	action, _ := body["actions"].(string)
	return action, body, nil
}

func getStringField(body map[string]interface{}, key string) string {
	if v, ok := body[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("%.0f", f)
		}
	}
	return ""
}

func getIntField(body map[string]interface{}, key string, defaultVal int) int {
	if v, ok := body[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case string:
			if i, err := strconv.Atoi(t); err == nil {
				return i
			}
		}
	}
	return defaultVal
}

func getUintField(body map[string]interface{}, key string) uint {
	return uint(getIntField(body, key, 0))
}

func getInt64Field(body map[string]interface{}, key string, defaultVal int64) int64 {
	if v, ok := body[key]; ok {
		switch t := v.(type) {
		case float64:
			return int64(t)
		case string:
			if i, err := strconv.ParseInt(t, 10, 64); err == nil {
				return i
			}
		}
	}
	return defaultVal
}

// Repos bundles the repositories the API handlers read from.
type Repos struct {
	User    *repository.UserRepository
	Seat    *repository.SeatRepository
	Order   *repository.OrderRepository
	Wallet  *repository.WalletRepository
	Card    *repository.CardRepository
	Setting *repository.SettingRepository
	Utm     *repository.UtmRepository
}

// settingsSnapshot builds the per-request configuration snapshot:
// static config with settings-table overrides applied.
func settingsSnapshot(cfg *config.Config, settings *repository.SettingRepository) service.Settings {
	set := service.SettingsFromConfig(cfg)
	if p := settings.GetInt64(repository.SettingReferralPercent, -1); p >= 0 && p <= 100 {
		set.ReferralPercent = int(p)
	}
	return set
}

// domainErrorMessage maps a typed domain failure to an operator-facing
// message.
func domainErrorMessage(err error) string {
	switch err {
	case service.ErrNotFound:
		return "Not found"
	case service.ErrInvalidTransition:
		return "Order is not in an approvable/rejectable state"
	case service.ErrAllocationFailed:
		return "No seat capacity available"
	case service.ErrCapacityExhausted:
		return "Seat is full"
	case service.ErrSeatInactive:
		return "Seat is inactive"
	case service.ErrRetryLimitExceeded:
		return "2FA retry limit exceeded"
	case service.ErrInvalidAmount:
		return "Invalid amount"
	case service.ErrInsufficientFunds:
		return "Insufficient funds"
	case service.ErrInvariantViolation:
		return "Inventory inconsistency detected, operators notified"
	}
	return "Internal error"
}
