package api

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"windreseller/internal/repository"
)

// SettingsHandler reads and writes the key-value settings table.
type SettingsHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewSettingsHandler(repos *Repos, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{repos: repos, logger: logger}
}

// knownSettings limits writes to keys the rest of the system actually
// reads.
var knownSettings = map[string]bool{
	repository.SettingPrice:            true,
	repository.SettingUSDRate:          true,
	repository.SettingReferralPercent:  true,
	repository.SettingForceJoinEnabled: true,
	repository.SettingRequiredChannels: true,
}

// Handle routes settings API requests based on the "actions" field.
// POST /api/settings
func (h *SettingsHandler) Handle(c echo.Context) error {
	action, body, err := parseBodyAction(c)
	if err != nil {
		return errorResponse(c, "Invalid request body")
	}

	switch action {
	case "settings":
		return h.listSettings(c)
	case "set_setting":
		return h.setSetting(c, body)
	default:
		return errorResponse(c, "Unknown action: "+action)
	}
}

func (h *SettingsHandler) listSettings(c echo.Context) error {
	settings, err := h.repos.Setting.All()
	if err != nil {
		h.logger.Error("Failed to list settings", zap.Error(err))
		return errorResponse(c, "Failed to retrieve settings")
	}
	return successResponse(c, "Successful", settings)
}

func (h *SettingsHandler) setSetting(c echo.Context, body map[string]interface{}) error {
	key := getStringField(body, "key")
	val := getStringField(body, "val")
	if key == "" {
		return errorResponse(c, "key is required")
	}
	if !knownSettings[key] {
		return errorResponse(c, "Unknown setting key: "+key)
	}
	if key == repository.SettingReferralPercent {
		p, err := strconv.Atoi(val)
		if err != nil || p < 0 || p > 100 {
			return errorResponse(c, "referral_percent must be between 0 and 100")
		}
	}
	if err := h.repos.Setting.Set(key, val); err != nil {
		h.logger.Error("Failed to save setting", zap.String("key", key), zap.Error(err))
		return errorResponse(c, "Failed to save setting")
	}
	return successResponse(c, "Setting saved", nil)
}
