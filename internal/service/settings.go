package service

import (
	"time"

	"windreseller/internal/config"
)

// Settings is the configuration snapshot passed into each operation.
// Callers build it once per request from config plus the settings
// table; operations never reach for ambient globals.
type Settings struct {
	ReferralPercent  int
	TwofaMaxAttempts int
	TwofaCooldown    time.Duration
}

// SettingsFromConfig seeds a snapshot from the static config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ReferralPercent:  cfg.Shop.ReferralPercent,
		TwofaMaxAttempts: cfg.Twofa.MaxAttempts,
		TwofaCooldown:    cfg.Twofa.Cooldown,
	}
}
