package bootstrap

import (
	"testing"

	"windreseller/internal/repository"
)

func TestDefaultSettingsToggleConvention(t *testing.T) {
	defaults := defaultSettings()

	// toggles must use "1"/"0"; the bot treats anything but "1" as off
	if got := defaults[repository.SettingForceJoinEnabled]; got != "0" {
		t.Errorf("force_join_enabled seed = %q, want \"0\"", got)
	}

	for _, key := range []string{
		repository.SettingPrice,
		repository.SettingUSDRate,
		repository.SettingReferralPercent,
		repository.SettingForceJoinEnabled,
		repository.SettingRequiredChannels,
	} {
		if _, ok := defaults[key]; !ok {
			t.Errorf("seed missing key %q", key)
		}
	}
}
