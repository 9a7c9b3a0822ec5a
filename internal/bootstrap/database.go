package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"windreseller/internal/models"
	"windreseller/internal/repository"
)

// MigrateAndSeed ensures required tables exist and inserts baseline
// rows for the settings and cards tables.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := seedDefaults(db); err != nil {
		return fmt.Errorf("seed defaults failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Seat{},
		&models.Order{},
		&models.Receipt{},
		&models.Wallet{},
		&models.OrderLog{},
		&models.UtmStat{},
		&models.Card{},
		&models.Setting{},
		&models.AdminUser{},
	}
}

func seedDefaults(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensureDefaultSettings(tx); err != nil {
			return err
		}
		return ensureDefaultCard(tx)
	})
}

// defaultSettings are the seed values for a fresh install. Toggles use
// the "1"/"0" convention the bot and settings handler read.
func defaultSettings() map[string]string {
	return map[string]string{
		repository.SettingPrice:            "150000",
		repository.SettingUSDRate:          "70000",
		repository.SettingReferralPercent:  "10",
		repository.SettingForceJoinEnabled: "0",
		repository.SettingRequiredChannels: "",
	}
}

func ensureDefaultSettings(tx *gorm.DB) error {
	for key, val := range defaultSettings() {
		var count int64
		if err := tx.Model(&models.Setting{}).Where("`key` = ?", key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := tx.Create(&models.Setting{Key: key, Val: val}).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureDefaultCard(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&models.Card{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	row := models.Card{
		Title:      "کارت پیش‌فرض",
		CardNumber: "1234-5678-9012-3456",
		Active:     true,
	}
	return tx.Create(&row).Error
}
