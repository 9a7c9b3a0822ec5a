package repository

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"windreseller/internal/models"
)

// Setting keys used across the codebase.
const (
	SettingPrice            = "price"
	SettingUSDRate          = "usd_rate"
	SettingReferralPercent  = "referral_percent"
	SettingForceJoinEnabled = "force_join_enabled"
	SettingRequiredChannels = "required_channels"
)

// SettingRepository handles the key-value settings table.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns a setting value, or def when unset.
func (r *SettingRepository) Get(key, def string) string {
	var s models.Setting
	err := r.db.Where("`key` = ?", key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || err != nil {
		return def
	}
	return s.Val
}

// GetInt64 returns a numeric setting, or def when unset or malformed.
func (r *SettingRepository) GetInt64(key string, def int64) int64 {
	raw := r.Get(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// Set upserts a setting value.
func (r *SettingRepository) Set(key, val string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"val"}),
	}).Create(&models.Setting{Key: key, Val: val}).Error
}

// All returns every setting row.
func (r *SettingRepository) All() ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.Order("`key` ASC").Find(&settings).Error
	return settings, err
}
