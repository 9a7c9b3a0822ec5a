package repository

import (
	"gorm.io/gorm"

	"windreseller/internal/models"
)

// UtmRepository reads campaign attribution counters. Increments go
// through the domain service so they stay tied to order events.
type UtmRepository struct {
	db *gorm.DB
}

func NewUtmRepository(db *gorm.DB) *UtmRepository {
	return &UtmRepository{db: db}
}

// All returns every campaign row, most-started first.
func (r *UtmRepository) All() ([]models.UtmStat, error) {
	var stats []models.UtmStat
	err := r.db.Order("starts DESC").Find(&stats).Error
	return stats, err
}
