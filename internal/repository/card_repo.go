package repository

import (
	"gorm.io/gorm"

	"windreseller/internal/models"
)

// CardRepository handles payment card database operations.
type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

// FindActive returns the card currently shown to buyers.
func (r *CardRepository) FindActive() (*models.Card, error) {
	var c models.Card
	if err := r.db.Where("active = ?", true).Order("updated_at DESC").First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindAll returns all cards, newest first.
func (r *CardRepository) FindAll() ([]models.Card, error) {
	var cards []models.Card
	err := r.db.Order("created_at DESC").Find(&cards).Error
	return cards, err
}

func (r *CardRepository) FindByID(id uint) (*models.Card, error) {
	var c models.Card
	if err := r.db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CardRepository) Create(c *models.Card) error {
	return r.db.Create(c).Error
}

func (r *CardRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Card{}).Where("id = ?", id).Updates(updates).Error
}

func (r *CardRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.Card{}).Error
}
