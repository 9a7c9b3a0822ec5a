package repository

import (
	"gorm.io/gorm"

	"windreseller/internal/models"
)

// SeatRepository handles seat inventory database operations.
type SeatRepository struct {
	db *gorm.DB
}

func NewSeatRepository(db *gorm.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// FindAll returns seats with pagination and search by email.
func (r *SeatRepository) FindAll(limit, page int, query string) ([]models.Seat, int64, error) {
	var seats []models.Seat
	var total int64

	db := r.db.Model(&models.Seat{})
	if query != "" {
		db = db.Where("email LIKE ?", "%"+query+"%")
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if err := db.Limit(limit).Offset(offset).Order("created_at DESC").Find(&seats).Error; err != nil {
		return nil, 0, err
	}
	return seats, total, nil
}

// FindByID returns a seat by primary key.
func (r *SeatRepository) FindByID(id uint) (*models.Seat, error) {
	var s models.Seat
	if err := r.db.Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new seat.
func (r *SeatRepository) Create(s *models.Seat) error {
	return r.db.Create(s).Error
}

// Update updates seat fields.
func (r *SeatRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Seat{}).Where("id = ?", id).Updates(updates).Error
}

// FindWithFreeSlots returns active seats that still have capacity,
// fullest first. Used by the CSV export.
func (r *SeatRepository) FindWithFreeSlots() ([]models.Seat, error) {
	var seats []models.Seat
	err := r.db.
		Where("status = ? AND sold < max_slots", models.SeatStatusActive).
		Order("sold DESC").
		Find(&seats).Error
	return seats, err
}

// CountActive returns the number of active seats.
func (r *SeatRepository) CountActive() (int64, error) {
	var n int64
	err := r.db.Model(&models.Seat{}).Where("status = ?", models.SeatStatusActive).Count(&n).Error
	return n, err
}

// FreeSlotTotal sums remaining capacity across active seats.
func (r *SeatRepository) FreeSlotTotal() (int64, error) {
	var free *int64
	err := r.db.Model(&models.Seat{}).
		Where("status = ?", models.SeatStatusActive).
		Select("SUM(max_slots - sold)").
		Scan(&free).Error
	if err != nil || free == nil {
		return 0, err
	}
	return *free, nil
}

// SoldTotal sums consumed slots across all seats.
func (r *SeatRepository) SoldTotal() (int64, error) {
	var sold *int64
	err := r.db.Model(&models.Seat{}).Select("SUM(sold)").Scan(&sold).Error
	if err != nil || sold == nil {
		return 0, err
	}
	return *sold, nil
}
