package repository

import (
	"gorm.io/gorm"

	"windreseller/internal/models"
)

// UserRepository handles user database operations.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UserRow is a user with its order count, for the admin list view.
type UserRow struct {
	models.User
	OrdersCount int64 `json:"orders_count"`
}

// FindAll returns users with pagination, search and per-user order counts.
func (r *UserRepository) FindAll(limit, page int, query string) ([]UserRow, int64, error) {
	var rows []UserRow
	var total int64

	db := r.db.Model(&models.User{})
	if query != "" {
		search := "%" + query + "%"
		db = db.Where("username LIKE ? OR first_name LIKE ? OR tg_id LIKE ?", search, search, search)
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

	err := db.
		Select("users.*, (SELECT COUNT(*) FROM orders WHERE orders.user_id = users.id) AS orders_count").
		Order("joined_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByID returns a user by primary key.
func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByTgID returns a user by Telegram chat ID.
func (r *UserRepository) FindByTgID(tgID int64) (*models.User, error) {
	var u models.User
	if err := r.db.Where("tg_id = ?", tgID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateWithWallet creates a user and its empty wallet in one
// transaction. Called on first bot contact.
func (r *UserRepository) CreateWithWallet(u *models.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return tx.Create(&models.Wallet{UserID: u.ID}).Error
	})
}

// SetReferrer links a referrer once. A user never refers themselves
// and an existing referrer is never overwritten.
func (r *UserRepository) SetReferrer(userID, referrerID uint) error {
	if userID == referrerID {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("id = ? AND referrer IS NULL", userID).
		Update("referrer", referrerID).Error
}

// IsAdmin checks the admin flag for a Telegram chat ID.
func (r *UserRepository) IsAdmin(tgID int64) bool {
	var u models.User
	if err := r.db.Select("is_admin").Where("tg_id = ?", tgID).First(&u).Error; err != nil {
		return false
	}
	return u.IsAdmin
}

// AllTgIDs returns every user's Telegram ID, for broadcasts.
func (r *UserRepository) AllTgIDs() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&models.User{}).Pluck("tg_id", &ids).Error
	return ids, err
}

// Count returns the total user count.
func (r *UserRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Count(&n).Error
	return n, err
}

// CountReferredBy returns how many users a referrer brought in.
func (r *UserRepository) CountReferredBy(referrerID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Where("referrer = ?", referrerID).Count(&n).Error
	return n, err
}
