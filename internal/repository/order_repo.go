package repository

import (
	"time"

	"gorm.io/gorm"

	"windreseller/internal/models"
)

// OrderRepository handles order ledger database operations. Status
// mutations go through the domain service; this repository only reads
// and reports.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// OrderRow joins an order with its buyer for list views.
type OrderRow struct {
	models.Order
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	TgID      int64  `json:"tg_id"`
}

// FindAll returns orders with pagination and an optional status filter.
func (r *OrderRepository) FindAll(limit, page int, status string) ([]OrderRow, int64, error) {
	var rows []OrderRow
	var total int64

	db := r.db.Model(&models.Order{})
	if status != "" && status != "all" {
		if !models.ValidOrderStatus(status) {
			return nil, 0, gorm.ErrRecordNotFound
		}
		db = db.Where("orders.status = ?", status)
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
		Select("orders.*, users.username, users.first_name, users.tg_id").
		Joins("JOIN users ON users.id = orders.user_id").
		Order("orders.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByID returns an order by primary key.
func (r *OrderRepository) FindByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// NewestPendingByUser returns the user's most recent pending order,
// the one a photographed receipt belongs to.
func (r *OrderRepository) NewestPendingByUser(userID uint) (*models.Order, error) {
	var o models.Order
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.OrderStatusPending).
		Order("created_at DESC").
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ApprovedByUser returns a user's approved orders with their seats.
func (r *OrderRepository) ApprovedByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.OrderStatusApproved).
		Order("approved_at DESC").
		Find(&orders).Error
	return orders, err
}

// FindReceipt returns the receipt attached to an order.
func (r *OrderRepository) FindReceipt(orderID uint) (*models.Receipt, error) {
	var rc models.Receipt
	if err := r.db.Where("order_id = ?", orderID).First(&rc).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

// SetReceiptChannelMsg records the approval-channel message that
// carries the forwarded receipt.
func (r *OrderRepository) SetReceiptChannelMsg(orderID uint, msgID int) error {
	return r.db.Model(&models.Receipt{}).
		Where("order_id = ?", orderID).
		Update("channel_msg_id", msgID).Error
}

// Logs returns the audit trail of one order, oldest first.
func (r *OrderRepository) Logs(orderID uint) ([]models.OrderLog, error) {
	var logs []models.OrderLog
	err := r.db.Where("order_id = ?", orderID).Order("ts ASC").Find(&logs).Error
	return logs, err
}

// CountByStatus counts orders per status ("" for all).
func (r *OrderRepository) CountByStatus(status string) (int64, error) {
	var n int64
	db := r.db.Model(&models.Order{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Count(&n).Error
	return n, err
}

// SumApproved totals the revenue of approved orders.
func (r *OrderRepository) SumApproved() (int64, error) {
	var sum *int64
	err := r.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusApproved).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}

// DailySales is one point of the 30-day sales chart.
type DailySales struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// SalesByDay groups approved orders per day since the cutoff.
func (r *OrderRepository) SalesByDay(since time.Time) ([]DailySales, error) {
	var rows []DailySales
	err := r.db.Model(&models.Order{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("status = ? AND created_at >= ?", models.OrderStatusApproved, since).
		Group("DATE(created_at)").
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

// FindStalePending returns pending orders created before the cutoff.
// The cron rejects them as expired.
func (r *OrderRepository) FindStalePending(before time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Where("status = ? AND created_at < ?", models.OrderStatusPending, before).
		Find(&orders).Error
	return orders, err
}

// ApprovedSince counts approvals after the cutoff, for the daily report.
func (r *OrderRepository) ApprovedSince(since time.Time) (int64, int64, error) {
	var n int64
	var sum *int64
	db := r.db.Model(&models.Order{}).
		Where("status = ? AND approved_at >= ?", models.OrderStatusApproved, since)
	if err := db.Count(&n).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Select("SUM(amount)").Scan(&sum).Error; err != nil {
		return n, 0, err
	}
	if sum == nil {
		return n, 0, nil
	}
	return n, *sum, nil
}
