package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"windreseller/internal/models"
	"windreseller/internal/service"
)

// GormStore implements service.Store on MySQL. Inside a transaction
// every Get runs SELECT ... FOR UPDATE, which is what serializes
// competing approvals on the same seat row.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) Tx(ctx context.Context, fn func(tx service.Store) error) error {
	if g.inTx {
		return fn(g)
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (g *GormStore) reader(ctx context.Context) *gorm.DB {
	db := g.db.WithContext(ctx)
	if g.inTx {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return service.ErrNotFound
	}
	return err
}

func (g *GormStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := g.reader(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &o, nil
}

func (g *GormStore) SaveOrder(ctx context.Context, o *models.Order) error {
	return g.db.WithContext(ctx).Save(o).Error
}

func (g *GormStore) DeleteOrder(ctx context.Context, id uint) error {
	db := g.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.Receipt{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.OrderLog{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Order{}).Error
}

func (g *GormStore) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	return g.db.WithContext(ctx).Create(r).Error
}

func (g *GormStore) GetSeat(ctx context.Context, id uint) (*models.Seat, error) {
	var s models.Seat
	if err := g.reader(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &s, nil
}

// FindAvailableSeat picks the fullest active seat with free capacity,
// so partially sold seats fill up before fresh ones are touched.
func (g *GormStore) FindAvailableSeat(ctx context.Context) (*models.Seat, error) {
	var s models.Seat
	err := g.reader(ctx).
		Where("status = ? AND sold < max_slots", models.SeatStatusActive).
		Order("sold DESC").
		First(&s).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &s, nil
}

func (g *GormStore) SaveSeat(ctx context.Context, s *models.Seat) error {
	return g.db.WithContext(ctx).Save(s).Error
}

func (g *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := g.reader(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &u, nil
}

func (g *GormStore) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := g.reader(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &w, nil
}

func (g *GormStore) SaveWallet(ctx context.Context, w *models.Wallet) error {
	return g.db.WithContext(ctx).Save(w).Error
}

func (g *GormStore) AppendLog(ctx context.Context, orderID *uint, event string) error {
	return g.db.WithContext(ctx).Create(&models.OrderLog{OrderID: orderID, Event: event}).Error
}

func (g *GormStore) IncrementUtm(ctx context.Context, keyword string, starts, buys, amount int64) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "keyword"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"starts": gorm.Expr("starts + ?", starts),
			"buys":   gorm.Expr("buys + ?", buys),
			"amount": gorm.Expr("amount + ?", amount),
		}),
	}).Create(&models.UtmStat{Keyword: keyword, Starts: starts, Buys: buys, Amount: amount}).Error
}
