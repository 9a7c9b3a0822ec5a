package service

import (
	"context"

	"windreseller/internal/models"
)

// Store is the persistence boundary of the domain service. The GORM
// implementation lives in internal/repository; tests use an in-memory
// fake.
//
// Inside Tx every Get acquires a row lock, so a transaction holding an
// order, seat or wallet serializes against concurrent transactions on
// the same row. That lock is what keeps seats from overselling.
type Store interface {
	// Tx runs fn in a transaction; fn receives a Store bound to it.
	// Any error rolls the whole unit back.
	Tx(ctx context.Context, fn func(tx Store) error) error

	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	SaveOrder(ctx context.Context, o *models.Order) error
	DeleteOrder(ctx context.Context, id uint) error // cascades receipt + log rows
	CreateReceipt(ctx context.Context, r *models.Receipt) error

	GetSeat(ctx context.Context, id uint) (*models.Seat, error)
	// FindAvailableSeat returns the fullest active seat that still has
	// a free slot, locked. ErrNotFound when the pool is exhausted.
	FindAvailableSeat(ctx context.Context) (*models.Seat, error)
	SaveSeat(ctx context.Context, s *models.Seat) error

	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	SaveWallet(ctx context.Context, w *models.Wallet) error

	AppendLog(ctx context.Context, orderID *uint, event string) error
	IncrementUtm(ctx context.Context, keyword string, starts, buys, amount int64) error
}
