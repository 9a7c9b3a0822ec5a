package service

import (
	"context"
	"errors"
	"fmt"

	"windreseller/internal/models"
)

// orderTransitions is the allowed status graph. Approved and rejected
// are terminal.
var orderTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusReceipt, models.OrderStatusApproved, models.OrderStatusRejected},
	models.OrderStatusReceipt: {models.OrderStatusApproved, models.OrderStatusRejected},
}

// ValidTransition reports whether an order may move from one status to
// another.
func ValidTransition(from, to string) bool {
	for _, t := range orderTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ApprovalResult carries everything the notification layer needs after
// a successful approval.
type ApprovalResult struct {
	Order      *models.Order
	Seat       *models.Seat
	User       *models.User
	Commission int64 // referral commission credited, 0 when none
}

// CreateOrder opens a pending order for a user.
func (s *Service) CreateOrder(ctx context.Context, userID uint, amount int64, currency, utmKeyword string) (*models.Order, error) {
	o := &models.Order{
		UserID:     userID,
		Amount:     amount,
		Currency:   currency,
		Status:     models.OrderStatusPending,
		UTMKeyword: utmKeyword,
	}
	err := s.store.Tx(ctx, func(tx Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &o.ID, "created")
	return o, nil
}

// SubmitReceipt moves a pending order to receipt and stores the
// proof-of-payment reference.
func (s *Service) SubmitReceipt(ctx context.Context, orderID uint, rcpt *models.Receipt) error {
	err := s.store.Tx(ctx, func(tx Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !ValidTransition(o.Status, models.OrderStatusReceipt) {
			return ErrInvalidTransition
		}
		o.Status = models.OrderStatusReceipt
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		rcpt.OrderID = o.ID
		return tx.CreateReceipt(ctx, rcpt)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, &orderID, "receipt_submitted")
	return nil
}

// Approve finalizes an order: one transaction locks the order, takes a
// slot from the fullest available seat, stamps approved_at, credits
// the referrer and bumps UTM counters. If no seat has capacity the
// transaction rolls back and the order is untouched.
//
// Competing approvals of the last free slot serialize on the seat row
// lock; exactly one wins, the rest get ErrAllocationFailed.
func (s *Service) Approve(ctx context.Context, orderID uint, set Settings) (*ApprovalResult, error) {
	var res ApprovalResult
	err := s.store.Tx(ctx, func(tx Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !ValidTransition(o.Status, models.OrderStatusApproved) {
			return ErrInvalidTransition
		}

		seat, err := tx.FindAvailableSeat(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrAllocationFailed
			}
			return err
		}
		seat.Sold++
		if seat.Sold > seat.MaxSlots {
			return ErrInvariantViolation
		}
		if err := tx.SaveSeat(ctx, seat); err != nil {
			return err
		}

		now := s.clock.Now()
		o.Status = models.OrderStatusApproved
		o.SeatID = &seat.ID
		o.ApprovedAt = &now
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}

		user, err := tx.GetUser(ctx, o.UserID)
		if err != nil {
			return err
		}

		// Referral commission. The terminal-state check above makes
		// this exactly-once: a retried approval fails before reaching
		// the wallet.
		var commission int64
		if user.Referrer != nil && set.ReferralPercent > 0 {
			commission = o.Amount * int64(set.ReferralPercent) / 100
			w, err := tx.GetWallet(ctx, *user.Referrer)
			if err != nil {
				return err
			}
			w.Balance += commission
			w.ReferralEarned += commission
			if err := tx.SaveWallet(ctx, w); err != nil {
				return err
			}
		}

		if o.UTMKeyword != "" {
			if err := tx.IncrementUtm(ctx, o.UTMKeyword, 0, 1, o.Amount); err != nil {
				return err
			}
		}

		res = ApprovalResult{Order: o, Seat: seat, User: user, Commission: commission}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &orderID, "approved")
	if res.Commission > 0 {
		s.audit.Record(ctx, &orderID, fmt.Sprintf("referral_credit:%d:user:%d", res.Commission, *res.User.Referrer))
	}
	return &res, nil
}

// Reject closes an order. If a seat slot was already allocated it is
// released in the same transaction, so inventory never drifts from the
// ledger.
func (s *Service) Reject(ctx context.Context, orderID uint, reason string) error {
	err := s.store.Tx(ctx, func(tx Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !ValidTransition(o.Status, models.OrderStatusRejected) {
			return ErrInvalidTransition
		}
		if o.SeatID != nil {
			seat, err := tx.GetSeat(ctx, *o.SeatID)
			if err != nil {
				return err
			}
			if seat.Sold <= 0 {
				return ErrInvariantViolation
			}
			seat.Sold--
			if err := tx.SaveSeat(ctx, seat); err != nil {
				return err
			}
		}
		o.Status = models.OrderStatusRejected
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		if err == ErrInvariantViolation {
			s.audit.Alert(fmt.Sprintf("reject: order %d references a seat with sold=0", orderID))
		}
		return err
	}
	s.audit.Record(ctx, &orderID, "rejected:"+reason)
	return nil
}

// DeleteOrder removes an order together with its receipt and log rows.
// The cascade is explicit here rather than a storage side effect; an
// allocated slot is released first.
func (s *Service) DeleteOrder(ctx context.Context, orderID uint) error {
	return s.store.Tx(ctx, func(tx Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == models.OrderStatusApproved && o.SeatID != nil {
			seat, err := tx.GetSeat(ctx, *o.SeatID)
			if err == nil && seat.Sold > 0 {
				seat.Sold--
				if err := tx.SaveSeat(ctx, seat); err != nil {
					return err
				}
			}
		}
		return tx.DeleteOrder(ctx, o.ID)
	})
}
