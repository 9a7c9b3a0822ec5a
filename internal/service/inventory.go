package service

import (
	"context"
	"fmt"

	"windreseller/internal/models"
)

// AllocateSlot consumes one slot on a specific seat. Used by manual
// admin assignment; Approve allocates from the pool instead.
func (s *Service) AllocateSlot(ctx context.Context, seatID uint) error {
	return s.store.Tx(ctx, func(tx Store) error {
		seat, err := tx.GetSeat(ctx, seatID)
		if err != nil {
			return err
		}
		if seat.Status != models.SeatStatusActive {
			return ErrSeatInactive
		}
		if seat.Sold >= seat.MaxSlots {
			return ErrCapacityExhausted
		}
		seat.Sold++
		return tx.SaveSeat(ctx, seat)
	})
}

// ReleaseSlot returns one slot to a seat. A correct caller never
// drives sold below zero; if it would, the seat row is left untouched
// and the operator is alerted, since it means inventory and ledger
// disagreed earlier.
func (s *Service) ReleaseSlot(ctx context.Context, seatID uint) error {
	err := s.store.Tx(ctx, func(tx Store) error {
		seat, err := tx.GetSeat(ctx, seatID)
		if err != nil {
			return err
		}
		if seat.Sold <= 0 {
			return ErrInvariantViolation
		}
		seat.Sold--
		return tx.SaveSeat(ctx, seat)
	})
	if err == ErrInvariantViolation {
		s.audit.Alert(fmt.Sprintf("release_slot: seat %d sold counter already 0", seatID))
	}
	return err
}

// ToggleSeatStatus flips a seat between active and inactive. The sold
// counter is untouched: existing buyers keep their slots.
func (s *Service) ToggleSeatStatus(ctx context.Context, seatID uint, status string) error {
	if status != models.SeatStatusActive && status != models.SeatStatusInactive {
		return fmt.Errorf("unknown seat status %q", status)
	}
	return s.store.Tx(ctx, func(tx Store) error {
		seat, err := tx.GetSeat(ctx, seatID)
		if err != nil {
			return err
		}
		seat.Status = status
		return tx.SaveSeat(ctx, seat)
	})
}
