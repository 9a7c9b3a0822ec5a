package service

import (
	"context"
	"errors"
	"testing"

	"windreseller/internal/models"
)

func TestCreditKinds(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)

	if err := svc.Credit(ctx, 1, 5000, CreditBalance); err != nil {
		t.Fatalf("Credit balance: %v", err)
	}
	if err := svc.Credit(ctx, 1, 2000, CreditFreeCredit); err != nil {
		t.Fatalf("Credit free_credit: %v", err)
	}
	w := store.data.wallets[1]
	if w.Balance != 5000 || w.FreeCredit != 2000 {
		t.Errorf("wallet = %+v, want balance 5000, free_credit 2000", w)
	}

	if err := svc.Credit(ctx, 1, 100, "bonus"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("unknown kind err = %v, want ErrInvalidAmount", err)
	}
	if err := svc.Credit(ctx, 1, -1, CreditBalance); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount err = %v, want ErrInvalidAmount", err)
	}
}

func TestDebit(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)
	store.data.wallets[1] = models.Wallet{ID: 1, UserID: 1, Balance: 3000}

	if err := svc.Debit(ctx, 1, 2000); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if got := store.data.wallets[1].Balance; got != 1000 {
		t.Errorf("balance = %d, want 1000", got)
	}
	if err := svc.Debit(ctx, 1, 1001); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("overdraft err = %v, want ErrInsufficientFunds", err)
	}
	if got := store.data.wallets[1].Balance; got != 1000 {
		t.Errorf("balance after failed debit = %d, want 1000 (rolled back)", got)
	}
}

func TestInventorySlots(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()
	seedSeat(store, 1, 14, 15, models.SeatStatusActive)
	seedSeat(store, 2, 0, 15, models.SeatStatusInactive)

	if err := svc.AllocateSlot(ctx, 1); err != nil {
		t.Fatalf("AllocateSlot: %v", err)
	}
	if err := svc.AllocateSlot(ctx, 1); !errors.Is(err, ErrCapacityExhausted) {
		t.Errorf("full seat err = %v, want ErrCapacityExhausted", err)
	}
	if err := svc.AllocateSlot(ctx, 2); !errors.Is(err, ErrSeatInactive) {
		t.Errorf("inactive seat err = %v, want ErrSeatInactive", err)
	}

	if err := svc.ReleaseSlot(ctx, 1); err != nil {
		t.Fatalf("ReleaseSlot: %v", err)
	}
	if err := svc.ReleaseSlot(ctx, 2); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("release on sold=0 err = %v, want ErrInvariantViolation", err)
	}
	if notifier.count() == 0 {
		t.Error("invariant violation must alert the operator")
	}
}

func TestToggleSeatStatus(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedSeat(store, 1, 3, 15, models.SeatStatusActive)

	if err := svc.ToggleSeatStatus(ctx, 1, models.SeatStatusInactive); err != nil {
		t.Fatalf("ToggleSeatStatus: %v", err)
	}
	s := store.data.seats[1]
	if s.Status != models.SeatStatusInactive {
		t.Errorf("status = %q, want inactive", s.Status)
	}
	if s.Sold != 3 {
		t.Errorf("sold changed on toggle: %d, want 3", s.Sold)
	}
	if err := svc.ToggleSeatStatus(ctx, 1, "paused"); err == nil {
		t.Error("unknown status must be rejected")
	}
}
