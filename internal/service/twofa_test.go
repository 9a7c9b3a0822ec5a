package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"windreseller/internal/models"
)

func newTwofaFixture(t *testing.T) (*Service, *memStore, *testClock, uint) {
	t.Helper()
	svc, store, _ := newTestService()
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc.clock = clock

	seedUser(store, 1, nil)
	seedSeat(store, 1, 0, 15, models.SeatStatusActive)
	order, err := svc.CreateOrder(context.Background(), 1, 150000, "IRT", "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := svc.Approve(context.Background(), order.ID, Settings{}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	return svc, store, clock, order.ID
}

func TestTwofaGuardWindow(t *testing.T) {
	svc, _, clock, orderID := newTwofaFixture(t)
	ctx := context.Background()
	set := Settings{TwofaMaxAttempts: 3, TwofaCooldown: 2 * time.Minute}

	// three requests inside the window succeed
	for i := 1; i <= 3; i++ {
		attempt, err := svc.CheckAndIncrement(ctx, orderID, set)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if attempt != i {
			t.Errorf("attempt number = %d, want %d", attempt, i)
		}
		clock.advance(10 * time.Second)
	}

	// the fourth is blocked
	if _, err := svc.CheckAndIncrement(ctx, orderID, set); !errors.Is(err, ErrRetryLimitExceeded) {
		t.Fatalf("fourth attempt err = %v, want ErrRetryLimitExceeded", err)
	}

	// once the cooldown elapses the window resets
	clock.advance(2 * time.Minute)
	attempt, err := svc.CheckAndIncrement(ctx, orderID, set)
	if err != nil {
		t.Fatalf("post-cooldown attempt: %v", err)
	}
	if attempt != 1 {
		t.Errorf("post-cooldown attempt number = %d, want 1 (fresh window)", attempt)
	}
}

func TestTwofaBlockedRequestDoesNotExtendWindow(t *testing.T) {
	svc, _, clock, orderID := newTwofaFixture(t)
	ctx := context.Background()
	set := Settings{TwofaMaxAttempts: 1, TwofaCooldown: time.Minute}

	if _, err := svc.CheckAndIncrement(ctx, orderID, set); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	clock.advance(30 * time.Second)
	if _, err := svc.CheckAndIncrement(ctx, orderID, set); !errors.Is(err, ErrRetryLimitExceeded) {
		t.Fatalf("blocked attempt err = %v, want ErrRetryLimitExceeded", err)
	}
	// the denial above must not have bumped twofa_last
	clock.advance(31 * time.Second)
	if _, err := svc.CheckAndIncrement(ctx, orderID, set); err != nil {
		t.Errorf("attempt after original cooldown = %v, want success", err)
	}
}

func TestTwofaDisabledGuardBypasses(t *testing.T) {
	svc, store, _, orderID := newTwofaFixture(t)
	ctx := context.Background()
	set := Settings{TwofaMaxAttempts: 1, TwofaCooldown: time.Hour}

	if _, err := svc.CheckAndIncrement(ctx, orderID, set); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if _, err := svc.CheckAndIncrement(ctx, orderID, set); !errors.Is(err, ErrRetryLimitExceeded) {
		t.Fatalf("guard should be active before override")
	}

	if err := svc.DisableTwofaGuard(ctx, orderID); err != nil {
		t.Fatalf("DisableTwofaGuard: %v", err)
	}
	countBefore := store.data.orders[orderID].TwofaCount
	for i := 0; i < 5; i++ {
		if _, err := svc.CheckAndIncrement(ctx, orderID, set); err != nil {
			t.Fatalf("bypassed attempt %d: %v", i, err)
		}
	}
	if store.data.orders[orderID].TwofaCount != countBefore {
		t.Error("disabled guard must stop counting attempts")
	}

	found := false
	for _, l := range store.data.logs {
		if l.OrderID != nil && *l.OrderID == orderID && l.Event == "twofa_guard_disabled" {
			found = true
		}
	}
	if !found {
		t.Error("override missing from order log")
	}
}

func TestTwofaConcurrentTaps(t *testing.T) {
	svc, store, _, orderID := newTwofaFixture(t)
	ctx := context.Background()
	set := Settings{TwofaMaxAttempts: 3, TwofaCooldown: time.Hour}

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := svc.CheckAndIncrement(ctx, orderID, set)
			done <- err
		}()
	}
	granted := 0
	for i := 0; i < 10; i++ {
		if err := <-done; err == nil {
			granted++
		}
	}
	if granted != 3 {
		t.Errorf("granted = %d, want exactly 3", granted)
	}
	if store.data.orders[orderID].TwofaCount != 3 {
		t.Errorf("twofa_count = %d, want 3 (no lost updates)", store.data.orders[orderID].TwofaCount)
	}
}
