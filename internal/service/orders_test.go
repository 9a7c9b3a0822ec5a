package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"windreseller/internal/models"
)

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusReceipt, true},
		{models.OrderStatusPending, models.OrderStatusApproved, true},
		{models.OrderStatusPending, models.OrderStatusRejected, true},
		{models.OrderStatusReceipt, models.OrderStatusApproved, true},
		{models.OrderStatusReceipt, models.OrderStatusRejected, true},
		{models.OrderStatusApproved, models.OrderStatusRejected, false},
		{models.OrderStatusApproved, models.OrderStatusApproved, false},
		{models.OrderStatusRejected, models.OrderStatusApproved, false},
		{models.OrderStatusRejected, models.OrderStatusPending, false},
		{models.OrderStatusReceipt, models.OrderStatusPending, false},
		{"bogus", models.OrderStatusApproved, false},
	}
	for _, tt := range tests {
		if got := ValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCreateOrderAndSubmitReceipt(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)

	order, err := svc.CreateOrder(ctx, 1, 150000, "IRT", "summer")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != models.OrderStatusPending {
		t.Fatalf("new order status = %q, want pending", order.Status)
	}

	rcpt := &models.Receipt{TgFileID: "file123", Tracking: "trk"}
	if err := svc.SubmitReceipt(ctx, order.ID, rcpt); err != nil {
		t.Fatalf("SubmitReceipt: %v", err)
	}
	got := store.data.orders[order.ID]
	if got.Status != models.OrderStatusReceipt {
		t.Errorf("status after receipt = %q, want receipt", got.Status)
	}
	if _, ok := store.data.receipts[order.ID]; !ok {
		t.Error("receipt row was not created")
	}

	// second receipt on the same order is rejected
	if err := svc.SubmitReceipt(ctx, order.ID, rcpt); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second SubmitReceipt err = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveAllocatesFullestSeat(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)
	seedSeat(store, 1, 2, 15, models.SeatStatusActive)
	seedSeat(store, 2, 10, 15, models.SeatStatusActive)
	seedSeat(store, 3, 15, 15, models.SeatStatusActive) // full
	seedSeat(store, 4, 14, 15, models.SeatStatusInactive)

	order, _ := svc.CreateOrder(ctx, 1, 150000, "IRT", "")
	if err := svc.SubmitReceipt(ctx, order.ID, &models.Receipt{}); err != nil {
		t.Fatalf("SubmitReceipt: %v", err)
	}

	res, err := svc.Approve(ctx, order.ID, Settings{})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.Seat.ID != 2 {
		t.Errorf("allocated seat %d, want 2 (fullest with capacity)", res.Seat.ID)
	}
	if store.data.seats[2].Sold != 11 {
		t.Errorf("seat 2 sold = %d, want 11", store.data.seats[2].Sold)
	}
	if res.Order.ApprovedAt == nil {
		t.Error("approved order has no approved_at timestamp")
	}
	if res.Order.SeatID == nil || *res.Order.SeatID != 2 {
		t.Error("approved order does not reference the allocated seat")
	}
}

func TestApproveFailsWhenPoolExhausted(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)
	seedSeat(store, 1, 15, 15, models.SeatStatusActive)

	order, _ := svc.CreateOrder(ctx, 1, 150000, "IRT", "")
	if _, err := svc.Approve(ctx, order.ID, Settings{}); !errors.Is(err, ErrAllocationFailed) {
		t.Fatalf("Approve err = %v, want ErrAllocationFailed", err)
	}
	// nothing moved
	if got := store.data.orders[order.ID]; got.Status != models.OrderStatusPending {
		t.Errorf("order status after failed approve = %q, want pending", got.Status)
	}
}

func TestApproveIsTerminalExactlyOnce(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	referrerID := uint(9)
	seedUser(store, 9, nil)
	seedUser(store, 1, &referrerID)
	seedSeat(store, 1, 0, 15, models.SeatStatusActive)

	order, _ := svc.CreateOrder(ctx, 1, 100000, "IRT", "")
	res, err := svc.Approve(ctx, order.ID, Settings{ReferralPercent: 10})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.Commission != 10000 {
		t.Fatalf("commission = %d, want 10000", res.Commission)
	}
	w := store.data.wallets[9]
	if w.Balance != 10000 || w.ReferralEarned != 10000 {
		t.Fatalf("referrer wallet = %+v, want balance and referral_earned 10000", w)
	}

	// retried approval must not credit again
	if _, err := svc.Approve(ctx, order.ID, Settings{ReferralPercent: 10}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Approve err = %v, want ErrInvalidTransition", err)
	}
	if w := store.data.wallets[9]; w.Balance != 10000 {
		t.Errorf("referrer wallet after retry = %d, want 10000", w.Balance)
	}
	if store.data.seats[1].Sold != 1 {
		t.Errorf("seat sold after retry = %d, want 1", store.data.seats[1].Sold)
	}
}

func TestApproveAttributesUtm(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)
	seedSeat(store, 1, 0, 15, models.SeatStatusActive)

	if err := svc.TrackStart(ctx, "insta"); err != nil {
		t.Fatalf("TrackStart: %v", err)
	}
	order, _ := svc.CreateOrder(ctx, 1, 150000, "IRT", "insta")
	if _, err := svc.Approve(ctx, order.ID, Settings{}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	u := store.data.utm["insta"]
	if u.Starts != 1 || u.Buys != 1 || u.Amount != 150000 {
		t.Errorf("utm counters = %+v, want starts 1, buys 1, amount 150000", u)
	}
}

func TestRejectReleasesAllocatedSlot(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)
	seedSeat(store, 1, 0, 1, models.SeatStatusActive)

	order, _ := svc.CreateOrder(ctx, 1, 150000, "IRT", "")
	_ = svc.SubmitReceipt(ctx, order.ID, &models.Receipt{})

	// simulate an order that got a slot but is being rolled back by an
	// operator: set seat directly as Approve would, then reject
	seatID := uint(1)
	o := store.data.orders[order.ID]
	o.SeatID = &seatID
	store.data.orders[order.ID] = o
	s := store.data.seats[1]
	s.Sold = 1
	store.data.seats[1] = s

	if err := svc.Reject(ctx, order.ID, "fraud"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if store.data.seats[1].Sold != 0 {
		t.Errorf("seat sold after reject = %d, want 0", store.data.seats[1].Sold)
	}
	if store.data.orders[order.ID].Status != models.OrderStatusRejected {
		t.Error("order not rejected")
	}

	found := false
	for _, l := range store.data.logs {
		if l.OrderID != nil && *l.OrderID == order.ID && l.Event == "rejected:fraud" {
			found = true
		}
	}
	if !found {
		t.Error("reject reason missing from order log")
	}
}

func TestRejectTerminalOrderFails(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)
	seedSeat(store, 1, 0, 15, models.SeatStatusActive)

	order, _ := svc.CreateOrder(ctx, 1, 150000, "IRT", "")
	if _, err := svc.Approve(ctx, order.ID, Settings{}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := svc.Reject(ctx, order.ID, "late"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Reject on approved order err = %v, want ErrInvalidTransition", err)
	}
}

func TestConcurrentApprovalsLastSlot(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedSeat(store, 1, 14, 15, models.SeatStatusActive) // one slot left

	const n = 8
	orderIDs := make([]uint, n)
	for i := 0; i < n; i++ {
		id := uint(i + 1)
		seedUser(store, id, nil)
		o, err := svc.CreateOrder(ctx, id, 150000, "IRT", "")
		if err != nil {
			t.Fatalf("CreateOrder %d: %v", i, err)
		}
		orderIDs[i] = o.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Approve(ctx, orderIDs[i], Settings{})
		}(i)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAllocationFailed):
			losses++
		default:
			t.Errorf("unexpected approval error: %v", err)
		}
	}
	if wins != 1 || losses != n-1 {
		t.Errorf("wins = %d, losses = %d; want exactly 1 winner", wins, losses)
	}
	if store.data.seats[1].Sold != 15 {
		t.Errorf("seat sold = %d, want 15 (never oversold)", store.data.seats[1].Sold)
	}
}

func TestDeleteOrderCascadesAndReleases(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)
	seedSeat(store, 1, 0, 15, models.SeatStatusActive)

	order, _ := svc.CreateOrder(ctx, 1, 150000, "IRT", "")
	_ = svc.SubmitReceipt(ctx, order.ID, &models.Receipt{TgFileID: "f"})
	if _, err := svc.Approve(ctx, order.ID, Settings{}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if err := svc.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, ok := store.data.orders[order.ID]; ok {
		t.Error("order still present after delete")
	}
	if _, ok := store.data.receipts[order.ID]; ok {
		t.Error("receipt survived the delete cascade")
	}
	for _, l := range store.data.logs {
		if l.OrderID != nil && *l.OrderID == order.ID {
			t.Errorf("log row survived the delete cascade: %q", l.Event)
		}
	}
	if store.data.seats[1].Sold != 0 {
		t.Errorf("seat sold after delete = %d, want 0 (slot released)", store.data.seats[1].Sold)
	}
}

func TestAuditTrailOrder(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)
	seedSeat(store, 1, 0, 15, models.SeatStatusActive)

	order, _ := svc.CreateOrder(ctx, 1, 150000, "IRT", "")
	_ = svc.SubmitReceipt(ctx, order.ID, &models.Receipt{})
	if _, err := svc.Approve(ctx, order.ID, Settings{}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	var events []string
	for _, l := range store.data.logs {
		if l.OrderID != nil && *l.OrderID == order.ID {
			events = append(events, l.Event)
		}
	}
	want := []string{"created", "receipt_submitted", "approved"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestAuditFailureQueuesAndAlerts(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()
	seedUser(store, 1, nil)

	store.failAppendLog = true
	order, err := svc.CreateOrder(ctx, 1, 150000, "IRT", "")
	if err != nil {
		t.Fatalf("CreateOrder must succeed despite audit failure: %v", err)
	}
	if svc.audit.PendingCount() != 1 {
		t.Fatalf("pending audit entries = %d, want 1", svc.audit.PendingCount())
	}
	if notifier.count() != 1 {
		t.Errorf("operator alerts = %d, want 1", notifier.count())
	}

	store.failAppendLog = false
	svc.audit.Flush(ctx)
	if svc.audit.PendingCount() != 0 {
		t.Errorf("pending after flush = %d, want 0", svc.audit.PendingCount())
	}
	found := false
	for _, l := range store.data.logs {
		if l.OrderID != nil && *l.OrderID == order.ID && strings.Contains(l.Event, "created") {
			found = true
		}
	}
	if !found {
		t.Error("queued event not persisted by flush")
	}
}

func TestLogEventRecordsFreeFormEntry(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	svc.LogEvent(ctx, "broadcast:sent:10:failed:0")

	if len(store.data.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(store.data.logs))
	}
	entry := store.data.logs[0]
	if entry.OrderID != nil {
		t.Errorf("OrderID = %v, want nil for a free-form event", *entry.OrderID)
	}
	if entry.Event != "broadcast:sent:10:failed:0" {
		t.Errorf("Event = %q", entry.Event)
	}
}
