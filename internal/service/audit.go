package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"windreseller/internal/models"
)

// Notifier delivers text to the operator channel. The bot provides the
// real implementation.
type Notifier interface {
	NotifyOperator(text string)
}

// Auditor writes the append-only order_log trail. Writes are
// best-effort: a failure never propagates to the business operation
// that triggered it. Failed entries queue in memory and are retried by
// the cron flush; each failure also alerts the operator.
type Auditor struct {
	store    Store
	notifier Notifier
	log      *zap.Logger

	mu      sync.Mutex
	pending []models.OrderLog
}

func NewAuditor(store Store, notifier Notifier, logger *zap.Logger) *Auditor {
	return &Auditor{store: store, notifier: notifier, log: logger}
}

// Record appends an event to the order trail. orderID may be nil for
// events not tied to an order.
func (a *Auditor) Record(ctx context.Context, orderID *uint, event string) {
	if err := a.store.AppendLog(ctx, orderID, event); err != nil {
		a.log.Error("order_log write failed, queued for retry",
			zap.Error(err), zap.String("event", event))
		a.mu.Lock()
		a.pending = append(a.pending, models.OrderLog{OrderID: orderID, Event: event})
		a.mu.Unlock()
		a.Alert("order_log write failed: " + event)
	}
}

// Flush retries queued entries. Entries that fail again stay queued.
func (a *Auditor) Flush(ctx context.Context) {
	a.mu.Lock()
	queued := a.pending
	a.pending = nil
	a.mu.Unlock()

	var remaining []models.OrderLog
	for _, entry := range queued {
		if err := a.store.AppendLog(ctx, entry.OrderID, entry.Event); err != nil {
			remaining = append(remaining, entry)
		}
	}
	if len(remaining) > 0 {
		a.mu.Lock()
		a.pending = append(remaining, a.pending...)
		a.mu.Unlock()
		a.log.Warn("order_log retry flush incomplete", zap.Int("remaining", len(remaining)))
	}
}

// PendingCount reports entries awaiting retry.
func (a *Auditor) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Alert pushes a message to the operator channel, when one is wired.
func (a *Auditor) Alert(text string) {
	if a.notifier != nil {
		a.notifier.NotifyOperator(text)
	}
}
