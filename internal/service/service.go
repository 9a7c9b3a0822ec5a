package service

import (
	"context"

	"go.uber.org/zap"
)

// Service implements the order/seat lifecycle: seat inventory, the
// order state machine, the 2FA attempt guard, wallet bookkeeping and
// UTM attribution. Both the bot handlers and the admin API call into
// it; it is the only writer of order and seat state.
type Service struct {
	store Store
	audit *Auditor
	clock Clock
	log   *zap.Logger
}

// New creates a Service. audit may not be nil; pass NewAuditor even
// when no operator channel is wired.
func New(store Store, audit *Auditor, logger *zap.Logger) *Service {
	return &Service{
		store: store,
		audit: audit,
		clock: realClock{},
		log:   logger,
	}
}

// LogEvent appends a free-form operator event, not tied to an order,
// to the audit trail.
func (s *Service) LogEvent(ctx context.Context, event string) {
	s.audit.Record(ctx, nil, event)
}
