package service

import (
	"context"
)

// CheckAndIncrement gates a 2FA code request for an order. Within the
// cooldown window at most MaxAttempts requests succeed; once the
// window has elapsed the counter starts over. The read-increment-write
// runs under the order row lock, so concurrent taps on the same button
// cannot lose updates.
//
// A disabled guard (admin override) always passes and stops counting.
// Returns the attempt number just consumed.
func (s *Service) CheckAndIncrement(ctx context.Context, orderID uint, set Settings) (int, error) {
	var attempt int
	err := s.store.Tx(ctx, func(tx Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.TwofaDisabled {
			attempt = o.TwofaCount
			return nil
		}

		now := s.clock.Now()
		if o.TwofaCount >= set.TwofaMaxAttempts {
			if o.TwofaLast != nil && now.Sub(*o.TwofaLast) < set.TwofaCooldown {
				return ErrRetryLimitExceeded
			}
			// Cooldown elapsed: the window resets.
			o.TwofaCount = 0
		}
		o.TwofaCount++
		o.TwofaLast = &now
		attempt = o.TwofaCount
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return 0, err
	}
	return attempt, nil
}

// DisableTwofaGuard permanently bypasses the attempt guard for one
// order. Administrative override.
func (s *Service) DisableTwofaGuard(ctx context.Context, orderID uint) error {
	err := s.store.Tx(ctx, func(tx Store) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		o.TwofaDisabled = true
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, &orderID, "twofa_guard_disabled")
	return nil
}
