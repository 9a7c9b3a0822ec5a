package service

import "context"

// TrackStart bumps the starts counter for a campaign keyword. Called
// on /start with a utm payload; buys and amount are incremented inside
// Approve.
func (s *Service) TrackStart(ctx context.Context, keyword string) error {
	if keyword == "" {
		return nil
	}
	return s.store.Tx(ctx, func(tx Store) error {
		return tx.IncrementUtm(ctx, keyword, 1, 0, 0)
	})
}
