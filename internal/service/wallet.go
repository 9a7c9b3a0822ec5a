package service

import (
	"context"
	"fmt"
)

// Wallet credit kinds.
const (
	CreditBalance    = "balance"
	CreditFreeCredit = "free_credit"
)

// Credit adds funds to a user's wallet.
func (s *Service) Credit(ctx context.Context, userID uint, amount int64, kind string) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	err := s.store.Tx(ctx, func(tx Store) error {
		w, err := tx.GetWallet(ctx, userID)
		if err != nil {
			return err
		}
		switch kind {
		case CreditBalance:
			w.Balance += amount
		case CreditFreeCredit:
			w.FreeCredit += amount
		default:
			return fmt.Errorf("%w: unknown credit kind %q", ErrInvalidAmount, kind)
		}
		return tx.SaveWallet(ctx, w)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, nil, fmt.Sprintf("wallet_credit:user:%d:%s:%d", userID, kind, amount))
	return nil
}

// Debit removes funds from a user's balance.
func (s *Service) Debit(ctx context.Context, userID uint, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	err := s.store.Tx(ctx, func(tx Store) error {
		w, err := tx.GetWallet(ctx, userID)
		if err != nil {
			return err
		}
		if amount > w.Balance {
			return ErrInsufficientFunds
		}
		w.Balance -= amount
		return tx.SaveWallet(ctx, w)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, nil, fmt.Sprintf("wallet_debit:user:%d:%d", userID, amount))
	return nil
}
