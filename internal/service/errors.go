package service

import "errors"

// Domain failures. Every operation returns one of these as a typed
// error; nothing is recovered silently and nothing leaves an entity
// partially mutated.
var (
	// ErrCapacityExhausted: seat has no free slots.
	ErrCapacityExhausted = errors.New("seat capacity exhausted")

	// ErrSeatInactive: slot operations on a disabled seat.
	ErrSeatInactive = errors.New("seat is inactive")

	// ErrInvalidTransition: order status change outside the allowed graph.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrAllocationFailed: no seat in the pool could take the order.
	ErrAllocationFailed = errors.New("no seat capacity available")

	// ErrRetryLimitExceeded: 2FA code requested too many times within
	// the cooldown window.
	ErrRetryLimitExceeded = errors.New("2fa retry limit exceeded")

	// ErrInvalidAmount: negative credit amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds: debit larger than the wallet balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvariantViolation: should-never-happen state, indicates a
	// prior data corruption bug. Always surfaced to the operator.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrNotFound: referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)
