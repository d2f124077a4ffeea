package virtualaccount

import "errors"

var (
	// ErrVirtualAccountExists is returned when a wallet already holds a
	// live credit VA at the requested bank.
	ErrVirtualAccountExists = errors.New("virtual account already exists for this bank")

	// ErrVirtualAccountNotFound is returned when no matching VA exists.
	ErrVirtualAccountNotFound = errors.New("virtual account not found")

	// ErrWithdrawPending is returned when an unexpired withdraw intent is
	// still occupying the wallet's debit VA slot.
	ErrWithdrawPending = errors.New("a withdrawal is already pending for this wallet")

	// ErrNumberExhausted is returned when account number generation kept
	// colliding with existing numbers.
	ErrNumberExhausted = errors.New("could not allocate a unique account number")

	// ErrInvalidType is returned for a type other than credit or debit.
	ErrInvalidType = errors.New("invalid virtual account type")

	// ErrInvalidAmount is returned for a non-positive withdrawal amount.
	ErrInvalidAmount = errors.New("withdrawal amount must be positive")
)
