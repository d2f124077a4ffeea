package wallet

import "errors"

// Service errors
var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletLocked   = errors.New("wallet is locked")
	ErrIncorrectPin   = errors.New("incorrect pin")
	ErrMaxPinAttempts = errors.New("max pin attempts reached")
	ErrSameWallet     = errors.New("destination wallet equals source")
	ErrInvalidPin     = errors.New("pin must be 4 to 6 digits")
)
