package errors

var (
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrWalletLocked = &DomainError{
		Code:    "WALLET_LOCKED",
		Message: "wallet is locked",
	}
	ErrIncorrectPin = &DomainError{
		Code:    "INCORRECT_PIN",
		Message: "incorrect pin",
	}
	ErrNotRefundable = &DomainError{
		Code:    "NOT_REFUNDABLE",
		Message: "payment cannot be refunded",
	}
)
