package transfer

import "errors"

// Service errors
var (
	ErrAmountTooSmall   = errors.New("amount below minimum")
	ErrAmountTooLarge   = errors.New("amount above maximum")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyRefunded  = errors.New("payment already refunded")
	ErrRefundNotAllowed = errors.New("payment cannot be refunded")
	ErrTransferFailed   = errors.New("transfer failed")
)
