package repositories

import "errors"

var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrVirtualAccountNotFound = errors.New("virtual account not found")
	ErrWithdrawNotFound       = errors.New("withdraw intent not found")
	ErrPlanNotFound           = errors.New("payment plan not found")
	ErrDuplicateReference     = errors.New("duplicate reference number")
	ErrDuplicateAccountNumber = errors.New("duplicate account number")

	// ErrDuplicateVirtualAccount is the uniq_live_va partial index firing:
	// a live VA already exists for the same (wallet, bank, type).
	ErrDuplicateVirtualAccount = errors.New("duplicate live virtual account")
)
