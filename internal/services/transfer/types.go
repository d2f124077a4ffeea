package transfer

import (
	"strconv"
	"time"

	"lumapay/internal/models"

	"github.com/shopspring/decimal"
)

// InternalRequest describes a wallet-to-wallet transfer.
type InternalRequest struct {
	SourceWalletID      uint
	DestinationWalletID uint
	Amount              decimal.Decimal
	Pin                 string
	Notes               string
}

// ExternalRequest describes a wallet-to-bank transfer.
type ExternalRequest struct {
	SourceWalletID     uint
	BankCode           string
	DestinationAccount string
	Amount             decimal.Decimal
	Pin                string
	Notes              string
}

// DisburseRequest is an ExternalRequest for trusted callers; no PIN.
type DisburseRequest struct {
	SourceWalletID     uint
	BankCode           string
	DestinationAccount string
	Amount             decimal.Decimal
	Notes              string
	TransactionType    string
}

// Result reports the payments and ledger entries a transfer produced. The
// credit side is nil for external transfers; the bank leg settles later.
type Result struct {
	DebitPayment  *models.Payment
	CreditPayment *models.Payment
	DebitEntry    *models.Transaction
	CreditEntry   *models.Transaction
}

// Config holds configuration for the transfer engine.
type Config struct {
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal

	// SerializationRetries bounds retries of storage-level serialization
	// failures before the error surfaces to the caller.
	SerializationRetries int
	RetryBaseDelay       time.Duration
}

// walletAccount renders a wallet id as an opaque payment account
// identifier.
func walletAccount(walletID uint) string {
	return "wallet:" + strconv.FormatUint(uint64(walletID), 10)
}
