package virtualaccount

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProvisionRequest asks for a new virtual account at a bank.
type ProvisionRequest struct {
	WalletID uint
	BankCode string
	Type     string
	// Pin authenticates the wallet owner. Required for debit VAs, which
	// stage a withdrawal; ignored for credit VAs.
	Pin string
	// Amount is only meaningful for debit VAs, where the bank needs to
	// know how much cash to dispense.
	Amount decimal.Decimal
}

// Config carries the provisioning knobs.
type Config struct {
	// CreditExpiry and DebitExpiry are the validity windows stamped on
	// newly provisioned VAs of each type.
	CreditExpiry time.Duration
	DebitExpiry  time.Duration

	// NumberAttempts bounds how many random account numbers are tried
	// before giving up on a collision streak.
	NumberAttempts int

	// NumberLength is the digit count appended after the bank prefix.
	NumberLength int

	// WithdrawTTL is the validity window of a withdraw intent record.
	WithdrawTTL time.Duration
}
