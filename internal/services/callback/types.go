package callback

import (
	"lumapay/internal/models"

	"github.com/shopspring/decimal"
)

// Notification is one settlement event from a bank. Amount is signed from
// the wallet's point of view: positive for deposits through a credit VA,
// negative for cash taken through a debit VA.
type Notification struct {
	AccountNumber   string          `json:"account_number"`
	TrxID           string          `json:"trx_id"`
	ReferenceNumber string          `json:"reference_number"`
	ChannelKey      string          `json:"channel_key"`
	Amount          decimal.Decimal `json:"amount"`
}

// Result reports what applying a notification did.
type Result struct {
	Payment *models.Payment
	Entry   *models.Transaction
	// Duplicate is true when the reference number had already been
	// applied and nothing was changed.
	Duplicate bool
}

// Config carries the per-channel shared keys, keyed by bank code.
type Config struct {
	ChannelKeys map[string]string
}
