package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdraw is a short-lived intent record gating a debit-VA withdrawal. A
// wallet may hold at most one unexpired Withdraw; expired rows are simply
// ignored, so an abandoned withdrawal heals itself once the TTL passes.
type Withdraw struct {
	ID         uint            `gorm:"primarykey" json:"id"`
	WalletID   uint            `gorm:"index;not null" json:"wallet_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	ValidUntil time.Time       `gorm:"not null" json:"valid_until"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Expired reports whether the intent no longer blocks new withdrawals.
func (w *Withdraw) Expired(now time.Time) bool { return now.After(w.ValidUntil) }
