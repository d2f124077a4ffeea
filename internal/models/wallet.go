package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet statuses
const (
	WalletStatusActive = "active"
	WalletStatusLocked = "locked"
)

// Wallet holds a user's balance. A user may own several wallets; every
// balance mutation goes through the ledger primitives, never through
// direct writes.
type Wallet struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	UserID       uint            `gorm:"index;not null" json:"user_id"`
	PinHash      string          `gorm:"not null" json:"-"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	Status       string          `gorm:"default:'active'" json:"status"`
	StatusReason string          `gorm:"default:''" json:"status_reason,omitempty"`
	PinAttempts  int             `gorm:"default:0" json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Locked reports whether the wallet rejects balance-mutating operations.
func (w *Wallet) Locked() bool { return w.Status == WalletStatusLocked }
