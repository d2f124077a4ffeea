package models

import "time"

// Virtual account types. A credit VA is a long-lived deposit channel; a
// debit VA is a single-use cardless withdrawal channel.
const (
	VirtualAccountTypeCredit = "credit"
	VirtualAccountTypeDebit  = "debit"
)

// Virtual account statuses
const (
	VirtualAccountStatusPending  = "pending"
	VirtualAccountStatusActive   = "active"
	VirtualAccountStatusInactive = "inactive"
)

// VirtualAccount is a bank-facing account number bound to exactly one
// (wallet, bank, type) triple. It stays pending until the settlement worker
// confirms creation with the provider.
//
// The uniq_live_va partial index lets the database enforce the one-live-VA
// rule even when two provisions race past the application-level check.
type VirtualAccount struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	AccountNumber string    `gorm:"uniqueIndex;not null" json:"account_number"`
	TrxID         string    `gorm:"index;not null" json:"trx_id"`
	WalletID      uint      `gorm:"index;not null;index:uniq_live_va,unique,where:status <> 'inactive',priority:1" json:"wallet_id"`
	BankCode      string    `gorm:"not null;index:uniq_live_va,priority:2" json:"bank_code"`
	ProviderRef   string    `json:"provider_ref,omitempty"`
	Type          string    `gorm:"not null;index:uniq_live_va,priority:3" json:"type"`
	Status        string    `gorm:"not null;default:'pending'" json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Expired reports whether the VA is past its validity window.
func (v *VirtualAccount) Expired(now time.Time) bool { return now.After(v.ExpiresAt) }
