package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment directions
const (
	PaymentDirectionCredit = "credit"
	PaymentDirectionDebit  = "debit"
)

// Payment channels
const (
	PaymentChannelInternal = "internal"
	PaymentChannelBank     = "bank"
	PaymentChannelCallback = "callback"
)

// Payment is one leg of a money movement. Source and destination are opaque
// account identifiers: a wallet id rendered as a string, or a bank account
// number. An internal transfer produces two Payment rows, one per leg,
// created in the same storage transaction.
//
// ReferenceNumber is unique across all payments. Outbound payments carry a
// locally generated reference so retried provider calls deduplicate; inbound
// callback payments carry the bank-supplied reference so a replayed
// notification collides instead of crediting twice.
type Payment struct {
	ID                 uint            `gorm:"primarykey" json:"id"`
	SourceAccount      string          `gorm:"not null" json:"source_account"`
	DestinationAccount string          `gorm:"not null" json:"destination_account"`
	Amount             decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	ReferenceNumber    string          `gorm:"uniqueIndex;not null" json:"reference_number"`
	BankReference      string          `json:"bank_reference,omitempty"`
	Direction          string          `gorm:"not null" json:"direction"`
	Status             string          `gorm:"not null;default:'pending'" json:"status"`
	Channel            string          `json:"channel,omitempty"`
	BankCode           string          `json:"bank_code,omitempty"`
	RefundOfID         *uint           `gorm:"index" json:"refund_of_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
