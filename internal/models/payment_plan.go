package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment plan statuses
const (
	PaymentPlanStatusActive    = "active"
	PaymentPlanStatusCompleted = "completed"
)

// PaymentPlan schedules recurring disbursements from a wallet to an
// external bank account. The scheduler enqueues one settlement task per due
// installment; the worker moves the money.
type PaymentPlan struct {
	ID                 uint            `gorm:"primarykey" json:"id"`
	WalletID           uint            `gorm:"index;not null" json:"wallet_id"`
	BankCode           string          `gorm:"not null" json:"bank_code"`
	DestinationAccount string          `gorm:"not null" json:"destination_account"`
	Amount             decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Interval           time.Duration   `gorm:"not null" json:"interval"`
	NextDueAt          time.Time       `gorm:"index;not null" json:"next_due_at"`
	Remaining          int             `gorm:"not null" json:"remaining"`
	Status             string          `gorm:"not null;default:'active'" json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
