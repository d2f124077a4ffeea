package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeTopup        = "TOPUP"
	TransactionTypeTransfer     = "TRANSFER"
	TransactionTypeWithdrawal   = "WITHDRAWAL"
	TransactionTypeDeposit      = "DEPOSIT"
	TransactionTypeRefund       = "REFUND"
	TransactionTypePlanDisburse = "PLAN_DISBURSE"
)

// Transaction is an immutable ledger entry. Amount is signed: positive for
// credits, negative for debits. BalanceAfter snapshots the wallet balance
// as committed in the same storage transaction, so replaying entries in
// creation order reproduces every running balance.
type Transaction struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	WalletID     uint            `gorm:"index;not null" json:"wallet_id"`
	PaymentID    uint            `gorm:"index" json:"payment_id,omitempty"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_after"`
	Type         string          `gorm:"not null" json:"type"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
