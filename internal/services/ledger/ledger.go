// Package ledger holds the transaction primitives: the only code path
// permitted to mutate a wallet balance. Both primitives run against a
// repository handle already bound to the caller's storage transaction, on a
// wallet row the caller holds under an exclusive lock, so the balance
// update and the ledger entry commit or roll back together.
package ledger

import (
	"context"
	"errors"

	"lumapay/internal/models"
	"lumapay/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrWalletLocked        = errors.New("wallet is locked")
)

// Debit removes amount from the wallet and appends the ledger entry. The
// entry's Amount is negative and BalanceAfter snapshots the balance as it
// will commit.
func Debit(ctx context.Context, repo repositories.LedgerRepository, wallet *models.Wallet, paymentID uint, amount decimal.Decimal, txType, notes string) (*models.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if wallet.Locked() {
		return nil, ErrWalletLocked
	}
	if wallet.Balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	wallet.Balance = wallet.Balance.Sub(amount)
	entry := &models.Transaction{
		WalletID:     wallet.ID,
		PaymentID:    paymentID,
		Amount:       amount.Neg(),
		BalanceAfter: wallet.Balance,
		Type:         txType,
		Notes:        notes,
	}
	if err := repo.CreateTransaction(ctx, entry); err != nil {
		return nil, err
	}
	if err := repo.UpdateWallet(ctx, wallet); err != nil {
		return nil, err
	}
	return entry, nil
}

// Credit adds amount to the wallet and appends the ledger entry.
func Credit(ctx context.Context, repo repositories.LedgerRepository, wallet *models.Wallet, paymentID uint, amount decimal.Decimal, txType, notes string) (*models.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if wallet.Locked() {
		return nil, ErrWalletLocked
	}

	wallet.Balance = wallet.Balance.Add(amount)
	entry := &models.Transaction{
		WalletID:     wallet.ID,
		PaymentID:    paymentID,
		Amount:       amount,
		BalanceAfter: wallet.Balance,
		Type:         txType,
		Notes:        notes,
	}
	if err := repo.CreateTransaction(ctx, entry); err != nil {
		return nil, err
	}
	if err := repo.UpdateWallet(ctx, wallet); err != nil {
		return nil, err
	}
	return entry, nil
}
