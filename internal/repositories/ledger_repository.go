package repositories

import (
	"context"

	"lumapay/internal/models"
)

// LedgerRepository is the data access surface for wallets, ledger
// transactions and payments. ExecuteInTransaction hands the callback a
// repository bound to one storage transaction; every write inside the
// callback commits or rolls back as a unit.
type LedgerRepository interface {
	// Wallet operations
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	GetWalletByID(ctx context.Context, id uint) (*models.Wallet, error)
	GetWalletsByUserID(ctx context.Context, userID uint) ([]*models.Wallet, error)
	UpdateWallet(ctx context.Context, wallet *models.Wallet) error

	// UpdateWalletAuthState persists only the PIN-attempt counter and the
	// lock state. Authentication works on an unlocked (possibly cached)
	// wallet copy, so it must never write the balance column.
	UpdateWalletAuthState(ctx context.Context, walletID uint, attempts int, status, statusReason string) error

	// LockWallets acquires exclusive row locks on the given wallets in
	// ascending id order, so two transfers touching the same pair can never
	// deadlock by locking in opposite orders.
	LockWallets(ctx context.Context, ids ...uint) (map[uint]*models.Wallet, error)

	// Transaction operations (ledger entries are append-only)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByID(ctx context.Context, id uint) (*models.Transaction, error)
	GetTransactionByPaymentID(ctx context.Context, paymentID uint) (*models.Transaction, error)
	ListTransactions(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, walletID uint) (int64, error)

	// Payment operations
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, id uint) (*models.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error

	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error
}
