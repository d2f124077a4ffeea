package repositories

import (
	"context"
	"time"

	"lumapay/internal/models"
)

// VirtualAccountRepository is the data access surface for virtual accounts
// and withdraw intent records.
type VirtualAccountRepository interface {
	CreateVirtualAccount(ctx context.Context, va *models.VirtualAccount) error
	GetVirtualAccount(ctx context.Context, accountNumber, trxID string) (*models.VirtualAccount, error)
	GetActiveVirtualAccount(ctx context.Context, walletID uint, bankCode, vaType string) (*models.VirtualAccount, error)
	GetVirtualAccountByType(ctx context.Context, walletID uint, vaType string) (*models.VirtualAccount, error)
	UpdateVirtualAccount(ctx context.Context, va *models.VirtualAccount) error
	DeleteVirtualAccountsByType(ctx context.Context, walletID uint, vaType string) error
	AccountNumberTaken(ctx context.Context, accountNumber string) (bool, error)

	CreateWithdraw(ctx context.Context, w *models.Withdraw) error
	GetActiveWithdraw(ctx context.Context, walletID uint, now time.Time) (*models.Withdraw, error)
	DeleteWithdraws(ctx context.Context, walletID uint) error

	ExecuteInTransaction(ctx context.Context, fn func(VirtualAccountRepository) error) error
}
