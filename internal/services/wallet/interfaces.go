package wallet

import (
	"context"

	"lumapay/internal/models"
)

// Cache is the wallet caching surface the service uses. It is optional;
// a nil cache disables caching.
type Cache interface {
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error)
	InvalidateWallet(ctx context.Context, walletID uint) error
}

// Service defines the wallet core interface.
type Service interface {
	CreateWallet(ctx context.Context, userID uint, pin string) (*models.Wallet, error)
	Resolve(ctx context.Context, walletID uint) (*models.Wallet, error)
	Authenticate(ctx context.Context, wallet *models.Wallet, pin string) error
	ResolveDestination(ctx context.Context, destinationID uint, source *models.Wallet) (*models.Wallet, error)
	Unlock(ctx context.Context, walletID uint) error
	// GetTransactionHistory returns one page of ledger entries, newest
	// first, plus the wallet's total entry count for pagination.
	GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, int64, error)
}
