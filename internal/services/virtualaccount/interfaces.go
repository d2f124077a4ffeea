package virtualaccount

import (
	"context"

	"lumapay/internal/models"
)

// Service is the virtual account manager surface.
type Service interface {
	// Provision allocates a virtual account for the wallet at the given
	// bank. Credit VAs are unique per (wallet, bank); debit VAs replace
	// any previous debit VA.
	Provision(ctx context.Context, req ProvisionRequest) (*models.VirtualAccount, error)

	// Reactivate re-arms an expired VA in place with a fresh TrxID and
	// validity window, keeping its account number.
	Reactivate(ctx context.Context, va *models.VirtualAccount) error

	// Resolve finds the VA matching a bank notification.
	Resolve(ctx context.Context, accountNumber, trxID string) (*models.VirtualAccount, error)
}
