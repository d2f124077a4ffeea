package transfer

import (
	"context"

	"lumapay/internal/models"
)

// Notifier is used to notify users about completed transfers.
type Notifier interface {
	SendTransferNotification(ctx context.Context, walletID uint, payment *models.Payment) error
}

// Service orchestrates money movement between wallets and to external
// banks. Every operation is all-or-nothing from the ledger's point of view.
type Service interface {
	// TransferInternal moves funds between two wallets synchronously.
	TransferInternal(ctx context.Context, req InternalRequest) (*Result, error)

	// TransferExternal debits the source wallet synchronously and hands the
	// bank leg to the settlement worker. It returns before the bank
	// confirms.
	TransferExternal(ctx context.Context, req ExternalRequest) (*Result, error)

	// Disburse is TransferExternal without PIN verification, for trusted
	// internal callers such as the payment plan worker.
	Disburse(ctx context.Context, req DisburseRequest) (*Result, error)

	// Refund re-applies the inverse of a completed payment.
	Refund(ctx context.Context, paymentID uint) (*Result, error)
}
