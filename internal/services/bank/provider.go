// Package bank defines the capability interface the core uses to talk to
// external bank providers, and a registry of concrete implementations keyed
// by bank code.
package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Provider statuses reported by implementations.
const (
	StatusAccepted  = "accepted"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CreateVARequest asks the provider to open a virtual account number.
// TrxID is the locally generated correlation id; retried calls reuse it so
// the provider can deduplicate.
type CreateVARequest struct {
	AccountNumber string
	TrxID         string
	Name          string
	Amount        decimal.Decimal
	ExpiresAt     time.Time
}

type CreateVAResponse struct {
	ProviderRef string
	Status      string
}

// TransferRequest asks the provider to move funds to an external account.
// ReferenceNumber doubles as the idempotency key.
type TransferRequest struct {
	ReferenceNumber    string
	DestinationAccount string
	Amount             decimal.Decimal
	Notes              string
}

type TransferResponse struct {
	ProviderRef string
	Status      string
}

type StatusResponse struct {
	Status string
	Detail string
}

// Provider is the outbound bank capability. Implementations own their wire
// formats; the core sees only this contract.
type Provider interface {
	CreateVirtualAccount(ctx context.Context, req CreateVARequest) (*CreateVAResponse, error)
	TransferFunds(ctx context.Context, req TransferRequest) (*TransferResponse, error)
	InquireStatus(ctx context.Context, providerRef string) (*StatusResponse, error)
}

// ProviderError classifies a provider failure so the settlement worker can
// decide between retry and terminal failure without knowing the provider.
type ProviderError struct {
	Code      string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("provider error %s", e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewTransientError wraps a failure that is safe to retry.
func NewTransientError(code string, err error) *ProviderError {
	return &ProviderError{Code: code, Transient: true, Err: err}
}

// NewTerminalError wraps a failure that retrying cannot fix.
func NewTerminalError(code string, err error) *ProviderError {
	return &ProviderError{Code: code, Transient: false, Err: err}
}

// IsTransient reports whether err is a retriable provider failure.
func IsTransient(err error) bool {
	var pErr *ProviderError
	return errors.As(err, &pErr) && pErr.Transient
}
