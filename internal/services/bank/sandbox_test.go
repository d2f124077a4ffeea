package bank

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxProviderIdempotency(t *testing.T) {
	ctx := context.Background()
	p := NewSandboxProvider()

	req := TransferRequest{
		ReferenceNumber:    "REF-1",
		DestinationAccount: "0123456789",
		Amount:             decimal.NewFromInt(100),
	}

	first, err := p.TransferFunds(ctx, req)
	require.NoError(t, err)
	second, err := p.TransferFunds(ctx, req)
	require.NoError(t, err)

	// Same reference, same provider ref; a retried call is not a second
	// payout.
	assert.Equal(t, first.ProviderRef, second.ProviderRef)

	status, err := p.InquireStatus(ctx, first.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status.Status)
}

func TestSandboxProviderFailNext(t *testing.T) {
	ctx := context.Background()
	p := NewSandboxProvider()

	p.FailNext(1, true)
	_, err := p.TransferFunds(ctx, TransferRequest{ReferenceNumber: "REF-2"})
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	p.FailNext(1, false)
	_, err = p.TransferFunds(ctx, TransferRequest{ReferenceNumber: "REF-3"})
	require.Error(t, err)
	assert.False(t, IsTransient(err))

	// Failure budget spent; calls succeed again.
	_, err = p.TransferFunds(ctx, TransferRequest{ReferenceNumber: "REF-4"})
	assert.NoError(t, err)
}

func TestProviderErrorClassification(t *testing.T) {
	transient := NewTransientError("timeout", nil)
	terminal := NewTerminalError("rejected", nil)

	assert.True(t, IsTransient(transient))
	assert.False(t, IsTransient(terminal))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.Canceled))
}
