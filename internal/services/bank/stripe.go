package bank

import (
	"context"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

var cents = decimal.NewFromInt(100)

// StripeProvider settles transfers over the Stripe payout rail. Virtual
// accounts are modelled as Stripe customers so deposits against them can be
// matched by the provider reference.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := client.New(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateVirtualAccount(ctx context.Context, req CreateVARequest) (*CreateVAResponse, error) {
	params := &stripe.CustomerParams{
		Description: stripe.String(req.Name),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.TrxID)
	params.AddMetadata("account_number", req.AccountNumber)
	params.AddMetadata("trx_id", req.TrxID)

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return nil, classifyStripeError(err)
	}
	return &CreateVAResponse{ProviderRef: cust.ID, Status: StatusAccepted}, nil
}

func (p *StripeProvider) TransferFunds(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	params := &stripe.PayoutParams{
		Amount:      stripe.Int64(req.Amount.Abs().Mul(cents).IntPart()),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Description: stripe.String(req.Notes),
		Destination: stripe.String(req.DestinationAccount),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.ReferenceNumber)

	po, err := p.api.Payouts.New(params)
	if err != nil {
		return nil, classifyStripeError(err)
	}
	return &TransferResponse{ProviderRef: po.ID, Status: payoutStatus(po.Status)}, nil
}

func (p *StripeProvider) InquireStatus(ctx context.Context, providerRef string) (*StatusResponse, error) {
	params := &stripe.PayoutParams{}
	params.Context = ctx

	po, err := p.api.Payouts.Get(providerRef, params)
	if err != nil {
		return nil, classifyStripeError(err)
	}
	return &StatusResponse{Status: payoutStatus(po.Status), Detail: po.FailureMessage}, nil
}

func payoutStatus(status stripe.PayoutStatus) string {
	switch status {
	case stripe.PayoutStatusPaid:
		return StatusCompleted
	case stripe.PayoutStatusFailed, stripe.PayoutStatusCanceled:
		return StatusFailed
	default:
		return StatusAccepted
	}
}

func classifyStripeError(err error) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		switch {
		case stripeErr.HTTPStatusCode >= 500:
			return NewTransientError(string(stripeErr.Code), err)
		case stripeErr.HTTPStatusCode == 429:
			return NewTransientError(string(stripeErr.Code), err)
		case stripeErr.Type == stripe.ErrorTypeAPIConnection:
			return NewTransientError(string(stripeErr.Code), err)
		default:
			return NewTerminalError(string(stripeErr.Code), err)
		}
	}
	// Unclassified network-level failures are worth a retry.
	return NewTransientError("network", err)
}
