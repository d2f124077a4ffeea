package plan

import (
	"context"
	"testing"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/repositories/repotest"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *repotest.Plans, wallet.Service) {
	t.Helper()
	plans := repotest.NewPlans()
	ledgerRepo := repotest.NewLedger()
	wallets := wallet.NewService(ledgerRepo, nil, wallet.Config{}, nil)

	banks := bank.NewRegistry()
	require.NoError(t, banks.Register(bank.Entry{
		Code:          "SANDBOX",
		Name:          "Sandbox Bank",
		AccountPrefix: "9900",
		Provider:      bank.NewSandboxProvider(),
	}))

	return NewService(plans, wallets, banks), plans, wallets
}

func TestCreatePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active plan", func(t *testing.T) {
		svc, _, wallets := newTestService(t)
		w, err := wallets.CreateWallet(ctx, 1, "1234")
		require.NoError(t, err)

		p, err := svc.Create(ctx, CreateRequest{
			WalletID:           w.ID,
			BankCode:           "SANDBOX",
			DestinationAccount: "0123456789",
			Amount:             decimal.NewFromInt(500),
			Interval:           24 * time.Hour,
			Installments:       12,
		})
		require.NoError(t, err)

		assert.Equal(t, models.PaymentPlanStatusActive, p.Status)
		assert.Equal(t, 12, p.Remaining)
		assert.True(t, p.NextDueAt.After(time.Now()))
	})

	t.Run("invalid parameters", func(t *testing.T) {
		svc, _, wallets := newTestService(t)
		w, err := wallets.CreateWallet(ctx, 1, "1234")
		require.NoError(t, err)

		base := CreateRequest{
			WalletID:           w.ID,
			BankCode:           "SANDBOX",
			DestinationAccount: "0123456789",
			Amount:             decimal.NewFromInt(500),
			Interval:           time.Hour,
			Installments:       1,
		}

		bad := base
		bad.Amount = decimal.Zero
		_, err = svc.Create(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidPlan)

		bad = base
		bad.Interval = 0
		_, err = svc.Create(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidPlan)

		bad = base
		bad.Installments = 0
		_, err = svc.Create(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidPlan)

		bad = base
		bad.DestinationAccount = ""
		_, err = svc.Create(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidPlan)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Create(ctx, CreateRequest{
			WalletID:           99,
			BankCode:           "SANDBOX",
			DestinationAccount: "0123456789",
			Amount:             decimal.NewFromInt(500),
			Interval:           time.Hour,
			Installments:       1,
		})
		assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	})
}

func TestCancelPlan(t *testing.T) {
	ctx := context.Background()
	svc, plans, wallets := newTestService(t)

	w, err := wallets.CreateWallet(ctx, 1, "1234")
	require.NoError(t, err)
	p, err := svc.Create(ctx, CreateRequest{
		WalletID:           w.ID,
		BankCode:           "SANDBOX",
		DestinationAccount: "0123456789",
		Amount:             decimal.NewFromInt(500),
		Interval:           time.Hour,
		Installments:       6,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, p.ID))

	stored, err := plans.GetPlanByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPlanStatusCompleted, stored.Status)
	assert.Equal(t, 0, stored.Remaining)

	assert.ErrorIs(t, svc.Cancel(ctx, 999), ErrPlanNotFound)
}
