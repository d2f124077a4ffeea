package virtualaccount

import (
	"context"
	"strings"
	"testing"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/queue"
	"lumapay/internal/repositories/repotest"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/ledger"
	"lumapay/internal/services/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPin = "1234"

func newTestService(t *testing.T) (Service, *repotest.VirtualAccounts, *repotest.Queue) {
	t.Helper()
	repo := repotest.NewVirtualAccounts()
	tasks := repotest.NewQueue()

	ledgerRepo := repotest.NewLedger()
	wallets := wallet.NewService(ledgerRepo, nil, wallet.Config{PinAttemptLimit: 3}, nil)
	w, err := wallets.CreateWallet(context.Background(), 1, testPin)
	require.NoError(t, err)
	require.Equal(t, uint(1), w.ID)
	w.Balance = decimal.NewFromInt(10_000)
	require.NoError(t, ledgerRepo.UpdateWallet(context.Background(), w))

	banks := bank.NewRegistry()
	require.NoError(t, banks.Register(bank.Entry{
		Code:          "SANDBOX",
		Name:          "Sandbox Bank",
		AccountPrefix: "9900",
		Provider:      bank.NewSandboxProvider(),
	}))

	svc := NewService(repo, wallets, banks, tasks, Config{
		CreditExpiry:   24 * time.Hour,
		DebitExpiry:    5 * time.Minute,
		NumberAttempts: 5,
		NumberLength:   10,
		WithdrawTTL:    5 * time.Minute,
	})
	return svc, repo, tasks
}

func TestProvisionCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending credit account", func(t *testing.T) {
		svc, _, tasks := newTestService(t)

		va, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1,
			BankCode: "SANDBOX",
			Type:     models.VirtualAccountTypeCredit,
		})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(va.AccountNumber, "9900"))
		assert.Len(t, va.AccountNumber, 14)
		assert.Equal(t, models.VirtualAccountStatusPending, va.Status)
		assert.NotEmpty(t, va.TrxID)

		require.Equal(t, 1, tasks.Len(queue.QueueSettlement))
		task, err := tasks.Dequeue(ctx, queue.QueueSettlement, 0)
		require.NoError(t, err)
		assert.Equal(t, queue.TaskKindVACreate, task.Kind)
	})

	t.Run("second credit account at the same bank is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeCredit,
		})
		require.NoError(t, err)

		_, err = svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeCredit,
		})
		assert.ErrorIs(t, err, ErrVirtualAccountExists)
	})

	t.Run("expired credit account is re-armed in place", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		first, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeCredit,
		})
		require.NoError(t, err)

		stored, err := repo.GetVirtualAccount(ctx, first.AccountNumber, first.TrxID)
		require.NoError(t, err)
		stored.ExpiresAt = time.Now().Add(-time.Hour)
		require.NoError(t, repo.UpdateVirtualAccount(ctx, stored))

		second, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeCredit,
		})
		require.NoError(t, err)

		// Same number, fresh correlation id and validity window.
		assert.Equal(t, first.AccountNumber, second.AccountNumber)
		assert.NotEqual(t, first.TrxID, second.TrxID)
		assert.True(t, second.ExpiresAt.After(time.Now()))
		assert.Len(t, repo.Accounts(), 1)
	})

	t.Run("racing provision loses to the live-VA unique index", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		_, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeCredit,
		})
		require.NoError(t, err)

		// The second provision misses the read check, as when two requests
		// interleave, and must be stopped by the insert itself.
		repo.SkipNextActiveLookup()
		_, err = svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeCredit,
		})
		assert.ErrorIs(t, err, ErrVirtualAccountExists)
		assert.Len(t, repo.Accounts(), 1)
	})

	t.Run("unknown bank", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "NOPE", Type: models.VirtualAccountTypeCredit,
		})
		assert.ErrorIs(t, err, bank.ErrUnknownBank)
	})
}

func TestProvisionDebit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and withdraw intent together", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		va, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1,
			BankCode: "SANDBOX",
			Type:     models.VirtualAccountTypeDebit,
			Pin:      testPin,
			Amount:   decimal.NewFromInt(500),
		})
		require.NoError(t, err)
		assert.Equal(t, models.VirtualAccountTypeDebit, va.Type)

		withdraws := repo.Withdraws()
		require.Len(t, withdraws, 1)
		assert.True(t, withdraws[0].Amount.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, uint(1), withdraws[0].WalletID)
	})

	t.Run("wrong pin is rejected before anything is created", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		_, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeDebit, Pin: "0000",
			Amount: decimal.NewFromInt(500),
		})
		assert.ErrorIs(t, err, wallet.ErrIncorrectPin)
		assert.Empty(t, repo.Accounts())
		assert.Empty(t, repo.Withdraws())
	})

	t.Run("amount above the balance is rejected", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		_, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeDebit, Pin: testPin,
			Amount: decimal.NewFromInt(10_001),
		})
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		assert.Empty(t, repo.Accounts())
	})

	t.Run("unknown wallet", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 99, BankCode: "SANDBOX", Type: models.VirtualAccountTypeDebit, Pin: testPin,
			Amount: decimal.NewFromInt(100),
		})
		assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	})

	t.Run("pending withdraw blocks a replacement", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeDebit, Pin: testPin,
			Amount: decimal.NewFromInt(500),
		})
		require.NoError(t, err)

		_, err = svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeDebit, Pin: testPin,
			Amount: decimal.NewFromInt(200),
		})
		assert.ErrorIs(t, err, ErrWithdrawPending)
	})

	t.Run("expired withdraw frees the slot and the old account is replaced", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		first, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeDebit, Pin: testPin,
			Amount: decimal.NewFromInt(500),
		})
		require.NoError(t, err)

		repo.ExpireWithdraws(1, time.Now().Add(-time.Minute))

		second, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeDebit, Pin: testPin,
			Amount: decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		assert.NotEqual(t, first.AccountNumber, second.AccountNumber)

		accounts := repo.Accounts()
		require.Len(t, accounts, 1)
		assert.Equal(t, second.AccountNumber, accounts[0].AccountNumber)

		withdraws := repo.Withdraws()
		require.Len(t, withdraws, 1)
		assert.True(t, withdraws[0].Amount.Equal(decimal.NewFromInt(200)))
	})

	t.Run("debit slot is independent of the credit account", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		_, err := svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeCredit,
		})
		require.NoError(t, err)
		_, err = svc.Provision(ctx, ProvisionRequest{
			WalletID: 1, BankCode: "SANDBOX", Type: models.VirtualAccountTypeDebit, Pin: testPin,
			Amount: decimal.NewFromInt(100),
		})
		require.NoError(t, err)
		assert.Len(t, repo.Accounts(), 2)
	})
}
