package transfer

import (
	"context"
	"encoding/json"
	"testing"

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

type fixture struct {
	repo    *repotest.Ledger
	tasks   *repotest.Queue
	wallets wallet.Service
	banks   *bank.Registry
	service Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repotest.NewLedger()
	tasks := repotest.NewQueue()
	wallets := wallet.NewService(repo, nil, wallet.Config{PinAttemptLimit: 3}, nil)

	banks := bank.NewRegistry()
	require.NoError(t, banks.Register(bank.Entry{
		Code:          "SANDBOX",
		Name:          "Sandbox Bank",
		AccountPrefix: "9900",
		Provider:      bank.NewSandboxProvider(),
	}))

	svc := NewService(repo, wallets, banks, tasks, nil, nil, Config{
		MinAmount: decimal.NewFromInt(1),
		MaxAmount: decimal.NewFromInt(1_000_000),
	}, nil)

	return &fixture{repo: repo, tasks: tasks, wallets: wallets, banks: banks, service: svc}
}

func (f *fixture) seedWallet(t *testing.T, userID uint, pin string, balance int64) *models.Wallet {
	t.Helper()
	w, err := f.wallets.CreateWallet(context.Background(), userID, pin)
	require.NoError(t, err)
	w.Balance = decimal.NewFromInt(balance)
	require.NoError(t, f.repo.UpdateWallet(context.Background(), w))
	return w
}

func TestTransferInternal(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds and conserves the total", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)

		result, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromInt(150),
			Pin:                 "1234",
			Notes:               "rent",
		})
		require.NoError(t, err)

		srcStored := f.repo.Wallet(src.ID)
		dstStored := f.repo.Wallet(dst.ID)
		assert.True(t, srcStored.Balance.Equal(decimal.NewFromInt(850)))
		assert.True(t, dstStored.Balance.Equal(decimal.NewFromInt(150)))
		assert.True(t, srcStored.Balance.Add(dstStored.Balance).Equal(decimal.NewFromInt(1000)))

		assert.Equal(t, models.PaymentStatusCompleted, result.DebitPayment.Status)
		assert.Equal(t, models.PaymentStatusCompleted, result.CreditPayment.Status)
		assert.True(t, result.DebitEntry.BalanceAfter.Equal(decimal.NewFromInt(850)))
		assert.True(t, result.CreditEntry.BalanceAfter.Equal(decimal.NewFromInt(150)))
		assert.Len(t, f.repo.Transactions(), 2)
	})

	t.Run("insufficient balance leaves both wallets untouched", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 100)
		dst := f.seedWallet(t, 2, "5678", 0)

		_, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromInt(500),
			Pin:                 "1234",
		})
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

		assert.True(t, f.repo.Wallet(src.ID).Balance.Equal(decimal.NewFromInt(100)))
		assert.True(t, f.repo.Wallet(dst.ID).Balance.IsZero())
		assert.Empty(t, f.repo.Transactions())
		assert.Empty(t, f.repo.Payments())
	})

	t.Run("credit-leg failure rolls back the committed debit leg", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)

		// The debit payment and ledger entry land first inside the storage
		// transaction; failing the credit payment forces a rollback with
		// half the transfer already applied.
		f.repo.FailCreatePayment(2)

		_, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromInt(150),
			Pin:                 "1234",
		})
		assert.ErrorIs(t, err, repotest.ErrStorageFailure)

		assert.True(t, f.repo.Wallet(src.ID).Balance.Equal(decimal.NewFromInt(1000)))
		assert.True(t, f.repo.Wallet(dst.ID).Balance.IsZero())
		assert.Empty(t, f.repo.Transactions())
		assert.Empty(t, f.repo.Payments())
	})

	t.Run("credit-entry failure rolls back the whole transfer", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)

		f.repo.FailCreateTransaction(2)

		_, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromInt(150),
			Pin:                 "1234",
		})
		assert.ErrorIs(t, err, repotest.ErrStorageFailure)

		assert.True(t, f.repo.Wallet(src.ID).Balance.Equal(decimal.NewFromInt(1000)))
		assert.True(t, f.repo.Wallet(dst.ID).Balance.IsZero())
		assert.Empty(t, f.repo.Transactions())
		assert.Empty(t, f.repo.Payments())
	})

	t.Run("wrong pin", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)

		_, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromInt(10),
			Pin:                 "9999",
		})
		assert.ErrorIs(t, err, wallet.ErrIncorrectPin)
		assert.Empty(t, f.repo.Transactions())
	})

	t.Run("same wallet", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)

		_, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: src.ID,
			Amount:              decimal.NewFromInt(10),
			Pin:                 "1234",
		})
		assert.ErrorIs(t, err, wallet.ErrSameWallet)
	})

	t.Run("locked source wallet", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)

		stored := f.repo.Wallet(src.ID)
		stored.Status = models.WalletStatusLocked
		require.NoError(t, f.repo.UpdateWallet(ctx, stored))

		_, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromInt(10),
			Pin:                 "1234",
		})
		assert.ErrorIs(t, err, wallet.ErrWalletLocked)
	})

	t.Run("amount bounds", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)

		_, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromFloat(0.5),
			Pin:                 "1234",
		})
		assert.ErrorIs(t, err, ErrAmountTooSmall)

		_, err = f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromInt(2_000_000),
			Pin:                 "1234",
		})
		assert.ErrorIs(t, err, ErrAmountTooLarge)
	})
}

func TestTransferExternal(t *testing.T) {
	ctx := context.Background()

	t.Run("debits immediately and enqueues the bank leg", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)

		result, err := f.service.TransferExternal(ctx, ExternalRequest{
			SourceWalletID:     src.ID,
			BankCode:           "SANDBOX",
			DestinationAccount: "0123456789",
			Amount:             decimal.NewFromInt(400),
			Pin:                "1234",
		})
		require.NoError(t, err)

		assert.True(t, f.repo.Wallet(src.ID).Balance.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, models.PaymentStatusPending, result.DebitPayment.Status)
		assert.Equal(t, "SANDBOX", result.DebitPayment.BankCode)
		assert.Nil(t, result.CreditPayment)

		require.Equal(t, 1, f.tasks.Len(queue.QueueSettlement))
		task, err := f.tasks.Dequeue(ctx, queue.QueueSettlement, 0)
		require.NoError(t, err)
		assert.Equal(t, queue.TaskKindBankTransfer, task.Kind)

		var payload SettlementPayload
		require.NoError(t, json.Unmarshal(task.Payload, &payload))
		assert.Equal(t, result.DebitPayment.ID, payload.PaymentID)
	})

	t.Run("unknown bank", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)

		_, err := f.service.TransferExternal(ctx, ExternalRequest{
			SourceWalletID:     src.ID,
			BankCode:           "NOPE",
			DestinationAccount: "0123456789",
			Amount:             decimal.NewFromInt(10),
			Pin:                "1234",
		})
		assert.ErrorIs(t, err, bank.ErrUnknownBank)
		assert.True(t, f.repo.Wallet(src.ID).Balance.Equal(decimal.NewFromInt(1000)))
	})
}

func TestDisburse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	src := f.seedWallet(t, 1, "1234", 1000)

	// No PIN: used by the scheduler and other trusted internal callers.
	result, err := f.service.Disburse(ctx, DisburseRequest{
		SourceWalletID:     src.ID,
		BankCode:           "SANDBOX",
		DestinationAccount: "0123456789",
		Amount:             decimal.NewFromInt(250),
		TransactionType:    models.TransactionTypePlanDisburse,
	})
	require.NoError(t, err)

	assert.True(t, f.repo.Wallet(src.ID).Balance.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, models.TransactionTypePlanDisburse, result.DebitEntry.Type)
	assert.Equal(t, 1, f.tasks.Len(queue.QueueSettlement))
}

func TestRefund(t *testing.T) {
	ctx := context.Background()

	transferOnce := func(t *testing.T, f *fixture, src, dst *models.Wallet) *Result {
		t.Helper()
		result, err := f.service.TransferInternal(ctx, InternalRequest{
			SourceWalletID:      src.ID,
			DestinationWalletID: dst.ID,
			Amount:              decimal.NewFromInt(200),
			Pin:                 "1234",
		})
		require.NoError(t, err)
		return result
	}

	t.Run("reverses the credit leg", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)
		result := transferOnce(t, f, src, dst)

		refund, err := f.service.Refund(ctx, result.CreditPayment.ID)
		require.NoError(t, err)

		assert.True(t, f.repo.Wallet(dst.ID).Balance.IsZero())
		assert.Equal(t, models.TransactionTypeRefund, refund.DebitEntry.Type)
		require.NotNil(t, refund.DebitPayment.RefundOfID)
		assert.Equal(t, result.CreditPayment.ID, *refund.DebitPayment.RefundOfID)

		original, err := f.repo.GetPaymentByID(ctx, result.CreditPayment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusRefunded, original.Status)
	})

	t.Run("reverses the debit leg", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)
		result := transferOnce(t, f, src, dst)

		_, err := f.service.Refund(ctx, result.DebitPayment.ID)
		require.NoError(t, err)
		assert.True(t, f.repo.Wallet(src.ID).Balance.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("double refund", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)
		result := transferOnce(t, f, src, dst)

		_, err := f.service.Refund(ctx, result.CreditPayment.ID)
		require.NoError(t, err)
		_, err = f.service.Refund(ctx, result.CreditPayment.ID)
		assert.ErrorIs(t, err, ErrAlreadyRefunded)
	})

	t.Run("refund of a refund", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)
		dst := f.seedWallet(t, 2, "5678", 0)
		result := transferOnce(t, f, src, dst)

		refund, err := f.service.Refund(ctx, result.CreditPayment.ID)
		require.NoError(t, err)
		_, err = f.service.Refund(ctx, refund.DebitPayment.ID)
		assert.ErrorIs(t, err, ErrRefundNotAllowed)
	})

	t.Run("pending payment", func(t *testing.T) {
		f := newFixture(t)
		src := f.seedWallet(t, 1, "1234", 1000)

		external, err := f.service.TransferExternal(ctx, ExternalRequest{
			SourceWalletID:     src.ID,
			BankCode:           "SANDBOX",
			DestinationAccount: "0123456789",
			Amount:             decimal.NewFromInt(100),
			Pin:                "1234",
		})
		require.NoError(t, err)

		_, err = f.service.Refund(ctx, external.DebitPayment.ID)
		assert.ErrorIs(t, err, ErrRefundNotAllowed)
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Refund(ctx, 999)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}
