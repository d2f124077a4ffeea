package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/queue"
	"lumapay/internal/repositories/repotest"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/transfer"
	"lumapay/internal/services/virtualaccount"
	"lumapay/internal/services/wallet"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ledger    *repotest.Ledger
	vaRepo    *repotest.VirtualAccounts
	plans     *repotest.Plans
	tasks     *repotest.Queue
	sandbox   *bank.SandboxProvider
	transfers transfer.Service
	worker    *Settlement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledgerRepo := repotest.NewLedger()
	vaRepo := repotest.NewVirtualAccounts()
	plans := repotest.NewPlans()
	tasks := repotest.NewQueue()
	sandbox := bank.NewSandboxProvider()

	banks := bank.NewRegistry()
	require.NoError(t, banks.Register(bank.Entry{
		Code:          "SANDBOX",
		Name:          "Sandbox Bank",
		AccountPrefix: "9900",
		Provider:      sandbox,
	}))

	wallets := wallet.NewService(ledgerRepo, nil, wallet.Config{}, nil)
	transfers := transfer.NewService(ledgerRepo, wallets, banks, tasks, nil, nil, transfer.Config{}, nil)

	w := NewSettlement(tasks, queue.QueueSettlement, ledgerRepo, vaRepo, plans, transfers, banks, RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}, time.Second)

	return &fixture{
		ledger:    ledgerRepo,
		vaRepo:    vaRepo,
		plans:     plans,
		tasks:     tasks,
		sandbox:   sandbox,
		transfers: transfers,
		worker:    w,
	}
}

func (f *fixture) seedPendingTransfer(t *testing.T) (*models.Wallet, *models.Payment, *queue.Task) {
	t.Helper()
	ctx := context.Background()

	w := &models.Wallet{UserID: 1, Balance: decimal.NewFromInt(1000), Status: models.WalletStatusActive, PinHash: "x"}
	require.NoError(t, f.ledger.CreateWallet(ctx, w))

	result, err := f.transfers.Disburse(ctx, transfer.DisburseRequest{
		SourceWalletID:     w.ID,
		BankCode:           "SANDBOX",
		DestinationAccount: "0123456789",
		Amount:             decimal.NewFromInt(400),
	})
	require.NoError(t, err)

	task, err := f.tasks.Dequeue(ctx, queue.QueueSettlement, 0)
	require.NoError(t, err)
	require.NotNil(t, task)
	return w, result.DebitPayment, task
}

func TestHandleBankTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("completes the pending payment", func(t *testing.T) {
		f := newFixture(t)
		w, payment, task := f.seedPendingTransfer(t)

		f.worker.handle(ctx, task)

		stored, err := f.ledger.GetPaymentByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
		assert.NotEmpty(t, stored.BankReference)
		assert.True(t, f.ledger.Wallet(w.ID).Balance.Equal(decimal.NewFromInt(600)))

		calls := f.sandbox.TransferCalls()
		require.Len(t, calls, 1)
		assert.Equal(t, payment.ReferenceNumber, calls[0].ReferenceNumber)
		assert.True(t, calls[0].Amount.Equal(decimal.NewFromInt(400)))
	})

	t.Run("redelivery is a no-op", func(t *testing.T) {
		f := newFixture(t)
		_, _, task := f.seedPendingTransfer(t)

		f.worker.handle(ctx, task)
		f.worker.handle(ctx, task)

		assert.Len(t, f.sandbox.TransferCalls(), 1)
	})

	t.Run("transient failure re-enqueues with backoff", func(t *testing.T) {
		f := newFixture(t)
		_, payment, task := f.seedPendingTransfer(t)
		f.sandbox.FailNext(1, true)

		f.worker.handle(ctx, task)

		// Still pending, one retry waiting.
		stored, err := f.ledger.GetPaymentByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, stored.Status)
		require.Equal(t, 1, f.tasks.Len(queue.QueueSettlement))

		retry, err := f.tasks.Dequeue(ctx, queue.QueueSettlement, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, retry.Attempts)

		// The retry succeeds.
		f.worker.handle(ctx, retry)
		stored, err = f.ledger.GetPaymentByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
	})

	t.Run("terminal failure marks the payment failed without reversing the debit", func(t *testing.T) {
		f := newFixture(t)
		w, payment, task := f.seedPendingTransfer(t)
		f.sandbox.FailNext(1, false)

		f.worker.handle(ctx, task)

		stored, err := f.ledger.GetPaymentByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, stored.Status)
		assert.Equal(t, 0, f.tasks.Len(queue.QueueSettlement))

		// The committed debit stays committed; recovery is an explicit
		// refund, never an automatic reversal.
		assert.True(t, f.ledger.Wallet(w.ID).Balance.Equal(decimal.NewFromInt(600)))
	})

	t.Run("exhausted retries fail the payment", func(t *testing.T) {
		f := newFixture(t)
		_, payment, task := f.seedPendingTransfer(t)
		f.sandbox.FailNext(10, true)
		task.Attempts = 2 // one attempt left of three

		f.worker.handle(ctx, task)

		stored, err := f.ledger.GetPaymentByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, stored.Status)
		assert.Equal(t, 0, f.tasks.Len(queue.QueueSettlement))
	})
}

func TestSettlementAckProtocol(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *fixture) *models.Payment {
		t.Helper()
		w := &models.Wallet{UserID: 1, Balance: decimal.NewFromInt(1000), Status: models.WalletStatusActive, PinHash: "x"}
		require.NoError(t, f.ledger.CreateWallet(ctx, w))
		result, err := f.transfers.Disburse(ctx, transfer.DisburseRequest{
			SourceWalletID:     w.ID,
			BankCode:           "SANDBOX",
			DestinationAccount: "0123456789",
			Amount:             decimal.NewFromInt(400),
		})
		require.NoError(t, err)
		return result.DebitPayment
	}

	t.Run("a handled task is acked off the processing list", func(t *testing.T) {
		f := newFixture(t)
		payment := seed(t, f)
		require.Equal(t, 1, f.tasks.Len(queue.QueueSettlement))

		require.NoError(t, f.worker.step(ctx))

		stored, err := f.ledger.GetPaymentByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
		assert.Equal(t, 0, f.tasks.Len(queue.QueueSettlement))
		assert.Equal(t, 0, f.tasks.InFlight(queue.QueueSettlement))
	})

	t.Run("a task dequeued by a crashed worker is recovered and completed", func(t *testing.T) {
		f := newFixture(t)
		payment := seed(t, f)

		// A worker dequeues and dies before handling: the task sits on the
		// processing list instead of being gone.
		task, err := f.tasks.Dequeue(ctx, queue.QueueSettlement, 0)
		require.NoError(t, err)
		require.NotNil(t, task)
		require.Equal(t, 0, f.tasks.Len(queue.QueueSettlement))
		require.Equal(t, 1, f.tasks.InFlight(queue.QueueSettlement))

		moved, err := f.tasks.RecoverPending(ctx, queue.QueueSettlement)
		require.NoError(t, err)
		assert.Equal(t, 1, moved)

		require.NoError(t, f.worker.step(ctx))

		stored, err := f.ledger.GetPaymentByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
		assert.Equal(t, 0, f.tasks.InFlight(queue.QueueSettlement))
	})
}

func TestHandleVACreate(t *testing.T) {
	ctx := context.Background()

	seedVA := func(t *testing.T, f *fixture) (*models.VirtualAccount, *queue.Task) {
		t.Helper()
		va := &models.VirtualAccount{
			AccountNumber: "99001234567890",
			TrxID:         "trx-1",
			WalletID:      1,
			BankCode:      "SANDBOX",
			Type:          models.VirtualAccountTypeCredit,
			Status:        models.VirtualAccountStatusPending,
			ExpiresAt:     time.Now().Add(time.Hour),
		}
		require.NoError(t, f.vaRepo.CreateVirtualAccount(ctx, va))
		task, err := queue.NewTask(queue.TaskKindVACreate, virtualaccount.ProvisionPayload{
			AccountNumber: va.AccountNumber,
			TrxID:         va.TrxID,
		})
		require.NoError(t, err)
		return va, task
	}

	t.Run("activates the account on provider success", func(t *testing.T) {
		f := newFixture(t)
		va, task := seedVA(t, f)

		f.worker.handle(ctx, task)

		stored, err := f.vaRepo.GetVirtualAccount(ctx, va.AccountNumber, va.TrxID)
		require.NoError(t, err)
		assert.Equal(t, models.VirtualAccountStatusActive, stored.Status)
		assert.NotEmpty(t, stored.ProviderRef)
	})

	t.Run("terminal failure deactivates the account", func(t *testing.T) {
		f := newFixture(t)
		va, task := seedVA(t, f)
		f.sandbox.FailNext(1, false)

		f.worker.handle(ctx, task)

		stored, err := f.vaRepo.GetVirtualAccount(ctx, va.AccountNumber, va.TrxID)
		require.NoError(t, err)
		assert.Equal(t, models.VirtualAccountStatusInactive, stored.Status)
	})
}

func TestHandlePlanDisburse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	w := &models.Wallet{UserID: 1, Balance: decimal.NewFromInt(1000), Status: models.WalletStatusActive, PinHash: "x"}
	require.NoError(t, f.ledger.CreateWallet(ctx, w))

	plan := &models.PaymentPlan{
		WalletID:           w.ID,
		BankCode:           "SANDBOX",
		DestinationAccount: "0123456789",
		Amount:             decimal.NewFromInt(100),
		Interval:           time.Hour,
		NextDueAt:          time.Now(),
		Remaining:          3,
		Status:             models.PaymentPlanStatusActive,
	}
	require.NoError(t, f.plans.CreatePlan(ctx, plan))

	task, err := queue.NewTask(queue.TaskKindPlanDisburse, PlanPayload{PlanID: plan.ID})
	require.NoError(t, err)

	f.worker.handle(ctx, task)

	// The disbursement debits the wallet and queues its own bank leg.
	assert.True(t, f.ledger.Wallet(w.ID).Balance.Equal(decimal.NewFromInt(900)))
	require.Equal(t, 1, f.tasks.Len(queue.QueueSettlement))

	next, err := f.tasks.Dequeue(ctx, queue.QueueSettlement, 0)
	require.NoError(t, err)
	assert.Equal(t, queue.TaskKindBankTransfer, next.Kind)

	var payload transfer.SettlementPayload
	require.NoError(t, json.Unmarshal(next.Payload, &payload))
	entry, err := f.ledger.GetTransactionByPaymentID(ctx, payload.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypePlanDisburse, entry.Type)
}
