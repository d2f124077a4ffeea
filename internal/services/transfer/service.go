package transfer

import (
	"context"
	"fmt"
	"log"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/queue"
	"lumapay/internal/repositories"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/ledger"
	"lumapay/internal/services/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// service implements the transfer Service interface.
type service struct {
	repo     repositories.LedgerRepository
	wallets  wallet.Service
	banks    *bank.Registry
	tasks    queue.Queue
	cache    wallet.Cache
	notifier Notifier
	config   Config
	metrics  wallet.MetricsCollector
}

// NewService creates a new transfer service instance.
func NewService(
	repo repositories.LedgerRepository,
	wallets wallet.Service,
	banks *bank.Registry,
	tasks queue.Queue,
	cache wallet.Cache,
	notifier Notifier,
	config Config,
	metrics wallet.MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if config.SerializationRetries <= 0 {
		config.SerializationRetries = 3
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 25 * time.Millisecond
	}
	if metrics == nil {
		metrics = &wallet.NoopMetricsCollector{}
	}
	return &service{
		repo:     repo,
		wallets:  wallets,
		banks:    banks,
		tasks:    tasks,
		cache:    cache,
		notifier: notifier,
		config:   config,
		metrics:  metrics,
	}
}

func (s *service) TransferInternal(ctx context.Context, req InternalRequest) (*Result, error) {
	if err := s.checkAmount(req.Amount); err != nil {
		return nil, err
	}

	source, err := s.wallets.Resolve(ctx, req.SourceWalletID)
	if err != nil {
		return nil, err
	}
	if source.Locked() {
		return nil, wallet.ErrWalletLocked
	}
	if err := s.wallets.Authenticate(ctx, source, req.Pin); err != nil {
		return nil, err
	}
	if source.Balance.LessThan(req.Amount) {
		return nil, ledger.ErrInsufficientBalance
	}
	if _, err := s.wallets.ResolveDestination(ctx, req.DestinationWalletID, source); err != nil {
		return nil, err
	}

	result := &Result{}
	err = s.withRetry(ctx, func() error {
		return s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
			locked, err := tx.LockWallets(ctx, req.SourceWalletID, req.DestinationWalletID)
			if err != nil {
				return err
			}
			src := locked[req.SourceWalletID]
			dst := locked[req.DestinationWalletID]
			if src.Locked() || dst.Locked() {
				return wallet.ErrWalletLocked
			}

			debitPayment := &models.Payment{
				SourceAccount:      walletAccount(src.ID),
				DestinationAccount: walletAccount(dst.ID),
				Amount:             req.Amount.Neg(),
				ReferenceNumber:    uuid.NewString(),
				Direction:          models.PaymentDirectionDebit,
				Status:             models.PaymentStatusCompleted,
				Channel:            models.PaymentChannelInternal,
			}
			if err := tx.CreatePayment(ctx, debitPayment); err != nil {
				return err
			}
			debitEntry, err := ledger.Debit(ctx, tx, src, debitPayment.ID, req.Amount, models.TransactionTypeTransfer, req.Notes)
			if err != nil {
				return err
			}

			creditPayment := &models.Payment{
				SourceAccount:      walletAccount(src.ID),
				DestinationAccount: walletAccount(dst.ID),
				Amount:             req.Amount,
				ReferenceNumber:    uuid.NewString(),
				Direction:          models.PaymentDirectionCredit,
				Status:             models.PaymentStatusCompleted,
				Channel:            models.PaymentChannelInternal,
			}
			if err := tx.CreatePayment(ctx, creditPayment); err != nil {
				return err
			}
			creditEntry, err := ledger.Credit(ctx, tx, dst, creditPayment.ID, req.Amount, models.TransactionTypeTransfer, req.Notes)
			if err != nil {
				return err
			}

			result.DebitPayment = debitPayment
			result.CreditPayment = creditPayment
			result.DebitEntry = debitEntry
			result.CreditEntry = creditEntry
			return nil
		})
	})
	if err != nil {
		s.metrics.RecordError("transfer_internal", err.Error())
		return nil, err
	}

	s.invalidate(ctx, req.SourceWalletID, req.DestinationWalletID)
	s.notify(ctx, req.SourceWalletID, result.DebitPayment)
	s.notify(ctx, req.DestinationWalletID, result.CreditPayment)
	s.metrics.RecordTransaction(models.TransactionTypeTransfer, req.Amount)
	return result, nil
}

func (s *service) TransferExternal(ctx context.Context, req ExternalRequest) (*Result, error) {
	if err := s.checkAmount(req.Amount); err != nil {
		return nil, err
	}

	source, err := s.wallets.Resolve(ctx, req.SourceWalletID)
	if err != nil {
		return nil, err
	}
	if source.Locked() {
		return nil, wallet.ErrWalletLocked
	}
	if err := s.wallets.Authenticate(ctx, source, req.Pin); err != nil {
		return nil, err
	}

	return s.external(ctx, req.SourceWalletID, req.BankCode, req.DestinationAccount, req.Amount, models.TransactionTypeTransfer, req.Notes)
}

func (s *service) Disburse(ctx context.Context, req DisburseRequest) (*Result, error) {
	if err := s.checkAmount(req.Amount); err != nil {
		return nil, err
	}
	txType := req.TransactionType
	if txType == "" {
		txType = models.TransactionTypeTransfer
	}
	return s.external(ctx, req.SourceWalletID, req.BankCode, req.DestinationAccount, req.Amount, txType, req.Notes)
}

// external debits the source and records a pending bank-leg payment in one
// storage transaction, then enqueues the settlement task. The wallet lock
// is never held across the bank call; that is the worker's problem.
func (s *service) external(ctx context.Context, walletID uint, bankCode, destination string, amount decimal.Decimal, txType, notes string) (*Result, error) {
	if s.banks != nil {
		if _, err := s.banks.Lookup(bankCode); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	err := s.withRetry(ctx, func() error {
		return s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
			locked, err := tx.LockWallets(ctx, walletID)
			if err != nil {
				return err
			}
			src := locked[walletID]
			if src.Locked() {
				return wallet.ErrWalletLocked
			}

			payment := &models.Payment{
				SourceAccount:      walletAccount(src.ID),
				DestinationAccount: destination,
				Amount:             amount.Neg(),
				ReferenceNumber:    uuid.NewString(),
				Direction:          models.PaymentDirectionDebit,
				Status:             models.PaymentStatusPending,
				Channel:            models.PaymentChannelBank,
				BankCode:           bankCode,
			}
			if err := tx.CreatePayment(ctx, payment); err != nil {
				return err
			}
			entry, err := ledger.Debit(ctx, tx, src, payment.ID, amount, txType, notes)
			if err != nil {
				return err
			}

			result.DebitPayment = payment
			result.DebitEntry = entry
			return nil
		})
	})
	if err != nil {
		s.metrics.RecordError("transfer_external", err.Error())
		return nil, err
	}

	s.invalidate(ctx, walletID)
	s.metrics.RecordTransaction(txType, amount)

	if err := s.enqueueSettlement(ctx, result.DebitPayment); err != nil {
		// The debit is committed; the payment stays pending and is picked
		// up by reconciliation rather than rolled back.
		log.Printf("failed to enqueue settlement for payment %d: %v", result.DebitPayment.ID, err)
	}
	return result, nil
}

// SettlementPayload is the queue payload for a bank transfer task.
type SettlementPayload struct {
	PaymentID uint `json:"payment_id"`
}

func (s *service) enqueueSettlement(ctx context.Context, payment *models.Payment) error {
	if s.tasks == nil {
		return nil
	}
	task, err := queue.NewTask(queue.TaskKindBankTransfer, SettlementPayload{PaymentID: payment.ID})
	if err != nil {
		return err
	}
	return s.tasks.Enqueue(ctx, queue.QueueSettlement, task)
}

func (s *service) Refund(ctx context.Context, paymentID uint) (*Result, error) {
	payment, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		if err == repositories.ErrPaymentNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	// No refund chains: a refund payment is never itself refundable.
	if payment.RefundOfID != nil {
		return nil, ErrRefundNotAllowed
	}
	if payment.Status == models.PaymentStatusRefunded {
		return nil, ErrAlreadyRefunded
	}
	if payment.Status != models.PaymentStatusCompleted {
		return nil, ErrRefundNotAllowed
	}

	entry, err := s.repo.GetTransactionByPaymentID(ctx, paymentID)
	if err != nil {
		if err == repositories.ErrTransactionNotFound {
			return nil, ErrRefundNotAllowed
		}
		return nil, err
	}

	result := &Result{}
	err = s.withRetry(ctx, func() error {
		return s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
			locked, err := tx.LockWallets(ctx, entry.WalletID)
			if err != nil {
				return err
			}
			w := locked[entry.WalletID]

			refund := &models.Payment{
				SourceAccount:      payment.DestinationAccount,
				DestinationAccount: payment.SourceAccount,
				Amount:             payment.Amount.Neg(),
				ReferenceNumber:    uuid.NewString(),
				Direction:          inverseDirection(payment.Direction),
				Status:             models.PaymentStatusCompleted,
				Channel:            payment.Channel,
				RefundOfID:         &payment.ID,
			}
			if err := tx.CreatePayment(ctx, refund); err != nil {
				return err
			}

			amount := entry.Amount.Abs()
			var refundEntry *models.Transaction
			if entry.Amount.Sign() < 0 {
				refundEntry, err = ledger.Credit(ctx, tx, w, refund.ID, amount, models.TransactionTypeRefund, "refund of payment "+payment.ReferenceNumber)
			} else {
				refundEntry, err = ledger.Debit(ctx, tx, w, refund.ID, amount, models.TransactionTypeRefund, "refund of payment "+payment.ReferenceNumber)
			}
			if err != nil {
				return err
			}

			payment.Status = models.PaymentStatusRefunded
			if err := tx.UpdatePayment(ctx, payment); err != nil {
				return err
			}

			result.DebitPayment = refund
			result.DebitEntry = refundEntry
			return nil
		})
	})
	if err != nil {
		s.metrics.RecordError("refund", err.Error())
		return nil, err
	}

	s.invalidate(ctx, entry.WalletID)
	s.metrics.RecordTransaction(models.TransactionTypeRefund, payment.Amount.Abs())
	return result, nil
}

func (s *service) checkAmount(amount decimal.Decimal) error {
	if !s.config.MinAmount.IsZero() && amount.LessThan(s.config.MinAmount) {
		return ErrAmountTooSmall
	}
	if amount.Sign() <= 0 {
		return ErrAmountTooSmall
	}
	if !s.config.MaxAmount.IsZero() && amount.GreaterThan(s.config.MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// withRetry re-runs op on storage serialization or deadlock failures, a
// small fixed number of times with exponential backoff. Anything else
// surfaces immediately.
func (s *service) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < s.config.SerializationRetries; attempt++ {
		err = op()
		if err == nil || !repositories.IsSerializationFailure(err) {
			return err
		}
		delay := s.config.RetryBaseDelay << uint(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%w: %v", ErrTransferFailed, err)
}

func (s *service) invalidate(ctx context.Context, walletIDs ...uint) {
	if s.cache == nil {
		return
	}
	for _, id := range walletIDs {
		_ = s.cache.InvalidateWallet(ctx, id)
	}
}

func (s *service) notify(ctx context.Context, walletID uint, payment *models.Payment) {
	if s.notifier != nil {
		_ = s.notifier.SendTransferNotification(ctx, walletID, payment)
	}
}

func inverseDirection(direction string) string {
	if direction == models.PaymentDirectionDebit {
		return models.PaymentDirectionCredit
	}
	return models.PaymentDirectionDebit
}
