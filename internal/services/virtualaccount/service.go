package virtualaccount

import (
	"context"
	"errors"
	"log"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/queue"
	"lumapay/internal/repositories"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/ledger"
	"lumapay/internal/services/wallet"
	"lumapay/internal/utils"

	"github.com/google/uuid"
)

const defaultNumberLength = 10

// ProvisionPayload is the queue payload for a VA creation task.
type ProvisionPayload struct {
	AccountNumber string `json:"account_number"`
	TrxID         string `json:"trx_id"`
}

type service struct {
	repo    repositories.VirtualAccountRepository
	wallets wallet.Service
	banks   *bank.Registry
	tasks   queue.Queue
	config  Config
}

// NewService creates a new virtual account service instance.
func NewService(repo repositories.VirtualAccountRepository, wallets wallet.Service, banks *bank.Registry, tasks queue.Queue, config Config) Service {
	if repo == nil {
		panic("repo is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if banks == nil {
		panic("bank registry is required")
	}
	if config.NumberAttempts <= 0 {
		config.NumberAttempts = 5
	}
	if config.NumberLength <= 0 {
		config.NumberLength = defaultNumberLength
	}
	return &service{repo: repo, wallets: wallets, banks: banks, tasks: tasks, config: config}
}

func (s *service) Provision(ctx context.Context, req ProvisionRequest) (*models.VirtualAccount, error) {
	entry, err := s.banks.Lookup(req.BankCode)
	if err != nil {
		return nil, err
	}
	w, err := s.wallets.Resolve(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case models.VirtualAccountTypeCredit:
		return s.provisionCredit(ctx, req, entry)
	case models.VirtualAccountTypeDebit:
		return s.provisionDebit(ctx, req, entry, w)
	default:
		return nil, ErrInvalidType
	}
}

// provisionCredit fails fast on a live duplicate; an expired credit VA is
// re-armed in place so the wallet keeps its deposit number.
func (s *service) provisionCredit(ctx context.Context, req ProvisionRequest, entry bank.Entry) (*models.VirtualAccount, error) {
	existing, err := s.repo.GetActiveVirtualAccount(ctx, req.WalletID, req.BankCode, models.VirtualAccountTypeCredit)
	if err != nil && err != repositories.ErrVirtualAccountNotFound {
		return nil, err
	}
	if existing != nil {
		if !existing.Expired(time.Now()) {
			return nil, ErrVirtualAccountExists
		}
		if err := s.Reactivate(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	return s.create(ctx, req.WalletID, entry, models.VirtualAccountTypeCredit, s.config.CreditExpiry)
}

// provisionDebit replaces any previous debit VA, gated by the wallet's
// withdraw intent slot, and records a fresh intent in the same transaction.
// The withdrawal is PIN-authenticated and balance-checked here; the callback
// re-checks the balance when the cash actually leaves.
func (s *service) provisionDebit(ctx context.Context, req ProvisionRequest, entry bank.Entry, w *models.Wallet) (*models.VirtualAccount, error) {
	if err := s.wallets.Authenticate(ctx, w, req.Pin); err != nil {
		return nil, err
	}
	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if w.Balance.LessThan(req.Amount) {
		return nil, ledger.ErrInsufficientBalance
	}

	pending, err := s.repo.GetActiveWithdraw(ctx, req.WalletID, time.Now())
	if err != nil && err != repositories.ErrWithdrawNotFound {
		return nil, err
	}
	if pending != nil {
		return nil, ErrWithdrawPending
	}

	number, err := s.allocateNumber(ctx, entry)
	if err != nil {
		return nil, err
	}
	va := newVirtualAccount(req.WalletID, entry.Code, number, models.VirtualAccountTypeDebit, s.config.DebitExpiry)

	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.VirtualAccountRepository) error {
		if err := tx.DeleteVirtualAccountsByType(ctx, req.WalletID, models.VirtualAccountTypeDebit); err != nil {
			return err
		}
		if err := tx.DeleteWithdraws(ctx, req.WalletID); err != nil {
			return err
		}
		if err := tx.CreateVirtualAccount(ctx, va); err != nil {
			return err
		}
		return tx.CreateWithdraw(ctx, &models.Withdraw{
			WalletID:   req.WalletID,
			Amount:     req.Amount,
			ValidUntil: time.Now().Add(s.config.WithdrawTTL),
		})
	})
	if err != nil {
		// A racing debit provision that committed first surfaces as the
		// live-VA unique index; treat it like its withdraw intent.
		if errors.Is(err, repositories.ErrDuplicateVirtualAccount) {
			return nil, ErrWithdrawPending
		}
		return nil, err
	}

	s.enqueueCreate(ctx, va)
	return va, nil
}

func (s *service) create(ctx context.Context, walletID uint, entry bank.Entry, vaType string, expiry time.Duration) (*models.VirtualAccount, error) {
	number, err := s.allocateNumber(ctx, entry)
	if err != nil {
		return nil, err
	}
	va := newVirtualAccount(walletID, entry.Code, number, vaType, expiry)
	if err := s.repo.CreateVirtualAccount(ctx, va); err != nil {
		// A concurrent provision can win the race between the read check
		// and this insert; the partial unique index reports it.
		if errors.Is(err, repositories.ErrDuplicateVirtualAccount) {
			return nil, ErrVirtualAccountExists
		}
		if repositories.IsUniqueViolation(err) || err == repositories.ErrDuplicateAccountNumber {
			return nil, ErrNumberExhausted
		}
		return nil, err
	}
	s.enqueueCreate(ctx, va)
	return va, nil
}

func (s *service) Reactivate(ctx context.Context, va *models.VirtualAccount) error {
	expiry := s.config.CreditExpiry
	if va.Type == models.VirtualAccountTypeDebit {
		expiry = s.config.DebitExpiry
	}
	va.TrxID = uuid.NewString()
	va.Status = models.VirtualAccountStatusPending
	va.ExpiresAt = time.Now().Add(expiry)
	if err := s.repo.UpdateVirtualAccount(ctx, va); err != nil {
		return err
	}
	s.enqueueCreate(ctx, va)
	return nil
}

func (s *service) Resolve(ctx context.Context, accountNumber, trxID string) (*models.VirtualAccount, error) {
	va, err := s.repo.GetVirtualAccount(ctx, accountNumber, trxID)
	if err != nil {
		if err == repositories.ErrVirtualAccountNotFound {
			return nil, ErrVirtualAccountNotFound
		}
		return nil, err
	}
	return va, nil
}

// allocateNumber draws prefix+random-digit numbers until one is free.
// Collisions between the check and the insert still surface as a unique
// violation on the insert itself.
func (s *service) allocateNumber(ctx context.Context, entry bank.Entry) (string, error) {
	for i := 0; i < s.config.NumberAttempts; i++ {
		digits, err := utils.RandomDigits(s.config.NumberLength)
		if err != nil {
			return "", err
		}
		number := entry.AccountPrefix + digits
		taken, err := s.repo.AccountNumberTaken(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", ErrNumberExhausted
}

func newVirtualAccount(walletID uint, bankCode, number, vaType string, expiry time.Duration) *models.VirtualAccount {
	return &models.VirtualAccount{
		AccountNumber: number,
		TrxID:         uuid.NewString(),
		WalletID:      walletID,
		BankCode:      bankCode,
		Type:          vaType,
		Status:        models.VirtualAccountStatusPending,
		ExpiresAt:     time.Now().Add(expiry),
	}
}

func (s *service) enqueueCreate(ctx context.Context, va *models.VirtualAccount) {
	if s.tasks == nil {
		return
	}
	task, err := queue.NewTask(queue.TaskKindVACreate, ProvisionPayload{
		AccountNumber: va.AccountNumber,
		TrxID:         va.TrxID,
	})
	if err != nil {
		log.Printf("failed to build va_create task for %s: %v", va.AccountNumber, err)
		return
	}
	if err := s.tasks.Enqueue(ctx, queue.QueueSettlement, task); err != nil {
		log.Printf("failed to enqueue va_create for %s: %v", va.AccountNumber, err)
	}
}
