package callback

import (
	"context"
	"crypto/subtle"
	"log"
	"strconv"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/repositories"
	"lumapay/internal/services/ledger"
	"lumapay/internal/services/virtualaccount"
	"lumapay/internal/services/wallet"

	"github.com/shopspring/decimal"
)

// Service applies bank settlement notifications.
type Service interface {
	Apply(ctx context.Context, n Notification) (*Result, error)
}

type service struct {
	ledgerRepo repositories.LedgerRepository
	vaRepo     repositories.VirtualAccountRepository
	accounts   virtualaccount.Service
	cache      wallet.Cache
	config     Config
}

// NewService creates a new callback service instance.
func NewService(
	ledgerRepo repositories.LedgerRepository,
	vaRepo repositories.VirtualAccountRepository,
	accounts virtualaccount.Service,
	cache wallet.Cache,
	config Config,
) Service {
	if ledgerRepo == nil {
		panic("ledger repo is required")
	}
	if vaRepo == nil {
		panic("virtual account repo is required")
	}
	if accounts == nil {
		panic("virtual account service is required")
	}
	return &service{
		ledgerRepo: ledgerRepo,
		vaRepo:     vaRepo,
		accounts:   accounts,
		cache:      cache,
		config:     config,
	}
}

func (s *service) Apply(ctx context.Context, n Notification) (*Result, error) {
	va, err := s.accounts.Resolve(ctx, n.AccountNumber, n.TrxID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(va.BankCode, n.ChannelKey); err != nil {
		return nil, err
	}
	if va.Status == models.VirtualAccountStatusInactive || va.Expired(time.Now()) {
		return nil, ErrAccountInactive
	}
	if err := checkSign(va, n.Amount); err != nil {
		return nil, err
	}

	// Cheap pre-check; the unique index on reference_number is the real
	// guard against a replay racing past this read.
	if existing, err := s.ledgerRepo.GetPaymentByReference(ctx, n.ReferenceNumber); err == nil {
		return &Result{Payment: existing, Duplicate: true}, nil
	} else if err != repositories.ErrPaymentNotFound {
		return nil, err
	}

	result := &Result{}
	err = s.ledgerRepo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		locked, err := tx.LockWallets(ctx, va.WalletID)
		if err != nil {
			return err
		}
		w := locked[va.WalletID]

		payment := &models.Payment{
			SourceAccount:      n.AccountNumber,
			DestinationAccount: walletAccount(w.ID),
			Amount:             n.Amount,
			ReferenceNumber:    n.ReferenceNumber,
			Direction:          models.PaymentDirectionCredit,
			Status:             models.PaymentStatusCompleted,
			Channel:            models.PaymentChannelCallback,
			BankCode:           va.BankCode,
		}
		txType := models.TransactionTypeDeposit
		if n.Amount.Sign() < 0 {
			payment.SourceAccount = walletAccount(w.ID)
			payment.DestinationAccount = n.AccountNumber
			payment.Direction = models.PaymentDirectionDebit
			txType = models.TransactionTypeWithdrawal
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return err
		}

		var entry *models.Transaction
		if n.Amount.Sign() < 0 {
			entry, err = ledger.Debit(ctx, tx, w, payment.ID, n.Amount.Abs(), txType, "bank settlement "+n.ReferenceNumber)
		} else {
			entry, err = ledger.Credit(ctx, tx, w, payment.ID, n.Amount, txType, "bank settlement "+n.ReferenceNumber)
		}
		if err != nil {
			return err
		}

		result.Payment = payment
		result.Entry = entry
		return nil
	})
	if err != nil {
		// A replay that raced past the pre-check lands here.
		if err == repositories.ErrDuplicateReference {
			existing, lookupErr := s.ledgerRepo.GetPaymentByReference(ctx, n.ReferenceNumber)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return &Result{Payment: existing, Duplicate: true}, nil
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateWallet(ctx, va.WalletID)
	}
	if n.Amount.Sign() < 0 {
		s.retireWithdrawal(ctx, va)
	}
	return result, nil
}

// authorize compares the channel key in constant time. Banks without a
// dedicated key share the "default" channel.
func (s *service) authorize(bankCode, key string) error {
	expected, ok := s.config.ChannelKeys[bankCode]
	if !ok {
		expected, ok = s.config.ChannelKeys["default"]
	}
	if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(key)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// retireWithdrawal consumes the wallet's withdraw intent and retires the
// single-use debit VA once its cash has been dispensed. Both updates are
// idempotent, so a crash between commit and here only delays cleanup.
func (s *service) retireWithdrawal(ctx context.Context, va *models.VirtualAccount) {
	if err := s.vaRepo.DeleteWithdraws(ctx, va.WalletID); err != nil {
		log.Printf("failed to consume withdraw intent for wallet %d: %v", va.WalletID, err)
	}
	va.Status = models.VirtualAccountStatusInactive
	if err := s.vaRepo.UpdateVirtualAccount(ctx, va); err != nil {
		log.Printf("failed to retire debit VA %s: %v", va.AccountNumber, err)
	}
}

func checkSign(va *models.VirtualAccount, amount decimal.Decimal) error {
	switch {
	case amount.IsZero():
		return ErrAmountMismatch
	case va.Type == models.VirtualAccountTypeCredit && amount.Sign() < 0:
		return ErrAmountMismatch
	case va.Type == models.VirtualAccountTypeDebit && amount.Sign() > 0:
		return ErrAmountMismatch
	}
	return nil
}

func walletAccount(id uint) string {
	return "wallet:" + strconv.FormatUint(uint64(id), 10)
}
