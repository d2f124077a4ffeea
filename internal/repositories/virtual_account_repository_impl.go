package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lumapay/internal/models"

	"gorm.io/gorm"
)

type virtualAccountRepository struct {
	db *gorm.DB
}

// NewVirtualAccountRepository creates a GORM-backed VirtualAccountRepository.
func NewVirtualAccountRepository(db *gorm.DB) VirtualAccountRepository {
	return &virtualAccountRepository{db: db}
}

func (r *virtualAccountRepository) CreateVirtualAccount(ctx context.Context, va *models.VirtualAccount) error {
	if err := r.db.WithContext(ctx).Create(va).Error; err != nil {
		if UniqueConstraint(err) == "uniq_live_va" {
			return ErrDuplicateVirtualAccount
		}
		if IsUniqueViolation(err) {
			return ErrDuplicateAccountNumber
		}
		return fmt.Errorf("failed to create virtual account: %w", err)
	}
	return nil
}

func (r *virtualAccountRepository) GetVirtualAccount(ctx context.Context, accountNumber, trxID string) (*models.VirtualAccount, error) {
	var va models.VirtualAccount
	err := r.db.WithContext(ctx).
		Where("account_number = ? AND trx_id = ?", accountNumber, trxID).
		First(&va).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVirtualAccountNotFound
		}
		return nil, fmt.Errorf("failed to get virtual account: %w", err)
	}
	return &va, nil
}

func (r *virtualAccountRepository) GetActiveVirtualAccount(ctx context.Context, walletID uint, bankCode, vaType string) (*models.VirtualAccount, error) {
	var va models.VirtualAccount
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND bank_code = ? AND type = ? AND status IN ?",
			walletID, bankCode, vaType,
			[]string{models.VirtualAccountStatusPending, models.VirtualAccountStatusActive}).
		First(&va).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVirtualAccountNotFound
		}
		return nil, fmt.Errorf("failed to get active virtual account: %w", err)
	}
	return &va, nil
}

func (r *virtualAccountRepository) GetVirtualAccountByType(ctx context.Context, walletID uint, vaType string) (*models.VirtualAccount, error) {
	var va models.VirtualAccount
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND type = ?", walletID, vaType).
		First(&va).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVirtualAccountNotFound
		}
		return nil, fmt.Errorf("failed to get virtual account: %w", err)
	}
	return &va, nil
}

func (r *virtualAccountRepository) UpdateVirtualAccount(ctx context.Context, va *models.VirtualAccount) error {
	if err := r.db.WithContext(ctx).Save(va).Error; err != nil {
		return fmt.Errorf("failed to update virtual account: %w", err)
	}
	return nil
}

func (r *virtualAccountRepository) DeleteVirtualAccountsByType(ctx context.Context, walletID uint, vaType string) error {
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND type = ?", walletID, vaType).
		Delete(&models.VirtualAccount{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete virtual accounts: %w", err)
	}
	return nil
}

func (r *virtualAccountRepository) AccountNumberTaken(ctx context.Context, accountNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VirtualAccount{}).
		Where("account_number = ?", accountNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check account number: %w", err)
	}
	return count > 0, nil
}

func (r *virtualAccountRepository) CreateWithdraw(ctx context.Context, w *models.Withdraw) error {
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("failed to create withdraw intent: %w", err)
	}
	return nil
}

func (r *virtualAccountRepository) GetActiveWithdraw(ctx context.Context, walletID uint, now time.Time) (*models.Withdraw, error) {
	var w models.Withdraw
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND valid_until > ?", walletID, now).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawNotFound
		}
		return nil, fmt.Errorf("failed to get withdraw intent: %w", err)
	}
	return &w, nil
}

func (r *virtualAccountRepository) DeleteWithdraws(ctx context.Context, walletID uint) error {
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Delete(&models.Withdraw{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete withdraw intents: %w", err)
	}
	return nil
}

func (r *virtualAccountRepository) ExecuteInTransaction(ctx context.Context, fn func(VirtualAccountRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&virtualAccountRepository{db: tx})
	})
}
