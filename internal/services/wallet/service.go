package wallet

import (
	"context"
	"fmt"

	"lumapay/internal/models"
	"lumapay/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

type service struct {
	repo    repositories.LedgerRepository
	cache   Cache
	config  Config
	metrics MetricsCollector
}

// NewService creates a new wallet service.
func NewService(repo repositories.LedgerRepository, cache Cache, config Config, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if config.PinAttemptLimit <= 0 {
		config.PinAttemptLimit = DefaultPinAttemptLimit
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		repo:    repo,
		cache:   cache,
		config:  config,
		metrics: metrics,
	}
}

func (s *service) CreateWallet(ctx context.Context, userID uint, pin string) (*models.Wallet, error) {
	if !validPin(pin) {
		return nil, ErrInvalidPin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pin: %w", err)
	}

	wallet := &models.Wallet{
		UserID:  userID,
		PinHash: string(hash),
		Status:  models.WalletStatusActive,
	}
	if err := s.repo.CreateWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.CacheWallet(ctx, wallet)
	}
	return wallet, nil
}

func (s *service) Resolve(ctx context.Context, walletID uint) (*models.Wallet, error) {
	if s.cache != nil {
		if wallet, err := s.cache.GetWallet(ctx, walletID); err == nil {
			return wallet, nil
		}
	}

	wallet, err := s.repo.GetWalletByID(ctx, walletID)
	if err != nil {
		if err == repositories.ErrWalletNotFound {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.CacheWallet(ctx, wallet)
	}
	return wallet, nil
}

// Authenticate verifies the PIN and maintains the persisted attempt
// counter. The counter lives on the wallet row so lockout survives process
// restarts and is shared by every worker process.
func (s *service) Authenticate(ctx context.Context, wallet *models.Wallet, pin string) error {
	if wallet.Locked() {
		s.metrics.RecordError("authenticate", "wallet_locked")
		return ErrWalletLocked
	}

	// The wallet copy here may be stale (cache, or a read predating a
	// concurrent debit), so only the auth-state columns are written back.
	if bcrypt.CompareHashAndPassword([]byte(wallet.PinHash), []byte(pin)) == nil {
		if wallet.PinAttempts != 0 {
			wallet.PinAttempts = 0
			if err := s.repo.UpdateWalletAuthState(ctx, wallet.ID, 0, wallet.Status, wallet.StatusReason); err != nil {
				return fmt.Errorf("failed to reset pin attempts: %w", err)
			}
			s.invalidate(ctx, wallet.ID)
		}
		s.metrics.RecordOperationResult("authenticate", "ok")
		return nil
	}

	wallet.PinAttempts++
	locked := wallet.PinAttempts >= s.config.PinAttemptLimit
	if locked {
		wallet.Status = models.WalletStatusLocked
		wallet.StatusReason = "pin attempt limit reached"
	}
	if err := s.repo.UpdateWalletAuthState(ctx, wallet.ID, wallet.PinAttempts, wallet.Status, wallet.StatusReason); err != nil {
		return fmt.Errorf("failed to record pin attempt: %w", err)
	}
	s.invalidate(ctx, wallet.ID)

	if locked {
		s.metrics.RecordError("authenticate", "max_pin_attempts")
		return ErrMaxPinAttempts
	}
	s.metrics.RecordError("authenticate", "incorrect_pin")
	return ErrIncorrectPin
}

func (s *service) ResolveDestination(ctx context.Context, destinationID uint, source *models.Wallet) (*models.Wallet, error) {
	dest, err := s.Resolve(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if dest.Locked() {
		return nil, ErrWalletLocked
	}
	if dest.ID == source.ID {
		return nil, ErrSameWallet
	}
	return dest, nil
}

// Unlock clears the lock and the attempt counter. This is the
// administrative recovery path after a PIN lockout.
func (s *service) Unlock(ctx context.Context, walletID uint) error {
	err := s.repo.UpdateWalletAuthState(ctx, walletID, 0, models.WalletStatusActive, "")
	if err != nil {
		if err == repositories.ErrWalletNotFound {
			return ErrWalletNotFound
		}
		return fmt.Errorf("failed to unlock wallet: %w", err)
	}
	s.invalidate(ctx, walletID)
	return nil
}

func (s *service) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, int64, error) {
	history, err := s.repo.ListTransactions(ctx, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}
	total, err := s.repo.CountTransactions(ctx, walletID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transaction history: %w", err)
	}
	return history, total, nil
}

func (s *service) invalidate(ctx context.Context, walletID uint) {
	if s.cache != nil {
		_ = s.cache.InvalidateWallet(ctx, walletID)
	}
}

func validPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
