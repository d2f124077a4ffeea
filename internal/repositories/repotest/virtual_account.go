package repotest

import (
	"context"
	"sync"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/repositories"
)

// VirtualAccounts is an in-memory repositories.VirtualAccountRepository.
type VirtualAccounts struct {
	mu          sync.Mutex
	accounts    map[uint]*models.VirtualAccount
	withdraws   map[uint]*models.Withdraw
	nextVA      uint
	nextWd      uint
	skipLookups int
}

// SkipNextActiveLookup makes the next GetActiveVirtualAccount report not
// found, modelling the window where two provisions pass the read check
// before either row is inserted.
func (r *VirtualAccounts) SkipNextActiveLookup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipLookups++
}

func NewVirtualAccounts() *VirtualAccounts {
	return &VirtualAccounts{
		accounts:  make(map[uint]*models.VirtualAccount),
		withdraws: make(map[uint]*models.Withdraw),
		nextVA:    1,
		nextWd:    1,
	}
}

func (r *VirtualAccounts) CreateVirtualAccount(_ context.Context, va *models.VirtualAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.AccountNumber == va.AccountNumber {
			return repositories.ErrDuplicateAccountNumber
		}
		// uniq_live_va: one live VA per (wallet, bank, type).
		if existing.WalletID == va.WalletID && existing.BankCode == va.BankCode &&
			existing.Type == va.Type && existing.Status != models.VirtualAccountStatusInactive {
			return repositories.ErrDuplicateVirtualAccount
		}
	}
	va.ID = r.nextVA
	r.nextVA++
	cp := *va
	r.accounts[va.ID] = &cp
	return nil
}

func (r *VirtualAccounts) GetVirtualAccount(_ context.Context, accountNumber, trxID string) (*models.VirtualAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, va := range r.accounts {
		if va.AccountNumber == accountNumber && va.TrxID == trxID {
			cp := *va
			return &cp, nil
		}
	}
	return nil, repositories.ErrVirtualAccountNotFound
}

func (r *VirtualAccounts) GetActiveVirtualAccount(_ context.Context, walletID uint, bankCode, vaType string) (*models.VirtualAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skipLookups > 0 {
		r.skipLookups--
		return nil, repositories.ErrVirtualAccountNotFound
	}
	for _, va := range r.accounts {
		if va.WalletID == walletID && va.BankCode == bankCode && va.Type == vaType &&
			va.Status != models.VirtualAccountStatusInactive {
			cp := *va
			return &cp, nil
		}
	}
	return nil, repositories.ErrVirtualAccountNotFound
}

func (r *VirtualAccounts) GetVirtualAccountByType(_ context.Context, walletID uint, vaType string) (*models.VirtualAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, va := range r.accounts {
		if va.WalletID == walletID && va.Type == vaType {
			cp := *va
			return &cp, nil
		}
	}
	return nil, repositories.ErrVirtualAccountNotFound
}

func (r *VirtualAccounts) UpdateVirtualAccount(_ context.Context, va *models.VirtualAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[va.ID]; !ok {
		return repositories.ErrVirtualAccountNotFound
	}
	cp := *va
	r.accounts[va.ID] = &cp
	return nil
}

func (r *VirtualAccounts) DeleteVirtualAccountsByType(_ context.Context, walletID uint, vaType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, va := range r.accounts {
		if va.WalletID == walletID && va.Type == vaType {
			delete(r.accounts, id)
		}
	}
	return nil
}

func (r *VirtualAccounts) AccountNumberTaken(_ context.Context, accountNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, va := range r.accounts {
		if va.AccountNumber == accountNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *VirtualAccounts) CreateWithdraw(_ context.Context, w *models.Withdraw) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = r.nextWd
	r.nextWd++
	cp := *w
	r.withdraws[w.ID] = &cp
	return nil
}

func (r *VirtualAccounts) GetActiveWithdraw(_ context.Context, walletID uint, now time.Time) (*models.Withdraw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.withdraws {
		if w.WalletID == walletID && w.ValidUntil.After(now) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repositories.ErrWithdrawNotFound
}

func (r *VirtualAccounts) DeleteWithdraws(_ context.Context, walletID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, w := range r.withdraws {
		if w.WalletID == walletID {
			delete(r.withdraws, id)
		}
	}
	return nil
}

func (r *VirtualAccounts) ExecuteInTransaction(_ context.Context, fn func(repositories.VirtualAccountRepository) error) error {
	snap := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

type vaSnapshot struct {
	accounts  map[uint]*models.VirtualAccount
	withdraws map[uint]*models.Withdraw
	nextVA    uint
	nextWd    uint
}

func (r *VirtualAccounts) snapshot() vaSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := vaSnapshot{
		accounts:  make(map[uint]*models.VirtualAccount, len(r.accounts)),
		withdraws: make(map[uint]*models.Withdraw, len(r.withdraws)),
		nextVA:    r.nextVA,
		nextWd:    r.nextWd,
	}
	for id, va := range r.accounts {
		cp := *va
		snap.accounts[id] = &cp
	}
	for id, w := range r.withdraws {
		cp := *w
		snap.withdraws[id] = &cp
	}
	return snap
}

func (r *VirtualAccounts) restore(snap vaSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = snap.accounts
	r.withdraws = snap.withdraws
	r.nextVA = snap.nextVA
	r.nextWd = snap.nextWd
}

// Accounts returns all stored virtual accounts, for assertions.
func (r *VirtualAccounts) Accounts() []*models.VirtualAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.VirtualAccount, 0, len(r.accounts))
	for _, va := range r.accounts {
		cp := *va
		out = append(out, &cp)
	}
	return out
}

// Withdraws returns all stored withdraw intents, for assertions.
func (r *VirtualAccounts) Withdraws() []*models.Withdraw {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Withdraw, 0, len(r.withdraws))
	for _, w := range r.withdraws {
		cp := *w
		out = append(out, &cp)
	}
	return out
}

// ExpireWithdraws rewrites the validity window of a wallet's withdraw
// intents, for tests exercising TTL behaviour.
func (r *VirtualAccounts) ExpireWithdraws(walletID uint, until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.withdraws {
		if w.WalletID == walletID {
			w.ValidUntil = until
		}
	}
}
