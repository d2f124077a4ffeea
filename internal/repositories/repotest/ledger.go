// Package repotest provides in-memory repository and queue implementations
// for tests. The ledger fake snapshots its state around
// ExecuteInTransaction so rollback semantics match the real store.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"lumapay/internal/models"
	"lumapay/internal/repositories"
)

// ErrStorageFailure is returned by writes armed with FailCreatePayment or
// FailCreateTransaction, for forcing mid-transaction rollbacks in tests.
var ErrStorageFailure = errors.New("simulated storage failure")

// Ledger is an in-memory repositories.LedgerRepository.
type Ledger struct {
	mu           sync.Mutex
	wallets      map[uint]*models.Wallet
	transactions []models.Transaction
	payments     map[uint]*models.Payment
	nextWallet   uint
	nextTx       uint
	nextPayment  uint

	paymentCalls  int
	failPaymentAt int
	txCalls       int
	failTxAt      int
}

// FailCreatePayment arms the fake so the nth CreatePayment call from now
// returns ErrStorageFailure.
func (l *Ledger) FailCreatePayment(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paymentCalls = 0
	l.failPaymentAt = n
}

// FailCreateTransaction arms the fake so the nth CreateTransaction call
// from now returns ErrStorageFailure.
func (l *Ledger) FailCreateTransaction(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txCalls = 0
	l.failTxAt = n
}

func NewLedger() *Ledger {
	return &Ledger{
		wallets:     make(map[uint]*models.Wallet),
		payments:    make(map[uint]*models.Payment),
		nextWallet:  1,
		nextTx:      1,
		nextPayment: 1,
	}
}

func (l *Ledger) CreateWallet(_ context.Context, w *models.Wallet) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w.ID == 0 {
		w.ID = l.nextWallet
		l.nextWallet++
	} else if w.ID >= l.nextWallet {
		l.nextWallet = w.ID + 1
	}
	cp := *w
	l.wallets[w.ID] = &cp
	return nil
}

func (l *Ledger) GetWalletByID(_ context.Context, id uint) (*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.wallets[id]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (l *Ledger) GetWalletsByUserID(_ context.Context, userID uint) ([]*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.Wallet
	for _, w := range l.wallets {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *Ledger) UpdateWallet(_ context.Context, w *models.Wallet) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.wallets[w.ID]; !ok {
		return repositories.ErrWalletNotFound
	}
	cp := *w
	l.wallets[w.ID] = &cp
	return nil
}

func (l *Ledger) UpdateWalletAuthState(_ context.Context, walletID uint, attempts int, status, statusReason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.wallets[walletID]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	w.PinAttempts = attempts
	w.Status = status
	w.StatusReason = statusReason
	return nil
}

func (l *Ledger) LockWallets(_ context.Context, ids ...uint) (map[uint]*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[uint]*models.Wallet, len(ids))
	for _, id := range ids {
		w, ok := l.wallets[id]
		if !ok {
			return nil, repositories.ErrWalletNotFound
		}
		cp := *w
		out[id] = &cp
	}
	return out, nil
}

func (l *Ledger) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txCalls++
	if l.failTxAt > 0 && l.txCalls == l.failTxAt {
		return ErrStorageFailure
	}
	tx.ID = l.nextTx
	l.nextTx++
	l.transactions = append(l.transactions, *tx)
	return nil
}

func (l *Ledger) GetTransactionByID(_ context.Context, id uint) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.transactions {
		if l.transactions[i].ID == id {
			cp := l.transactions[i]
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (l *Ledger) GetTransactionByPaymentID(_ context.Context, paymentID uint) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.transactions {
		if l.transactions[i].PaymentID == paymentID {
			cp := l.transactions[i]
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (l *Ledger) ListTransactions(_ context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Transaction
	for i := len(l.transactions) - 1; i >= 0; i-- {
		if l.transactions[i].WalletID == walletID {
			out = append(out, l.transactions[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (l *Ledger) CountTransactions(_ context.Context, walletID uint) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var count int64
	for i := range l.transactions {
		if l.transactions[i].WalletID == walletID {
			count++
		}
	}
	return count, nil
}

func (l *Ledger) CreatePayment(_ context.Context, p *models.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paymentCalls++
	if l.failPaymentAt > 0 && l.paymentCalls == l.failPaymentAt {
		return ErrStorageFailure
	}
	for _, existing := range l.payments {
		if existing.ReferenceNumber == p.ReferenceNumber {
			return repositories.ErrDuplicateReference
		}
	}
	p.ID = l.nextPayment
	l.nextPayment++
	cp := *p
	l.payments[p.ID] = &cp
	return nil
}

func (l *Ledger) GetPaymentByID(_ context.Context, id uint) (*models.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (l *Ledger) GetPaymentByReference(_ context.Context, reference string) (*models.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.payments {
		if p.ReferenceNumber == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (l *Ledger) UpdatePayment(_ context.Context, p *models.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.payments[p.ID]; !ok {
		return repositories.ErrPaymentNotFound
	}
	cp := *p
	l.payments[p.ID] = &cp
	return nil
}

// ExecuteInTransaction snapshots all state, runs fn against the same fake,
// and restores the snapshot when fn fails.
func (l *Ledger) ExecuteInTransaction(_ context.Context, fn func(repositories.LedgerRepository) error) error {
	snap := l.snapshot()
	if err := fn(l); err != nil {
		l.restore(snap)
		return err
	}
	return nil
}

type ledgerSnapshot struct {
	wallets      map[uint]*models.Wallet
	transactions []models.Transaction
	payments     map[uint]*models.Payment
	nextWallet   uint
	nextTx       uint
	nextPayment  uint
}

func (l *Ledger) snapshot() ledgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := ledgerSnapshot{
		wallets:      make(map[uint]*models.Wallet, len(l.wallets)),
		transactions: append([]models.Transaction(nil), l.transactions...),
		payments:     make(map[uint]*models.Payment, len(l.payments)),
		nextWallet:   l.nextWallet,
		nextTx:       l.nextTx,
		nextPayment:  l.nextPayment,
	}
	for id, w := range l.wallets {
		cp := *w
		snap.wallets[id] = &cp
	}
	for id, p := range l.payments {
		cp := *p
		snap.payments[id] = &cp
	}
	return snap
}

func (l *Ledger) restore(snap ledgerSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.wallets = snap.wallets
	l.transactions = snap.transactions
	l.payments = snap.payments
	l.nextWallet = snap.nextWallet
	l.nextTx = snap.nextTx
	l.nextPayment = snap.nextPayment
}

// Wallet returns the stored wallet by id, for assertions.
func (l *Ledger) Wallet(id uint) *models.Wallet {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.wallets[id]
	if !ok {
		return nil
	}
	cp := *w
	return &cp
}

// Transactions returns all stored ledger entries, for assertions.
func (l *Ledger) Transactions() []models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Transaction(nil), l.transactions...)
}

// Payments returns all stored payments sorted by id, for assertions.
func (l *Ledger) Payments() []*models.Payment {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*models.Payment, 0, len(l.payments))
	for _, p := range l.payments {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
