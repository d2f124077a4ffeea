// Package plan manages recurring disbursement schedules. The scheduler in
// internal/worker drains due installments; this package owns plan lifecycle.
package plan

import (
	"context"
	"errors"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/repositories"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/wallet"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPlan is returned when the plan parameters make no sense.
	ErrInvalidPlan = errors.New("invalid payment plan parameters")

	// ErrPlanNotFound is returned when no plan matches the id.
	ErrPlanNotFound = errors.New("payment plan not found")
)

// CreateRequest describes a new recurring disbursement schedule.
type CreateRequest struct {
	WalletID           uint
	BankCode           string
	DestinationAccount string
	Amount             decimal.Decimal
	Interval           time.Duration
	Installments       int
	StartAt            time.Time
}

// Service is the payment plan surface.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*models.PaymentPlan, error)
	Get(ctx context.Context, id uint) (*models.PaymentPlan, error)
	Cancel(ctx context.Context, id uint) error
}

type service struct {
	repo    repositories.PlanRepository
	wallets wallet.Service
	banks   *bank.Registry
}

// NewService creates a new plan service instance.
func NewService(repo repositories.PlanRepository, wallets wallet.Service, banks *bank.Registry) Service {
	if repo == nil {
		panic("repo is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	return &service{repo: repo, wallets: wallets, banks: banks}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*models.PaymentPlan, error) {
	if req.Amount.Sign() <= 0 || req.Interval <= 0 || req.Installments <= 0 || req.DestinationAccount == "" {
		return nil, ErrInvalidPlan
	}
	if s.banks != nil {
		if _, err := s.banks.Lookup(req.BankCode); err != nil {
			return nil, err
		}
	}
	if _, err := s.wallets.Resolve(ctx, req.WalletID); err != nil {
		return nil, err
	}

	start := req.StartAt
	if start.IsZero() {
		start = time.Now().Add(req.Interval)
	}
	p := &models.PaymentPlan{
		WalletID:           req.WalletID,
		BankCode:           req.BankCode,
		DestinationAccount: req.DestinationAccount,
		Amount:             req.Amount,
		Interval:           req.Interval,
		NextDueAt:          start,
		Remaining:          req.Installments,
		Status:             models.PaymentPlanStatusActive,
	}
	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.PaymentPlan, error) {
	p, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		if err == repositories.ErrPlanNotFound {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *service) Cancel(ctx context.Context, id uint) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Status = models.PaymentPlanStatusCompleted
	p.Remaining = 0
	return s.repo.UpdatePlan(ctx, p)
}
