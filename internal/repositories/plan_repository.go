package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lumapay/internal/models"

	"gorm.io/gorm"
)

// PlanRepository is the data access surface for payment plans.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan *models.PaymentPlan) error
	GetPlanByID(ctx context.Context, id uint) (*models.PaymentPlan, error)
	DuePlans(ctx context.Context, now time.Time, limit int) ([]*models.PaymentPlan, error)
	UpdatePlan(ctx context.Context, plan *models.PaymentPlan) error
}

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a GORM-backed PlanRepository.
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) CreatePlan(ctx context.Context, plan *models.PaymentPlan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return fmt.Errorf("failed to create payment plan: %w", err)
	}
	return nil
}

func (r *planRepository) GetPlanByID(ctx context.Context, id uint) (*models.PaymentPlan, error) {
	var plan models.PaymentPlan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get payment plan: %w", err)
	}
	return &plan, nil
}

func (r *planRepository) DuePlans(ctx context.Context, now time.Time, limit int) ([]*models.PaymentPlan, error) {
	var plans []*models.PaymentPlan
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_due_at <= ?", models.PaymentPlanStatusActive, now).
		Order("next_due_at").
		Limit(limit).
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due plans: %w", err)
	}
	return plans, nil
}

func (r *planRepository) UpdatePlan(ctx context.Context, plan *models.PaymentPlan) error {
	if err := r.db.WithContext(ctx).Save(plan).Error; err != nil {
		return fmt.Errorf("failed to update payment plan: %w", err)
	}
	return nil
}
