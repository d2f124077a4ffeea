package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/repositories"
)

// Plans is an in-memory repositories.PlanRepository.
type Plans struct {
	mu    sync.Mutex
	plans map[uint]*models.PaymentPlan
	next  uint
}

func NewPlans() *Plans {
	return &Plans{plans: make(map[uint]*models.PaymentPlan), next: 1}
}

func (r *Plans) CreatePlan(_ context.Context, p *models.PaymentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.next
	r.next++
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *Plans) GetPlanByID(_ context.Context, id uint) (*models.PaymentPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, repositories.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *Plans) DuePlans(_ context.Context, now time.Time, limit int) ([]*models.PaymentPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PaymentPlan
	for _, p := range r.plans {
		if p.Status == models.PaymentPlanStatusActive && !p.NextDueAt.After(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueAt.Before(out[j].NextDueAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *Plans) UpdatePlan(_ context.Context, p *models.PaymentPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[p.ID]; !ok {
		return repositories.ErrPlanNotFound
	}
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}
