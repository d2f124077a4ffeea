package worker

import (
	"context"
	"log"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/queue"
	"lumapay/internal/repositories"
)

const schedulerBatchSize = 100

// Scheduler turns due payment plan installments into plan_disburse tasks.
// The plan is advanced before the task is enqueued, so a slow worker never
// causes the same installment to be enqueued twice.
type Scheduler struct {
	plans    repositories.PlanRepository
	tasks    queue.Queue
	queue    string
	interval time.Duration
}

// NewScheduler creates a plan scheduler.
func NewScheduler(plans repositories.PlanRepository, tasks queue.Queue, queueName string, interval time.Duration) *Scheduler {
	if plans == nil {
		panic("plan repo is required")
	}
	if tasks == nil {
		panic("queue is required")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if queueName == "" {
		queueName = queue.QueueSettlement
	}
	return &Scheduler{plans: plans, tasks: tasks, queue: queueName, interval: interval}
}

// Run blocks ticking until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("plan scheduler started, interval %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx, time.Now())
		}
	}
}

// Tick processes one batch of due plans.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	plans, err := s.plans.DuePlans(ctx, now, schedulerBatchSize)
	if err != nil {
		log.Printf("scheduler: failed to list due plans: %v", err)
		return
	}
	for _, plan := range plans {
		if err := s.dispatch(ctx, plan); err != nil {
			log.Printf("scheduler: plan %d dispatch failed: %v", plan.ID, err)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, plan *models.PaymentPlan) error {
	plan.Remaining--
	plan.NextDueAt = plan.NextDueAt.Add(plan.Interval)
	if plan.Remaining <= 0 {
		plan.Status = models.PaymentPlanStatusCompleted
	}
	if err := s.plans.UpdatePlan(ctx, plan); err != nil {
		return err
	}

	task, err := queue.NewTask(queue.TaskKindPlanDisburse, PlanPayload{PlanID: plan.ID})
	if err != nil {
		return err
	}
	return s.tasks.Enqueue(ctx, s.queue, task)
}
