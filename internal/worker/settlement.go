// Package worker holds the background processes: the settlement worker that
// drains the task queue against bank providers, and the scheduler that
// turns due payment plan installments into disbursements.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"lumapay/internal/models"
	"lumapay/internal/queue"
	"lumapay/internal/repositories"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/transfer"
	"lumapay/internal/services/virtualaccount"
)

const dequeueTimeout = 5 * time.Second

// Settlement drains the settlement queue. Every handler is idempotent: a
// task may be delivered more than once, and a committed wallet debit is
// never reversed here regardless of how the bank leg ends.
type Settlement struct {
	tasks      queue.Queue
	queueName  string
	ledgerRepo repositories.LedgerRepository
	vaRepo     repositories.VirtualAccountRepository
	planRepo   repositories.PlanRepository
	transfers  transfer.Service
	banks      *bank.Registry
	policy     RetryPolicy
	callWindow time.Duration
}

// NewSettlement creates a settlement worker.
func NewSettlement(
	tasks queue.Queue,
	queueName string,
	ledgerRepo repositories.LedgerRepository,
	vaRepo repositories.VirtualAccountRepository,
	planRepo repositories.PlanRepository,
	transfers transfer.Service,
	banks *bank.Registry,
	policy RetryPolicy,
	callWindow time.Duration,
) *Settlement {
	if tasks == nil {
		panic("queue is required")
	}
	if banks == nil {
		panic("bank registry is required")
	}
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}
	if callWindow <= 0 {
		callWindow = 30 * time.Second
	}
	if queueName == "" {
		queueName = queue.QueueSettlement
	}
	return &Settlement{
		tasks:      tasks,
		queueName:  queueName,
		ledgerRepo: ledgerRepo,
		vaRepo:     vaRepo,
		planRepo:   planRepo,
		transfers:  transfers,
		banks:      banks,
		policy:     policy,
		callWindow: callWindow,
	}
}

// Run blocks draining the queue until the context is cancelled. It first
// requeues tasks a previous worker dequeued but never acked; redelivering
// them is safe because every handler is idempotent.
func (w *Settlement) Run(ctx context.Context) error {
	if n, err := w.tasks.RecoverPending(ctx, w.queueName); err != nil {
		log.Printf("failed to recover in-flight tasks: %v", err)
	} else if n > 0 {
		log.Printf("requeued %d in-flight settlement tasks", n)
	}
	log.Printf("settlement worker started on queue %q", w.queueName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := w.step(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("dequeue failed: %v", err)
		}
	}
}

// step processes at most one task: dequeue, handle, ack. The ack comes
// last so a crash anywhere before it leaves the task on the processing
// list for RecoverPending.
func (w *Settlement) step(ctx context.Context) error {
	task, err := w.tasks.Dequeue(ctx, w.queueName, dequeueTimeout)
	if err != nil {
		return err
	}
	if task == nil {
		return nil
	}
	w.handle(ctx, task)
	if err := w.tasks.Ack(ctx, w.queueName, task); err != nil {
		log.Printf("failed to ack task %s: %v", task.ID, err)
	}
	return nil
}

func (w *Settlement) handle(ctx context.Context, task *queue.Task) {
	var err error
	switch task.Kind {
	case queue.TaskKindVACreate:
		err = w.handleVACreate(ctx, task)
	case queue.TaskKindBankTransfer:
		err = w.handleBankTransfer(ctx, task)
	case queue.TaskKindPlanDisburse:
		err = w.handlePlanDisburse(ctx, task)
	default:
		log.Printf("dropping task %s with unknown kind %q", task.ID, task.Kind)
		return
	}
	if err != nil {
		w.retryOrFail(ctx, task, err)
	}
}

// retryOrFail re-enqueues transient failures with backoff and hands
// everything else to the task's terminal handler. A timed-out provider
// call counts as transient: the retry is safe because every outbound call
// carries an idempotency reference.
func (w *Settlement) retryOrFail(ctx context.Context, task *queue.Task, err error) {
	transient := bank.IsTransient(err) || errors.Is(err, context.DeadlineExceeded)
	if transient && !w.policy.Exhausted(task.Attempts+1) {
		delay := w.policy.Delay(task.Attempts)
		log.Printf("task %s (%s) attempt %d failed transiently, retrying in %s: %v",
			task.ID, task.Kind, task.Attempts+1, delay, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		task.Attempts++
		if enqErr := w.tasks.Enqueue(ctx, w.queueName, task); enqErr != nil {
			log.Printf("failed to re-enqueue task %s: %v", task.ID, enqErr)
		}
		return
	}
	log.Printf("task %s (%s) failed terminally after %d attempts: %v",
		task.ID, task.Kind, task.Attempts+1, err)
	w.failTask(ctx, task)
}

func (w *Settlement) failTask(ctx context.Context, task *queue.Task) {
	switch task.Kind {
	case queue.TaskKindVACreate:
		var p virtualaccount.ProvisionPayload
		if json.Unmarshal(task.Payload, &p) != nil {
			return
		}
		va, err := w.vaRepo.GetVirtualAccount(ctx, p.AccountNumber, p.TrxID)
		if err != nil {
			return
		}
		va.Status = models.VirtualAccountStatusInactive
		if err := w.vaRepo.UpdateVirtualAccount(ctx, va); err != nil {
			log.Printf("failed to deactivate VA %s: %v", p.AccountNumber, err)
		}
	case queue.TaskKindBankTransfer:
		var p transfer.SettlementPayload
		if json.Unmarshal(task.Payload, &p) != nil {
			return
		}
		payment, err := w.ledgerRepo.GetPaymentByID(ctx, p.PaymentID)
		if err != nil || payment.Status != models.PaymentStatusPending {
			return
		}
		// The debit stays committed; only the bank leg is marked failed.
		// Making the wallet whole is an explicit Refund, not our call.
		payment.Status = models.PaymentStatusFailed
		if err := w.ledgerRepo.UpdatePayment(ctx, payment); err != nil {
			log.Printf("failed to mark payment %d failed: %v", p.PaymentID, err)
		}
	}
}

func (w *Settlement) handleVACreate(ctx context.Context, task *queue.Task) error {
	var p virtualaccount.ProvisionPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return err
	}
	va, err := w.vaRepo.GetVirtualAccount(ctx, p.AccountNumber, p.TrxID)
	if err != nil {
		if errors.Is(err, repositories.ErrVirtualAccountNotFound) {
			return nil
		}
		return err
	}
	// A superseded or already-confirmed VA needs no provider call.
	if va.Status != models.VirtualAccountStatusPending {
		return nil
	}

	entry, err := w.banks.Lookup(va.BankCode)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callWindow)
	defer cancel()
	resp, err := entry.Provider.CreateVirtualAccount(callCtx, bank.CreateVARequest{
		AccountNumber: va.AccountNumber,
		TrxID:         va.TrxID,
		ExpiresAt:     va.ExpiresAt,
	})
	if err != nil {
		return err
	}

	va.Status = models.VirtualAccountStatusActive
	va.ProviderRef = resp.ProviderRef
	return w.vaRepo.UpdateVirtualAccount(ctx, va)
}

func (w *Settlement) handleBankTransfer(ctx context.Context, task *queue.Task) error {
	var p transfer.SettlementPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return err
	}
	payment, err := w.ledgerRepo.GetPaymentByID(ctx, p.PaymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil
		}
		return err
	}
	// Redelivery of an already-settled payment is a no-op.
	if payment.Status != models.PaymentStatusPending {
		return nil
	}

	entry, err := w.banks.Lookup(payment.BankCode)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callWindow)
	defer cancel()
	resp, err := entry.Provider.TransferFunds(callCtx, bank.TransferRequest{
		ReferenceNumber:    payment.ReferenceNumber,
		DestinationAccount: payment.DestinationAccount,
		Amount:             payment.Amount.Abs(),
	})
	if err != nil {
		return err
	}

	switch resp.Status {
	case bank.StatusFailed:
		payment.Status = models.PaymentStatusFailed
	default:
		payment.Status = models.PaymentStatusCompleted
	}
	payment.BankReference = resp.ProviderRef
	return w.ledgerRepo.UpdatePayment(ctx, payment)
}

// PlanPayload is the queue payload for a plan installment.
type PlanPayload struct {
	PlanID uint `json:"plan_id"`
}

func (w *Settlement) handlePlanDisburse(ctx context.Context, task *queue.Task) error {
	var p PlanPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return err
	}
	plan, err := w.planRepo.GetPlanByID(ctx, p.PlanID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil
		}
		return err
	}

	_, err = w.transfers.Disburse(ctx, transfer.DisburseRequest{
		SourceWalletID:     plan.WalletID,
		BankCode:           plan.BankCode,
		DestinationAccount: plan.DestinationAccount,
		Amount:             plan.Amount,
		TransactionType:    models.TransactionTypePlanDisburse,
		Notes:              "scheduled disbursement",
	})
	return err
}
