// Package queue provides the durable task queue used to hand settlement and
// disbursement work to the background workers.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task kinds consumed by the settlement worker.
const (
	TaskKindVACreate     = "va_create"
	TaskKindBankTransfer = "bank_transfer"
	TaskKindPlanDisburse = "plan_disburse"
)

// QueueSettlement is the queue name all settlement-worker tasks go through.
const QueueSettlement = "settlement"

// Task is one unit of background work. Payload is task-kind specific JSON.
type Task struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`

	// raw holds the wire bytes the task was dequeued with, so Ack can
	// remove exactly that entry from the processing list even after the
	// task struct has been mutated for a retry.
	raw []byte
}

// NewTask builds a Task with a fresh id and the payload marshaled.
func NewTask(kind string, payload interface{}) (*Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Queue is the broker capability the core depends on. The synchronous path
// only ever enqueues; workers dequeue, finish the work, then Ack.
//
// Dequeue moves the task to a per-queue processing list rather than
// dropping it, so a worker crash mid-task leaves the entry recoverable.
// RecoverPending moves processing entries back onto the queue; workers call
// it at startup, which is safe because every task handler is idempotent.
type Queue interface {
	Enqueue(ctx context.Context, queueName string, task *Task) error
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Task, error)
	Ack(ctx context.Context, queueName string, task *Task) error
	RecoverPending(ctx context.Context, queueName string) (int, error)
}
