package repotest

import (
	"context"
	"sync"
	"time"

	"lumapay/internal/queue"
)

// Queue is an in-memory queue.Queue backed by per-name slices. Dequeued
// tasks move to a processing slice until acked, matching the redis
// implementation's crash-recovery semantics.
type Queue struct {
	mu         sync.Mutex
	tasks      map[string][]*queue.Task
	processing map[string][]*queue.Task
}

func NewQueue() *Queue {
	return &Queue{
		tasks:      make(map[string][]*queue.Task),
		processing: make(map[string][]*queue.Task),
	}
}

func (q *Queue) Enqueue(_ context.Context, name string, task *queue.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks[name] = append(q.tasks[name], task)
	return nil
}

// Dequeue pops the oldest task without blocking and parks it on the
// processing list; it returns (nil, nil) when the queue is empty, matching
// the redis implementation's timeout path.
func (q *Queue) Dequeue(_ context.Context, name string, _ time.Duration) (*queue.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending := q.tasks[name]
	if len(pending) == 0 {
		return nil, nil
	}
	task := pending[0]
	q.tasks[name] = pending[1:]
	q.processing[name] = append(q.processing[name], task)
	return task, nil
}

// Ack drops the task from the processing list by id.
func (q *Queue) Ack(_ context.Context, name string, task *queue.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	inflight := q.processing[name]
	for i, t := range inflight {
		if t.ID == task.ID {
			q.processing[name] = append(inflight[:i:i], inflight[i+1:]...)
			return nil
		}
	}
	return nil
}

// RecoverPending requeues everything still on the processing list.
func (q *Queue) RecoverPending(_ context.Context, name string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	moved := len(q.processing[name])
	q.tasks[name] = append(q.processing[name], q.tasks[name]...)
	q.processing[name] = nil
	return moved, nil
}

// Len reports how many tasks are waiting on the named queue.
func (q *Queue) Len(name string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks[name])
}

// InFlight reports how many dequeued tasks have not been acked.
func (q *Queue) InFlight(name string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.processing[name])
}
