package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a list-backed Queue on the shared redis client. LPUSH plus
// blocking BRPOPLPUSH gives FIFO delivery across any number of worker
// processes; the in-flight entry sits on a processing list until acked.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) key(queueName string) string {
	return fmt.Sprintf("queue:%s", queueName)
}

func (q *RedisQueue) processingKey(queueName string) string {
	return fmt.Sprintf("queue:%s:processing", queueName)
}

func (q *RedisQueue) Enqueue(ctx context.Context, queueName string, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key(queueName), data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next task, moving it onto the
// processing list in the same step. It returns (nil, nil) when the timeout
// elapses with an empty queue.
func (q *RedisQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Task, error) {
	res, err := q.client.BRPopLPush(ctx, q.key(queueName), q.processingKey(queueName), timeout).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}
	var task Task
	if err := json.Unmarshal([]byte(res), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	task.raw = []byte(res)
	return &task, nil
}

// Ack removes the task's entry from the processing list once its handler
// has finished. A task that is never acked survives a worker crash and is
// requeued by RecoverPending.
func (q *RedisQueue) Ack(ctx context.Context, queueName string, task *Task) error {
	raw := task.raw
	if raw == nil {
		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to marshal task: %w", err)
		}
		raw = data
	}
	if err := q.client.LRem(ctx, q.processingKey(queueName), 1, raw).Err(); err != nil {
		return fmt.Errorf("failed to ack task: %w", err)
	}
	return nil
}

// RecoverPending drains the processing list back onto the queue. A task
// found there was dequeued by a worker that never acked it.
func (q *RedisQueue) RecoverPending(ctx context.Context, queueName string) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processingKey(queueName), q.key(queueName), "RIGHT", "LEFT").Err()
		if err != nil {
			if err == redis.Nil {
				return moved, nil
			}
			return moved, fmt.Errorf("failed to recover pending tasks: %w", err)
		}
		moved++
	}
}
