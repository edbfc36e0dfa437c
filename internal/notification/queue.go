package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"
)

// Queue holds jobs between the publisher and the worker.
type Queue interface {
	Push(ctx context.Context, job Job) error
	// Pop waits up to timeout for a job. ok is false when none arrived.
	Pop(ctx context.Context, timeout time.Duration) (job Job, ok bool, err error)
	Fail(ctx context.Context, job Job, cause error) error
	Len(ctx context.Context) int64
}

type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, queueKey, data).Err()
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (Job, bool, error) {
	result, err := q.client.BRPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, err
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return Job{}, false, err
	}
	return job, true, nil
}

func (q *RedisQueue) Fail(ctx context.Context, job Job, cause error) error {
	failed := map[string]interface{}{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now().UTC(),
	}
	data, err := json.Marshal(failed)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, failedKey, data).Err()
}

func (q *RedisQueue) Len(ctx context.Context) int64 {
	length, _ := q.client.LLen(ctx, queueKey).Result()
	return length
}

// MemoryQueue is used when no redis is configured. Jobs do not survive a
// restart.
type MemoryQueue struct {
	jobs chan Job

	mu     sync.Mutex
	failed []Job
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{jobs: make(chan Job, size)}
}

func (q *MemoryQueue) Push(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) (Job, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job := <-q.jobs:
		return job, true, nil
	case <-timer.C:
		return Job{}, false, nil
	case <-ctx.Done():
		return Job{}, false, ctx.Err()
	}
}

func (q *MemoryQueue) Fail(ctx context.Context, job Job, cause error) error {
	q.mu.Lock()
	q.failed = append(q.failed, job)
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Failed() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Job(nil), q.failed...)
}

func (q *MemoryQueue) Len(ctx context.Context) int64 {
	return int64(len(q.jobs))
}
