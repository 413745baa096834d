// Package queue moves slow assistant work off the webhook goroutine.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/AlexYAT/vedic-astrologer-bot/app/models/request"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/redis"
)

// TaskStatus is the lifecycle of a queued forecast.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// ForecastTask is one user question waiting for the assistant.
type ForecastTask struct {
	ID         string       `json:"id"`
	ChatID     int64        `json:"chat_id"`
	ExternalID int64        `json:"external_id"`
	Type       request.Type `json:"type"`
	Prompt     string       `json:"prompt"`
	Text       *string      `json:"text,omitempty"`
	Status     TaskStatus   `json:"status"`
	Result     string       `json:"result,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// QueueService is the redis-backed task queue.
type QueueService struct {
	client      *redis.Client
	prefix      string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	metrics     *QueueMetrics
}

var (
	service     *QueueService
	serviceOnce sync.Once
)

// GetQueueService returns the shared queue instance. The worker and the
// HTTP surface must see the same metrics.
func GetQueueService() *QueueService {
	serviceOnce.Do(func() {
		service = NewQueueService()
	})
	return service
}

// NewQueueService builds the queue over the queue redis instance.
func NewQueueService() *QueueService {
	rateLimit := config.GetInt("queue.rate_limit", 1000)
	burst := config.GetInt("queue.rate_burst", rateLimit)

	return &QueueService{
		client:      redis.GetRedis(redis.QueueDB),
		prefix:      config.GetString("redis.queue_prefix", "astrobot:queue"),
		timeout:     time.Duration(config.GetInt("redis.queue_timeout", 3600)) * time.Second,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
		metrics:     NewQueueMetrics(),
	}
}

// PushTask enqueues a task and marks it pending, atomically.
func (q *QueueService) PushTask(ctx context.Context, task *ForecastTask) error {
	if err := q.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	start := time.Now()
	defer func() {
		q.metrics.RecordPushLatency(time.Since(start))
	}()

	taskJSON, err := json.Marshal(task)
	if err != nil {
		q.metrics.RecordError(OpPush)
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	key := fmt.Sprintf("%s:tasks", q.prefix)
	statusKey := fmt.Sprintf("%s:status:%s", q.prefix, task.ID)

	pipe := q.client.Client.Pipeline()
	pipe.LPush(ctx, key, taskJSON)
	pipe.Set(ctx, statusKey, string(TaskPending), q.timeout)

	if _, err = pipe.Exec(ctx); err != nil {
		q.metrics.RecordError(OpPush)
		return fmt.Errorf("failed to push task: %w", err)
	}

	q.metrics.StartWaitTime(TaskID(task.ID))
	q.metrics.RecordSuccess(OpPush)
	return nil
}

// PopTask blocks until a task is available.
func (q *QueueService) PopTask(ctx context.Context) (*ForecastTask, error) {
	key := fmt.Sprintf("%s:tasks", q.prefix)
	result, err := q.client.Client.BRPop(ctx, 0, key).Result()
	if err != nil {
		if err == goredis.Nil || err == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop task from queue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("invalid result from queue")
	}

	var task ForecastTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}

	return &task, nil
}

// UpdateTaskStatus stores the status and, when present, the result text.
func (q *QueueService) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result string) error {
	statusKey := fmt.Sprintf("%s:status:%s", q.prefix, taskID)
	if err := q.client.Client.Set(ctx, statusKey, string(status), q.timeout).Err(); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	if result != "" {
		resultKey := fmt.Sprintf("%s:result:%s", q.prefix, taskID)
		if err := q.client.Client.Set(ctx, resultKey, result, q.timeout).Err(); err != nil {
			return fmt.Errorf("failed to save task result: %w", err)
		}
	}

	return nil
}

// GetTaskStatus returns the stored status, or "" when the task is unknown.
func (q *QueueService) GetTaskStatus(ctx context.Context, taskID string) (TaskStatus, error) {
	statusKey := fmt.Sprintf("%s:status:%s", q.prefix, taskID)
	status, err := q.client.Client.Get(ctx, statusKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get task status: %w", err)
	}

	return TaskStatus(status), nil
}

// TaskProgress is the externally visible state of a task.
type TaskProgress struct {
	TaskID string     `json:"task_id"`
	Status TaskStatus `json:"status"`
	Result string     `json:"result,omitempty"`
}

// GetTaskProgress returns the status plus, for completed tasks, the result.
func (q *QueueService) GetTaskProgress(ctx context.Context, taskID string) (*TaskProgress, error) {
	status, err := q.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}

	progress := &TaskProgress{
		TaskID: taskID,
		Status: status,
	}

	if status == TaskCompleted {
		resultKey := fmt.Sprintf("%s:result:%s", q.prefix, taskID)
		result, err := q.client.Client.Get(ctx, resultKey).Result()
		if err != nil && err != goredis.Nil {
			return nil, fmt.Errorf("failed to get task result: %w", err)
		}
		progress.Result = result
	}

	return progress, nil
}

// Metrics exposes the in-process counters for the admin endpoints.
func (q *QueueService) Metrics() *QueueMetrics {
	return q.metrics
}

// Ping checks the queue redis instance.
func (q *QueueService) Ping(ctx context.Context) error {
	return q.client.Ping()
}
