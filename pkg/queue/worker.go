package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlexYAT/vedic-astrologer-bot/app/repositories"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/assistant"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/telegram"
)

type contextKey string

const taskIDKey contextKey = "task_id"

// Worker drains the forecast queue: ask the assistant, reply in the chat,
// write the audit row.
type Worker struct {
	queueService *QueueService
	assistant    *assistant.Service
	bot          *telegram.Client
	userRepo     *repositories.UserRepository
	requestRepo  *repositories.RequestRepository
	stopChan     chan struct{}
	workerCount  int
	metrics      *QueueMetrics
	wg           sync.WaitGroup
	config       WorkerConfig
}

// WorkerConfig tunes the worker pool.
type WorkerConfig struct {
	WorkerCount     int
	MaxRetries      int
	RetryInterval   time.Duration
	ShutdownTimeout time.Duration
}

// NewWorker builds the worker pool over the shared services.
func NewWorker(qs *QueueService, as *assistant.Service, bot *telegram.Client, config WorkerConfig) *Worker {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 4
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	return &Worker{
		queueService: qs,
		assistant:    as,
		bot:          bot,
		userRepo:     repositories.NewUserRepository(),
		requestRepo:  repositories.NewRequestRepository(),
		stopChan:     make(chan struct{}),
		workerCount:  config.WorkerCount,
		metrics:      qs.Metrics(),
		config:       config,
	}
}

// Start launches the pool.
func (w *Worker) Start() {
	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.startWorker(i)
	}
}

func (w *Worker) startWorker(id int) {
	defer w.wg.Done()

	logger.InfoString("Worker", "Start", fmt.Sprintf("Worker %d started", id))

	for {
		select {
		case <-w.stopChan:
			logger.InfoString("Worker", "Stop", fmt.Sprintf("Worker %d stopping", id))
			return
		default:
			if err := w.processNextTask(); err != nil {
				logger.ErrorString("Worker", "Error", fmt.Sprintf("Worker %d error: %v", id, err))
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) processNextTask() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	task, err := w.queueService.PopTask(ctx)
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return fmt.Errorf("pop task error: %w", err)
	}
	if task == nil {
		// Empty queue, avoid a busy loop.
		time.Sleep(100 * time.Millisecond)
		return nil
	}

	start := time.Now()
	defer func() {
		w.metrics.RecordProcessingTime(time.Since(start))
	}()

	return w.handleTask(ctx, task)
}

// handleTask runs one forecast. The audit row is written on every exit
// path, a failure included, with the time the user actually waited.
func (w *Worker) handleTask(ctx context.Context, task *ForecastTask) error {
	w.metrics.EndWaitTime(TaskID(task.ID))
	ctx = context.WithValue(ctx, taskIDKey, task.ID)

	if err := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskRunning, ""); err != nil {
		return fmt.Errorf("update task status error: %w", err)
	}

	usr, err := w.userRepo.GetOrCreate(ctx, task.ExternalID)
	if err != nil {
		w.failTask(ctx, task, 0, err)
		return fmt.Errorf("load user error: %w", err)
	}

	if err := w.bot.SendChatAction(ctx, task.ChatID, "typing"); err != nil {
		logger.WarnString("Worker", "ChatAction", err.Error())
	}

	answer, elapsedMs, err := w.assistant.Ask(ctx, task.ExternalID, usr.ThreadID, usr.IsPro, task.Prompt)
	if err != nil {
		w.failTask(ctx, task, elapsedMs, err)
		w.replyFailure(ctx, task, err)
		w.metrics.RecordError(OpProcess)
		return fmt.Errorf("assistant error: %w", err)
	}

	formatted := telegram.FormatAssistantHTML(answer)
	if err := w.bot.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID: task.ChatID,
		Text:   formatted,
	}); err != nil {
		w.failTask(ctx, task, elapsedMs, err)
		w.metrics.RecordError(OpProcess)
		return fmt.Errorf("send reply error: %w", err)
	}

	if err := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskCompleted, answer); err != nil {
		logger.ErrorString("Worker", "UpdateStatus", err.Error())
	}
	w.requestRepo.LogUserRequest(ctx, usr.ID, task.Type, task.Text, true, elapsedMs)

	w.metrics.RecordSuccess(OpProcess)
	return nil
}

func (w *Worker) failTask(ctx context.Context, task *ForecastTask, elapsedMs int64, cause error) {
	if err := w.queueService.UpdateTaskStatus(ctx, task.ID, TaskFailed, cause.Error()); err != nil {
		logger.ErrorString("Worker", "UpdateStatus", err.Error())
	}

	usr, err := w.userRepo.GetOrCreate(ctx, task.ExternalID)
	if err != nil {
		logger.ErrorString("Worker", "AuditLog", err.Error())
		return
	}
	w.requestRepo.LogUserRequest(ctx, usr.ID, task.Type, task.Text, false, elapsedMs)
}

func (w *Worker) replyFailure(ctx context.Context, task *ForecastTask, cause error) {
	text := "К сожалению, произошла ошибка при получении ответа. Попробуй позже."

	var timeoutErr *assistant.RunTimeoutError
	if errors.As(cause, &timeoutErr) {
		text = "Ответ занимает больше времени, чем обычно. Повтори запрос через минуту — ответ уже готовится."
	}

	if err := w.bot.SendText(ctx, task.ChatID, text); err != nil {
		logger.ErrorString("Worker", "ReplyFailure", err.Error())
	}
}

// Stop shuts the pool down, waiting up to ShutdownTimeout.
func (w *Worker) Stop() {
	close(w.stopChan)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoString("Worker", "Stop", "All workers stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		logger.WarnString("Worker", "Stop", "Worker shutdown timed out")
	}
}
