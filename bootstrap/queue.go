package bootstrap

import (
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/assistant"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/queue"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/redis"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/telegram"
)

var worker *queue.Worker

// SetupQueue starts the forecast worker pool. Requires redis and the
// clients to be initialized first.
func SetupQueue() {
	if redis.Manager == nil {
		logger.ErrorString("Queue", "Setup", "Redis manager not initialized")
		return
	}

	worker = queue.NewWorker(queue.GetQueueService(), assistant.GetService(), telegram.Bot(), queue.WorkerConfig{
		WorkerCount:     config.GetInt("queue.worker_count", 4),
		MaxRetries:      config.GetInt("queue.retry_times", 3),
		RetryInterval:   time.Duration(config.GetInt("queue.retry_delay", 1)) * time.Second,
		ShutdownTimeout: 30 * time.Second,
	})

	worker.Start()

	logger.InfoString("Queue", "Setup", "forecast workers started")
}

// StopQueue drains the worker pool during shutdown.
func StopQueue() {
	if worker != nil {
		worker.Stop()
	}
}
