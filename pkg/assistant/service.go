package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/app"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"
)

// ThreadBinder persists the thread a user is bound to. Binding is
// set-once: the stored value wins over the argument.
type ThreadBinder interface {
	BindThread(ctx context.Context, externalID int64, threadID string) (string, error)
}

// Service runs user questions through the assistant, one thread per user.
type Service struct {
	client         *Client
	threads        ThreadBinder
	assistantID    string
	assistantIDPro string
	runWaitTimeout time.Duration
	pollInterval   time.Duration
}

var service *Service

// InitService builds the global service from config. Called once from
// bootstrap.
func InitService(threads ThreadBinder) {
	client := NewClient(
		config.GetString("openai.api_key"),
		config.GetString("openai.base_url"),
		time.Duration(config.GetInt("openai.timeout"))*time.Second,
		config.GetInt("openai.max_retries"),
	)

	service = &Service{
		client:         client,
		threads:        threads,
		assistantID:    config.GetString("openai.assistant_id"),
		assistantIDPro: config.GetString("openai.assistant_id_pro"),
		runWaitTimeout: time.Duration(config.GetInt("openai.run_wait_timeout")) * time.Second,
		pollInterval:   time.Duration(config.GetInt("openai.poll_interval_ms")) * time.Millisecond,
	}
}

// GetService returns the global service. InitService must run first.
func GetService() *Service {
	return service
}

// NewService wires a service directly, used by tests.
func NewService(client *Client, threads ThreadBinder, assistantID, assistantIDPro string, runWaitTimeout, pollInterval time.Duration) *Service {
	return &Service{
		client:         client,
		threads:        threads,
		assistantID:    assistantID,
		assistantIDPro: assistantIDPro,
		runWaitTimeout: runWaitTimeout,
		pollInterval:   pollInterval,
	}
}

// Ask sends a message on the user's thread, waits for the run and returns
// the answer with the elapsed wall time in milliseconds.
//
// When the thread already has an active run, no new run is created; the
// existing one is awaited instead. When the latest run is already
// completed the stored answer is returned, which covers the retry after
// a wait timeout.
func (s *Service) Ask(ctx context.Context, externalID int64, threadID *string, isPro bool, message string) (string, int64, error) {
	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	tid, err := s.resolveThread(ctx, externalID, threadID)
	if err != nil {
		return "", elapsed(), err
	}

	today := app.TimenowInTimezone().Format("02.01.2006")
	enhanced := fmt.Sprintf("Сегодня %s. %s", today, message)

	latest, err := s.client.LatestRun(ctx, tid)
	if err != nil {
		return "", elapsed(), err
	}
	if latest != nil {
		if isActiveStatus(latest.Status) {
			logger.InfoString("Assistant", "Run",
				fmt.Sprintf("waiting existing run thread_id=%s run_id=%s", tid, latest.ID))
			text, err := s.awaitAnswer(ctx, tid, latest.ID, start)
			return text, elapsed(), err
		}
		if latest.Status == StatusCompleted {
			// A retry after a timeout: the answer is already there.
			text, err := s.client.LastAssistantMessage(ctx, tid)
			return text, elapsed(), err
		}
	}

	if err := s.client.AddMessage(ctx, tid, enhanced); err != nil {
		return "", elapsed(), err
	}
	run, err := s.client.CreateRun(ctx, tid, s.pickAssistant(isPro))
	if err != nil {
		return "", elapsed(), err
	}

	text, err := s.awaitAnswer(ctx, tid, run.ID, start)
	return text, elapsed(), err
}

func (s *Service) resolveThread(ctx context.Context, externalID int64, threadID *string) (string, error) {
	if threadID != nil && *threadID != "" {
		return *threadID, nil
	}

	created, err := s.client.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	// Another request may have bound a thread meanwhile. The stored one
	// wins so the user keeps a single conversation.
	stored, err := s.threads.BindThread(ctx, externalID, created)
	if err != nil {
		return "", fmt.Errorf("bind thread: %w", err)
	}
	if stored != created {
		logger.InfoString("Assistant", "Thread",
			fmt.Sprintf("kept already bound thread %s, discarding %s", stored, created))
	}
	return stored, nil
}

func (s *Service) pickAssistant(isPro bool) string {
	if isPro && s.assistantIDPro != "" {
		return s.assistantIDPro
	}
	return s.assistantID
}

func (s *Service) awaitAnswer(ctx context.Context, threadID, runID string, start time.Time) (string, error) {
	status, err := s.waitRun(ctx, threadID, runID, start)
	if err != nil {
		return "", err
	}

	switch status {
	case StatusCompleted:
		logger.InfoString("Assistant", "Run",
			fmt.Sprintf("completed thread_id=%s run_id=%s elapsed_ms=%d",
				threadID, runID, time.Since(start).Milliseconds()))
		return s.client.LastAssistantMessage(ctx, threadID)
	case StatusFailed:
		run, rerr := s.client.GetRun(ctx, threadID, runID)
		if rerr == nil && run.LastError != nil {
			return "", fmt.Errorf("assistant run failed: %s: %s", run.LastError.Code, run.LastError.Message)
		}
		return "", fmt.Errorf("assistant run failed: run_id=%s", runID)
	default:
		return "", fmt.Errorf("assistant run ended with status %q", status)
	}
}

// waitRun polls the run until it reaches a terminal status. It returns a
// *RunTimeoutError when the wait window is exhausted first.
func (s *Service) waitRun(ctx context.Context, threadID, runID string, start time.Time) (string, error) {
	deadline := time.Now().Add(s.runWaitTimeout)
	for {
		run, err := s.client.GetRun(ctx, threadID, runID)
		if err != nil {
			return "", err
		}
		if isTerminalStatus(run.Status) {
			return run.Status, nil
		}
		if time.Now().After(deadline) {
			elapsedMs := time.Since(start).Milliseconds()
			logger.WarnString("Assistant", "Run",
				fmt.Sprintf("run wait timeout thread_id=%s run_id=%s elapsed_ms=%d",
					threadID, runID, elapsedMs))
			return "", &RunTimeoutError{RunID: runID, ThreadID: threadID, ElapsedMs: elapsedMs}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}
