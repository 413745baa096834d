package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// TaskID names a task in the wait-time map.
type TaskID string

// MetricOperation labels which queue operation a counter belongs to.
type MetricOperation string

const (
	OpPush    MetricOperation = "push"
	OpPop     MetricOperation = "pop"
	OpProcess MetricOperation = "process"
)

// LatencyStats aggregates one latency stream.
type LatencyStats struct {
	mu    sync.Mutex
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
}

func (s *LatencyStats) record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	s.total += d
	if s.min == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
}

func (s *LatencyStats) snapshot() (count int64, avg, min, max time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return 0, 0, 0, 0
	}
	return s.count, s.total / time.Duration(s.count), s.min, s.max
}

// QueueMetrics collects in-process queue counters.
type QueueMetrics struct {
	totalTasks      atomic.Int64
	successfulTasks atomic.Int64
	failedTasks     atomic.Int64

	pushLatency    *LatencyStats
	processLatency *LatencyStats

	avgWaitTime   atomic.Int64 // milliseconds
	waitTimeStart *sync.Map    // map[TaskID]time.Time
}

// NewQueueMetrics creates an empty collector.
func NewQueueMetrics() *QueueMetrics {
	return &QueueMetrics{
		pushLatency:    &LatencyStats{},
		processLatency: &LatencyStats{},
		waitTimeStart:  &sync.Map{},
	}
}

// RecordSuccess counts a completed operation.
func (m *QueueMetrics) RecordSuccess(op MetricOperation) {
	m.successfulTasks.Add(1)
	m.totalTasks.Add(1)
}

// RecordError counts a failed operation.
func (m *QueueMetrics) RecordError(op MetricOperation) {
	m.failedTasks.Add(1)
	m.totalTasks.Add(1)
}

// StartWaitTime marks when a task entered the queue.
func (m *QueueMetrics) StartWaitTime(taskID TaskID) {
	m.waitTimeStart.Store(taskID, time.Now())
}

// EndWaitTime folds the task's queue wait into the running average.
func (m *QueueMetrics) EndWaitTime(taskID TaskID) {
	if startTime, ok := m.waitTimeStart.LoadAndDelete(taskID); ok {
		waitDuration := time.Since(startTime.(time.Time))

		currentAvg := m.avgWaitTime.Load()
		totalTasks := m.totalTasks.Load()
		newAvg := (currentAvg*totalTasks + waitDuration.Milliseconds()) / (totalTasks + 1)
		m.avgWaitTime.Store(newAvg)
	}
}

// RecordPushLatency records how long one enqueue took.
func (m *QueueMetrics) RecordPushLatency(d time.Duration) {
	m.pushLatency.record(d)
}

// RecordProcessingTime records how long one task took end to end.
func (m *QueueMetrics) RecordProcessingTime(d time.Duration) {
	m.processLatency.record(d)
}

// Snapshot is the metrics view served by the admin endpoints.
type Snapshot struct {
	TotalTasks      int64 `json:"total_tasks"`
	SuccessfulTasks int64 `json:"successful_tasks"`
	FailedTasks     int64 `json:"failed_tasks"`
	AvgWaitTimeMs   int64 `json:"avg_wait_time_ms"`
	AvgProcessMs    int64 `json:"avg_process_ms"`
	MaxProcessMs    int64 `json:"max_process_ms"`
}

// GetSnapshot returns the current counter values.
func (m *QueueMetrics) GetSnapshot() Snapshot {
	_, avg, _, max := m.processLatency.snapshot()
	return Snapshot{
		TotalTasks:      m.totalTasks.Load(),
		SuccessfulTasks: m.successfulTasks.Load(),
		FailedTasks:     m.failedTasks.Load(),
		AvgWaitTimeMs:   m.avgWaitTime.Load(),
		AvgProcessMs:    avg.Milliseconds(),
		MaxProcessMs:    max.Milliseconds(),
	}
}
