// Package assistant talks to the OpenAI Assistants API and keeps one
// thread per user.
package assistant

import "fmt"

// Run statuses. Active ones mean no new run may be created on the thread.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusRequiresAction = "requires_action"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
	StatusCancelled      = "cancelled"
	StatusExpired        = "expired"
)

// Thread is a conversation on the OpenAI side.
type Thread struct {
	ID string `json:"id"`
}

// Run is one assistant execution on a thread.
type Run struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	LastError *RunError `json:"last_error,omitempty"`
}

// RunError is the failure detail of a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunList is the envelope of GET /runs.
type RunList struct {
	Data []Run `json:"data"`
}

// MessageContent is one content block of a thread message.
type MessageContent struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
}

// ThreadMessage is one message on a thread.
type ThreadMessage struct {
	ID      string           `json:"id"`
	Role    string           `json:"role"`
	Content []MessageContent `json:"content"`
}

// MessageList is the envelope of GET /messages.
type MessageList struct {
	Data []ThreadMessage `json:"data"`
}

// apiError is the OpenAI error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// RunTimeoutError is returned when a run does not reach a terminal status
// within the wait window. The run keeps going on the OpenAI side, so the
// next request on the thread can pick its answer up.
type RunTimeoutError struct {
	RunID     string
	ThreadID  string
	ElapsedMs int64
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("assistant run wait timeout: run_id=%s thread_id=%s elapsed_ms=%d",
		e.RunID, e.ThreadID, e.ElapsedMs)
}

func isActiveStatus(status string) bool {
	switch status {
	case StatusQueued, StatusInProgress, StatusRequiresAction:
		return true
	}
	return false
}

func isTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}
