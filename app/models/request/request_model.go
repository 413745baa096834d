// Package request holds the assistant request audit log model.
package request

import (
	"time"
)

// Request is one immutable audit record per assistant interaction attempt.
// Rows are never updated or deleted after insertion.
type Request struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// Owning user's surrogate key. The composite index with created_at
	// serves ordered per-user history and volume analytics.
	UserID uint64 `gorm:"column:user_id;not null;index:idx_user_requests_user_created,priority:1" json:"user_id"`

	// What kind of interaction this was, not its content.
	Type Type `gorm:"column:request_type;type:varchar(20);not null" json:"request_type"`

	// Optional free text, e.g. a user-supplied topic or action. Absent for
	// parameterless request types.
	Text *string `gorm:"column:request_text;type:text" json:"request_text,omitempty"`

	// Outcome of the attempt.
	Success bool `gorm:"column:success;not null" json:"success"`

	// Elapsed duration of the attempt, never negative.
	ResponseTimeMs int64 `gorm:"column:response_time_ms;not null;default:0" json:"response_time_ms"`

	CreatedAt time.Time `gorm:"column:created_at;index:idx_user_requests_user_created,priority:2" json:"created_at"`
}

// TableName sets the physical table name.
func (Request) TableName() string {
	return "user_requests"
}
