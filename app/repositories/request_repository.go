package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/app/models/request"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/database"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/errs"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"

	"gorm.io/gorm"
)

// RequestRepository appends and reads the immutable assistant request log.
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a repository over the shared connection.
func NewRequestRepository() *RequestRepository {
	return &RequestRepository{
		db: database.DB,
	}
}

// NewRequestRepositoryWithDB creates a repository over an explicit connection.
func NewRequestRepositoryWithDB(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Stats aggregates request log rows for the admin surface.
type Stats struct {
	Total             int64   `json:"total"`
	Failed            int64   `json:"failed"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// Log appends one audit row. The type must belong to the closed set; the
// row is never touched again after insertion.
func (r *RequestRepository) Log(ctx context.Context, userID uint64, reqType request.Type, text *string, success bool, responseTimeMs int64) error {
	row := &request.Request{
		UserID:         userID,
		Type:           reqType,
		Text:           text,
		Success:        success,
		ResponseTimeMs: responseTimeMs,
	}
	if err := row.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("%w: append request log: %v", errs.ErrStorageUnavailable, err)
	}
	return nil
}

// LogUserRequest is the best-effort variant used on user-facing paths: a
// failed audit write is reported to the log and swallowed, so that an audit
// gap never turns into a user-visible error.
func (r *RequestRepository) LogUserRequest(ctx context.Context, userID uint64, reqType request.Type, text *string, success bool, responseTimeMs int64) {
	if err := r.Log(ctx, userID, reqType, text, success, responseTimeMs); err != nil {
		logger.ErrorString("RequestLog", "Append",
			fmt.Sprintf("user_id=%d type=%s: %v", userID, reqType, err))
	}
}

// HistoryByUserID returns a user's requests in chronological order, served
// by the (user_id, created_at) index.
func (r *RequestRepository) HistoryByUserID(ctx context.Context, userID uint64, limit int) ([]request.Request, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []request.Request
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: request history for %d: %v", errs.ErrStorageUnavailable, userID, err)
	}
	return rows, nil
}

// StatsSince aggregates volume, failure count and mean latency over rows
// created at or after since.
func (r *RequestRepository) StatsSince(ctx context.Context, since time.Time) (*Stats, error) {
	var stats Stats
	base := r.db.WithContext(ctx).Model(&request.Request{}).Where("created_at >= ?", since)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("%w: request stats: %v", errs.ErrStorageUnavailable, err)
	}
	if err := base.Session(&gorm.Session{}).Where("success = ?", false).Count(&stats.Failed).Error; err != nil {
		return nil, fmt.Errorf("%w: request stats: %v", errs.ErrStorageUnavailable, err)
	}
	if stats.Total > 0 {
		err := r.db.WithContext(ctx).Model(&request.Request{}).
			Where("created_at >= ?", since).
			Select("AVG(response_time_ms)").
			Scan(&stats.AvgResponseTimeMs).Error
		if err != nil {
			return nil, fmt.Errorf("%w: request stats: %v", errs.ErrStorageUnavailable, err)
		}
	}
	return &stats, nil
}
