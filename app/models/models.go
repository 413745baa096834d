// Package models holds fields shared by all models.
package models

import "time"

// CommonTimestampsField is embedded by models carrying the standard pair of
// timestamps. CreatedAt is set once at insertion and never mutated.
type CommonTimestampsField struct {
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at,omitempty"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
}
