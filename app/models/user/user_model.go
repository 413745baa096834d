// Package user holds the User model.
package user

import (
	"github.com/AlexYAT/vedic-astrologer-bot/app/models"
)

// User is the canonical per-identity record. Exactly one row exists per
// Telegram identity; ExternalID is the only lookup key exposed outside the
// store.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// Telegram user id. Uniqueness is enforced by the storage layer so that
	// concurrent first-contact creations cannot produce duplicates.
	ExternalID int64 `gorm:"column:external_id;uniqueIndex;not null" json:"external_id"`

	// Birth data stays unset until the user completes the survey. BirthTime
	// is HH:MM, or the literal "неизвестно" when the user does not know it.
	BirthDate  *string `gorm:"type:varchar(10)" json:"birth_date,omitempty"`
	BirthTime  *string `gorm:"type:varchar(16)" json:"birth_time,omitempty"`
	BirthPlace *string `gorm:"type:varchar(255)" json:"birth_place,omitempty"`

	// Optional contact details collected via /contact.
	Phone *string `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Email *string `gorm:"type:varchar(255)" json:"email,omitempty"`

	// Assistant conversation handle, bound once on the first assistant call
	// and reused for the lifetime of the row.
	ThreadID *string `gorm:"column:thread_id;type:varchar(64)" json:"thread_id,omitempty"`

	// Elevated tier flag. Only the elevation operation mutates it.
	IsPro bool `gorm:"column:is_pro;not null;default:false" json:"is_pro"`

	models.CommonTimestampsField
}

// TableName sets the physical table name.
func (User) TableName() string {
	return "users"
}

// HasFullData reports whether all three birth fields are set.
func (u *User) HasFullData() bool {
	return isSet(u.BirthDate) && isSet(u.BirthTime) && isSet(u.BirthPlace)
}

func isSet(s *string) bool {
	return s != nil && *s != ""
}
