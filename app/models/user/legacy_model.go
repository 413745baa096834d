package user

// LegacyUser mirrors the pre-upgrade users table after it has been renamed
// to users_legacy. The table is read-only from this code path and is kept
// indefinitely for recovery; only the columns the migration copies are
// mapped.
type LegacyUser struct {
	UserID     int64   `gorm:"column:user_id;primaryKey"`
	BirthDate  *string `gorm:"column:birth_date"`
	BirthTime  *string `gorm:"column:birth_time"`
	BirthPlace *string `gorm:"column:birth_place"`
	Phone      *string `gorm:"column:phone"`
	Email      *string `gorm:"column:email"`
	ThreadID   *string `gorm:"column:thread_id"`
}

// TableName sets the reserved legacy table name.
func (LegacyUser) TableName() string {
	return "users_legacy"
}
