// Package repositories is the data-access surface of the application.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexYAT/vedic-astrologer-bot/app/models/user"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/database"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/errs"

	"gorm.io/gorm"
)

// UserRepository is the sole access path to user rows, including the lazy
// per-user migration from the legacy table.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a repository over the shared connection.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		db: database.DB,
	}
}

// NewUserRepositoryWithDB creates a repository over an explicit connection.
func NewUserRepositoryWithDB(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// BirthData carries the three birth fields plus an explicit completeness
// indicator.
type BirthData struct {
	BirthDate  *string `json:"birth_date,omitempty"`
	BirthTime  *string `json:"birth_time,omitempty"`
	BirthPlace *string `json:"birth_place,omitempty"`
	Complete   bool    `json:"complete"`
}

// GetOrCreate returns the current-table row for externalID, creating it on
// first contact. A matching legacy row seeds the new one (birth data and
// contact details are copied, the assistant thread is not); the legacy row
// itself stays untouched. Safe to call concurrently for the same identity:
// the first insert wins and every other caller observes the winner's row.
func (r *UserRepository) GetOrCreate(ctx context.Context, externalID int64) (*user.User, error) {
	existing, err := r.findByExternalID(ctx, externalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: lookup user %d: %v", errs.ErrStorageUnavailable, externalID, err)
	}

	fresh := &user.User{ExternalID: externalID}
	if legacy, legacyErr := r.findLegacy(ctx, externalID); legacyErr == nil {
		fresh.BirthDate = legacy.BirthDate
		fresh.BirthTime = legacy.BirthTime
		fresh.BirthPlace = legacy.BirthPlace
		fresh.Phone = legacy.Phone
		fresh.Email = legacy.Email
		// ThreadID deliberately not copied: assistant sessions do not
		// survive the schema upgrade.
	} else if !errors.Is(legacyErr, gorm.ErrRecordNotFound) && r.hasLegacyTable() {
		return nil, fmt.Errorf("%w: legacy lookup for %d: %v", errs.ErrStorageUnavailable, externalID, legacyErr)
	}

	err = r.db.WithContext(ctx).Create(fresh).Error
	if err == nil {
		return fresh, nil
	}

	// A concurrent caller inserted the same identity first. Return its row.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		winner, readErr := r.findByExternalID(ctx, externalID)
		if readErr != nil {
			return nil, fmt.Errorf("%w: re-read after conflict for %d: %v", errs.ErrStorageUnavailable, externalID, readErr)
		}
		return winner, nil
	}

	return nil, fmt.Errorf("%w: create user %d: %v", errs.ErrStorageUnavailable, externalID, err)
}

// UpdateBirthData updates any subset of the three birth fields in a single
// atomic write. Nil arguments leave the corresponding field untouched.
func (r *UserRepository) UpdateBirthData(ctx context.Context, externalID int64, birthDate, birthTime, birthPlace *string) error {
	updates := map[string]interface{}{}
	if birthDate != nil {
		updates["birth_date"] = *birthDate
	}
	if birthTime != nil {
		updates["birth_time"] = *birthTime
	}
	if birthPlace != nil {
		updates["birth_place"] = *birthPlace
	}
	if len(updates) == 0 {
		// Still verify the row exists so callers get a consistent contract.
		_, err := r.findByExternalID(ctx, externalID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrUserNotFound
		}
		return err
	}

	return r.applyUpdates(ctx, externalID, updates)
}

// GetBirthData returns the three birth fields with an explicit completeness
// flag.
func (r *UserRepository) GetBirthData(ctx context.Context, externalID int64) (*BirthData, error) {
	u, err := r.findByExternalID(ctx, externalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}

	return &BirthData{
		BirthDate:  u.BirthDate,
		BirthTime:  u.BirthTime,
		BirthPlace: u.BirthPlace,
		Complete:   u.HasFullData(),
	}, nil
}

// BindThread sets the assistant thread once. If a thread is already bound
// the stored value is returned unchanged: a user's session, once
// established, is stable for the lifetime of the row.
func (r *UserRepository) BindThread(ctx context.Context, externalID int64, threadID string) (string, error) {
	res := r.db.WithContext(ctx).Model(&user.User{}).
		Where("external_id = ? AND (thread_id IS NULL OR thread_id = '')", externalID).
		Update("thread_id", threadID)
	if res.Error != nil {
		return "", fmt.Errorf("%w: bind thread for %d: %v", errs.ErrStorageUnavailable, externalID, res.Error)
	}

	u, err := r.findByExternalID(ctx, externalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errs.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrStorageUnavailable, err)
	}
	if u.ThreadID == nil {
		return "", errs.ErrUserNotFound
	}
	return *u.ThreadID, nil
}

// UpdateContact updates phone and/or email. Nil arguments are skipped.
func (r *UserRepository) UpdateContact(ctx context.Context, externalID int64, phone, email *string) error {
	updates := map[string]interface{}{}
	if phone != nil {
		updates["phone"] = *phone
	}
	if email != nil {
		updates["email"] = *email
	}
	if len(updates) == 0 {
		return nil
	}
	return r.applyUpdates(ctx, externalID, updates)
}

// SetPro flips the elevated tier flag. What triggers the elevation lives
// outside the store.
func (r *UserRepository) SetPro(ctx context.Context, externalID int64, isPro bool) error {
	return r.applyUpdates(ctx, externalID, map[string]interface{}{"is_pro": isPro})
}

// DeleteByExternalID removes the current-table row. Administrative
// operation; the legacy table and the request log are left alone.
func (r *UserRepository) DeleteByExternalID(ctx context.Context, externalID int64) error {
	res := r.db.WithContext(ctx).Where("external_id = ?", externalID).Delete(&user.User{})
	if res.Error != nil {
		return fmt.Errorf("%w: delete user %d: %v", errs.ErrStorageUnavailable, externalID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) applyUpdates(ctx context.Context, externalID int64, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&user.User{}).
		Where("external_id = ?", externalID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: update user %d: %v", errs.ErrStorageUnavailable, externalID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findByExternalID(ctx context.Context, externalID int64) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// findLegacy is the read-only legacy accessor used exclusively by the
// migration path inside GetOrCreate.
func (r *UserRepository) findLegacy(ctx context.Context, externalID int64) (*user.LegacyUser, error) {
	var legacy user.LegacyUser
	err := r.db.WithContext(ctx).
		Select("user_id", "birth_date", "birth_time", "birth_place", "phone", "email").
		Where("user_id = ?", externalID).
		First(&legacy).Error
	if err != nil {
		return nil, err
	}
	return &legacy, nil
}

// hasLegacyTable reports whether this store ever had a legacy epoch. A
// legacy lookup failing against a store without the table is a normal miss,
// not a storage failure.
func (r *UserRepository) hasLegacyTable() bool {
	return r.db.Migrator().HasTable(user.LegacyUser{}.TableName())
}
