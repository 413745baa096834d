package repositories

import (
	"context"
	"errors"

	"github.com/AlexYAT/vedic-astrologer-bot/app/models/user"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/errs"

	"gorm.io/gorm"
)

// Thin forwarding layer for call sites written against the previous store
// API. Every alias resolves to the canonical current-schema operations.

// GetUser returns the row for externalID, or ErrUserNotFound.
func (r *UserRepository) GetUser(ctx context.Context, externalID int64) (*user.User, error) {
	u, err := r.findByExternalID(ctx, externalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrUserNotFound
	}
	return u, err
}

// CreateUser ensures a row exists for externalID.
func (r *UserRepository) CreateUser(ctx context.Context, externalID int64) error {
	_, err := r.GetOrCreate(ctx, externalID)
	return err
}

// UserHasFullData reports whether all three birth fields are set. Unknown
// users simply have no full data.
func (r *UserRepository) UserHasFullData(ctx context.Context, externalID int64) bool {
	data, err := r.GetBirthData(ctx, externalID)
	if err != nil {
		return false
	}
	return data.Complete
}

// SaveUserData stores the complete birth data set in one write, creating the
// row first when needed.
func (r *UserRepository) SaveUserData(ctx context.Context, externalID int64, birthDate, birthTime, birthPlace string) error {
	if _, err := r.GetOrCreate(ctx, externalID); err != nil {
		return err
	}
	return r.UpdateBirthData(ctx, externalID, &birthDate, &birthTime, &birthPlace)
}

// UpdateUser applies a partial update across birth and contact fields; nil
// arguments are skipped.
func (r *UserRepository) UpdateUser(ctx context.Context, externalID int64, birthDate, birthTime, birthPlace, phone, email *string) error {
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
