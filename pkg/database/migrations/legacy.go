package migrations

import (
	"fmt"

	"github.com/AlexYAT/vedic-astrologer-bot/app/models/user"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/errs"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"

	"gorm.io/gorm"
)

const (
	currentUsersTable = "users"
	legacyUsersTable  = "users_legacy"
)

// AdoptLegacyUsers renames a pre-upgrade users table out of the way of the
// current schema. It must run, and complete, before AutoMigrate creates the
// new users table. Idempotent: once the table has been adopted (or was never
// there) subsequent startups do nothing.
//
// The pre-upgrade layout is recognized by the absence of the external_id
// column: the old table was keyed directly by the Telegram id, the current
// one carries a surrogate key plus a unique external_id.
//
// Nothing is ever dropped here. If the legacy name is already occupied while
// the current table still looks pre-upgrade, two schema epochs would collide
// and the only safe move is to stop the startup.
func AdoptLegacyUsers(db *gorm.DB) error {
	migrator := db.Migrator()

	if !migrator.HasTable(currentUsersTable) {
		// Fresh store; AutoMigrate will create everything.
		return nil
	}

	if migrator.HasColumn(&user.User{}, "external_id") {
		// Already on the current schema.
		return nil
	}

	if migrator.HasTable(legacyUsersTable) {
		return fmt.Errorf(
			"%w: table %q is pre-upgrade but %q already exists",
			errs.ErrMigrationIntegrity, currentUsersTable, legacyUsersTable,
		)
	}

	if err := migrator.RenameTable(currentUsersTable, legacyUsersTable); err != nil {
		return fmt.Errorf("%w: rename %s -> %s: %v",
			errs.ErrMigrationIntegrity, currentUsersTable, legacyUsersTable, err)
	}

	logger.InfoString("Database", "Migration",
		fmt.Sprintf("adopted pre-upgrade table %s as %s", currentUsersTable, legacyUsersTable))
	return nil
}
