// Package migrations owns the physical schema: the model list AutoMigrate
// creates on every startup, and the one-time adoption of a pre-upgrade
// users table.
package migrations

import (
	"github.com/AlexYAT/vedic-astrologer-bot/app/models/request"
	"github.com/AlexYAT/vedic-astrologer-bot/app/models/user"
)

// RegisterTables returns the models whose tables must exist.
func RegisterTables() []interface{} {
	return []interface{}{
		&user.User{},
		&request.Request{},
	}
}
