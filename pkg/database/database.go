// Package database holds the database connection objects.
package database

import (
	"database/sql"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the gorm handle shared by the whole application.
var DB *gorm.DB

// SQLDB is the underlying sql.DB, exposed for pool tuning.
var SQLDB *sql.DB

// Connect opens the database connection.
func Connect(dbConfig gorm.Dialector, _logger gormlogger.Interface) {
	var err error

	// TranslateError makes uniqueness violations come back as
	// gorm.ErrDuplicatedKey on every supported dialect; the user store's
	// conflict-then-reread path depends on it.
	DB, err = gorm.Open(dbConfig, &gorm.Config{
		Logger:         _logger,
		TranslateError: true,
	})
	if err != nil {
		logger.ErrorString("Database", "Connect", err.Error())
		panic(err)
	}

	SQLDB, err = DB.DB()
	if err != nil {
		logger.ErrorString("Database", "SQLDB", err.Error())
		panic(err)
	}
}

// AutoMigrate creates or upgrades every registered table. Safe to run on
// every startup.
func AutoMigrate(tables []interface{}) error {
	return DB.AutoMigrate(tables...)
}
