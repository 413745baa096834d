package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/database"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/database/migrations"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupDB connects the store, adopts a pre-upgrade users table when one is
// found and migrates the schema. Any failure here is fatal: the process
// must not serve requests against a store in an unknown schema state.
func SetupDB() {
	var dbConfig gorm.Dialector
	switch config.Get("database.connection") {
	case "postgresql":
		dbConfig = setupPostgreSQL()
	case "sqlite":
		dbConfig = setupSQLite()
	default:
		panic(errors.New("unsupported database connection type"))
	}

	database.Connect(dbConfig, logger.NewGormLogger())

	setupDBPool()

	// Legacy adoption must run before AutoMigrate: once the new users
	// table exists, an old-shape one can no longer be told apart.
	if err := migrations.AdoptLegacyUsers(database.DB); err != nil {
		logger.ErrorString("Database", "LegacyAdoption", err.Error())
		panic(fmt.Errorf("legacy schema adoption failed: %w", err))
	}

	if err := database.AutoMigrate(migrations.RegisterTables()); err != nil {
		logger.ErrorString("Database", "AutoMigrate", err.Error())
		panic(fmt.Errorf("schema migration failed: %w", err))
	}
	logger.InfoString("Database", "AutoMigrate", "schema is up to date")
}

func setupPostgreSQL() gorm.Dialector {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
		config.Get("database.postgresql.host"),
		config.Get("database.postgresql.port"),
		config.Get("database.postgresql.username"),
		config.Get("database.postgresql.password"),
		config.Get("database.postgresql.database"),
		config.Get("app.timezone"),
	)
	return postgres.New(postgres.Config{
		DSN: dsn,
	})
}

func setupSQLite() gorm.Dialector {
	dbFile := config.Get("database.sqlite.database")
	return sqlite.Open(dbFile)
}

func setupDBPool() {
	database.SQLDB.SetMaxOpenConns(config.GetInt("database.postgresql.max_open_connections"))
	database.SQLDB.SetMaxIdleConns(config.GetInt("database.postgresql.max_idle_connections"))
	database.SQLDB.SetConnMaxLifetime(time.Duration(config.GetInt("database.postgresql.max_life_seconds")) * time.Second)
}
