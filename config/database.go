package config

import (
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
)

func init() {
	config.Add("database", func() map[string]interface{} {
		return map[string]interface{}{
			// Default connection. SQLite keeps the store embedded and
			// file-backed; PostgreSQL is available for bigger deployments.
			"connection": config.Env("DB_CONNECTION", "sqlite"),

			// PostgreSQL settings.
			"postgresql": map[string]interface{}{
				"host":     config.Env("DB_HOST", "127.0.0.1"),
				"port":     config.Env("DB_PORT", "5432"),
				"database": config.Env("DB_DATABASE", "astrobot"),
				"username": config.Env("DB_USERNAME", ""),
				"password": config.Env("DB_PASSWORD", ""),

				// Connection pool.
				"max_idle_connections": config.Env("DB_MAX_IDLE_CONNECTIONS", 25),
				"max_open_connections": config.Env("DB_MAX_OPEN_CONNECTIONS", 25),
				"max_life_seconds":     config.Env("DB_MAX_LIFE_SECONDS", 5*60),
			},

			// SQLite settings.
			"sqlite": map[string]interface{}{
				"database": config.Env("DB_SQL_FILE", "database/users.db"),
			},
		}
	})
}
