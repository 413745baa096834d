package config

import (
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
)

func init() {
	config.Add("redis", func() map[string]interface{} {
		return map[string]interface{}{
			"host":     config.Env("REDIS_HOST", "127.0.0.1"),
			"port":     config.Env("REDIS_PORT", "6379"),
			"username": config.Env("REDIS_USERNAME", ""),
			"password": config.Env("REDIS_PASSWORD", ""),

			// Conversation state and rate limiting live in the main database.
			"database": config.Env("REDIS_MAIN_DB", 1),

			// Forecast task queue gets a database of its own.
			"queue_database": config.Env("REDIS_QUEUE_DB", 2),
			"queue_prefix":   config.Env("REDIS_QUEUE_PREFIX", "astrobot:queue"),
			"queue_timeout":  config.Env("REDIS_QUEUE_TIMEOUT", 300),

			// TTL for an unfinished birth-data survey, seconds.
			"state_ttl": config.Env("REDIS_STATE_TTL", 900),
		}
	})
}
