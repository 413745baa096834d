// Package config holds application configuration sections.
package config

import "github.com/AlexYAT/vedic-astrologer-bot/pkg/config"

func init() {
	config.Add("app", func() map[string]interface{} {
		return map[string]interface{}{

			// Application name, used as prefix for redis keys and log entries.
			"name": config.Env("APP_NAME", "AstrologerBot"),

			// Current environment: local, testing, production.
			"env": config.Env("APP_ENV", "production"),

			// Debug mode.
			"debug": config.Env("APP_DEBUG", false),

			// HTTP port the webhook and API listen on.
			"port": config.Env("APP_PORT", "3000"),

			// Timezone used for timestamps and the assistant date prefix.
			"timezone": config.Env("TIMEZONE", "Europe/Moscow"),
		}
	})
}
