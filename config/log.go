package config

import "github.com/AlexYAT/vedic-astrologer-bot/pkg/config"

func init() {
	config.Add("log", func() map[string]interface{} {
		return map[string]interface{}{

			// Log level: debug, info, warn, error.
			"level": config.Env("LOG_LEVEL", "debug"),

			// Log type: single (one file) or daily (rotated per day).
			"type": config.Env("LOG_TYPE", "single"),

			// Rotation settings, handled by lumberjack.
			"filename":   config.Env("LOG_NAME", "storage/logs/app.log"),
			"max_size":   config.Env("LOG_MAX_SIZE", 64),
			"max_backup": config.Env("LOG_MAX_BACKUP", 5),
			"max_age":    config.Env("LOG_MAX_AGE", 30),
			"compress":   config.Env("LOG_COMPRESS", false),
		}
	})
}
