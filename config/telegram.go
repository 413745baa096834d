package config

import (
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
)

func init() {
	config.Add("telegram", func() map[string]interface{} {
		return map[string]interface{}{
			"token":    config.Env("TELEGRAM_BOT_TOKEN", ""),
			"base_url": config.Env("TELEGRAM_BASE_URL", "https://api.telegram.org"),

			// Secret token Telegram echoes back in the
			// X-Telegram-Bot-Api-Secret-Token header on webhook calls.
			"webhook_secret": config.Env("TELEGRAM_WEBHOOK_SECRET", ""),

			"timeout":     config.Env("TELEGRAM_TIMEOUT", 10),
			"max_retries": config.Env("TELEGRAM_MAX_RETRIES", 3),

			// Comma-separated telegram ids allowed to call /admin.
			"admin_ids": config.Env("TELEGRAM_ADMIN_IDS", ""),
		}
	})
}
