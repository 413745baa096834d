package config

import (
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
)

func init() {
	config.Add("openai", func() map[string]interface{} {
		return map[string]interface{}{
			"api_key":  config.Env("OPENAI_API_KEY", ""),
			"base_url": config.Env("OPENAI_BASE_URL", "https://api.openai.com"),

			// Assistant used for the free tier; the pro tier falls back to
			// the free assistant when no dedicated one is configured.
			"assistant_id":     config.Env("ASSISTANT_ID_FREE", config.Env("ASSISTANT_ID", "")),
			"assistant_id_pro": config.Env("ASSISTANT_ID_PRO", ""),

			// HTTP timeout for a single API call, seconds.
			"timeout": config.Env("OPENAI_TIMEOUT", 15),

			// Total time to wait for a run to reach a terminal status, seconds.
			"run_wait_timeout": config.Env("OPENAI_RUN_WAIT_TIMEOUT", 60),

			// Poll interval while a run is in flight, milliseconds.
			"poll_interval_ms": config.Env("OPENAI_POLL_INTERVAL_MS", 1200),

			"max_retries": config.Env("OPENAI_MAX_RETRIES", 3),
		}
	})
}
