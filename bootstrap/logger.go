package bootstrap

import (
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"
)

// SetupLogger initializes the zap logger from config.
func SetupLogger() {
	logger.InitLogger(
		config.GetString("log.filename"),
		config.GetInt("log.max_size"),
		config.GetInt("log.max_backup"),
		config.GetInt("log.max_age"),
		config.GetBool("log.compress"),
		config.GetString("log.type"),
		config.GetString("log.level"),
	)
}
