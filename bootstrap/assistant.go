package bootstrap

import (
	"github.com/AlexYAT/vedic-astrologer-bot/app/repositories"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/assistant"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/telegram"
)

// SetupClients initializes the Telegram bot client and the assistant
// service. Requires the database (thread binding goes through the user
// store).
func SetupClients() {
	telegram.InitBot()
	assistant.InitService(repositories.NewUserRepository())
}
