package routes

import (
	"github.com/AlexYAT/vedic-astrologer-bot/app/http/controllers/api/v1/admin"
	"github.com/AlexYAT/vedic-astrologer-bot/app/http/controllers/api/v1/bot"
	"github.com/AlexYAT/vedic-astrologer-bot/app/http/controllers/api/v1/users"
	"github.com/AlexYAT/vedic-astrologer-bot/app/http/middlewares"

	"github.com/gin-gonic/gin"
)

// Route rate limits.
const (
	// Global: per IP per hour.
	GlobalRateLimit = "30000-H"
	// Webhook: Telegram delivers from a small IP set, keep it generous.
	WebhookRateLimit = "10000-H"
	// Read API: per IP per minute.
	QueryRateLimit = "300-M"
)

// RegisterAPIRoutes wires all HTTP routes.
func RegisterAPIRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.Use(
		middlewares.SecurityHeaders(),
		middlewares.LimitIP(GlobalRateLimit),
		middlewares.Cors(),
	)

	// Telegram webhook entry point.
	// POST /v1/telegram/webhook
	wc := bot.NewWebhookController()
	v1.POST("/telegram/webhook",
		middlewares.LimitIP(WebhookRateLimit),
		wc.Handle,
	)

	// Read-only user API.
	userRoutes := v1.Group("/users")
	{
		uc := users.NewUsersController()

		// GET /v1/users/:external_id
		userRoutes.GET("/:external_id",
			middlewares.LimitPerRoute(QueryRateLimit),
			uc.Show,
		)

		// GET /v1/users/:external_id/requests
		userRoutes.GET("/:external_id/requests",
			middlewares.LimitPerRoute(QueryRateLimit),
			uc.History,
		)
	}

	// Operational surface.
	ac := admin.NewAdminController()
	v1.GET("/admin/stats",
		middlewares.LimitPerRoute(QueryRateLimit),
		ac.Stats,
	)
	v1.GET("/health", ac.HealthCheck)
}
