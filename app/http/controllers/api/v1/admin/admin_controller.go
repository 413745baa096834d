// Package admin serves operational stats and the health check.
package admin

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/AlexYAT/vedic-astrologer-bot/app/repositories"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/database"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/queue"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/response"
)

type AdminController struct {
	queueService *queue.QueueService
	requestRepo  *repositories.RequestRepository
}

func NewAdminController() *AdminController {
	return &AdminController{
		queueService: queue.GetQueueService(),
		requestRepo:  repositories.NewRequestRepository(),
	}
}

// Stats aggregates the request log over a window (hours, default 24) and
// adds the in-process queue counters.
func (ac *AdminController) Stats(c *gin.Context) {
	hours := cast.ToInt(c.DefaultQuery("hours", "24"))
	if hours < 1 || hours > 24*90 {
		hours = 24
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	stats, err := ac.requestRepo.StatsSince(c.Request.Context(), since)
	if err != nil {
		response.Abort500(c, "failed to aggregate request stats")
		return
	}

	response.Data(c, gin.H{
		"window_hours": hours,
		"requests": gin.H{
			"total":                stats.Total,
			"failed":               stats.Failed,
			"avg_response_time_ms": stats.AvgResponseTimeMs,
		},
		"queue": ac.queueService.Metrics().GetSnapshot(),
	})
}

// HealthCheck verifies the store and the queue redis instance.
func (ac *AdminController) HealthCheck(c *gin.Context) {
	if database.SQLDB != nil {
		if err := database.SQLDB.Ping(); err != nil {
			response.Abort500(c, "database unavailable")
			return
		}
	}

	if err := ac.queueService.Ping(c.Request.Context()); err != nil {
		response.Abort500(c, "queue service unavailable")
		return
	}

	response.Data(c, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
