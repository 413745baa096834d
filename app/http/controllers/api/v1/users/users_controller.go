// Package users is the read-only REST surface over the user store.
package users

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AlexYAT/vedic-astrologer-bot/app/repositories"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/errs"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/response"
)

type UsersController struct {
	userRepo    *repositories.UserRepository
	requestRepo *repositories.RequestRepository
}

func NewUsersController() *UsersController {
	return &UsersController{
		userRepo:    repositories.NewUserRepository(),
		requestRepo: repositories.NewRequestRepository(),
	}
}

// Show returns the profile for one external identity.
func (uc *UsersController) Show(c *gin.Context) {
	externalID, ok := parseExternalID(c)
	if !ok {
		return
	}

	usr, err := uc.userRepo.GetUser(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			response.Abort404(c, "user not found")
			return
		}
		response.Abort500(c, "failed to load user")
		return
	}

	response.Data(c, gin.H{
		"external_id":   usr.ExternalID,
		"birth_date":    usr.BirthDate,
		"birth_time":    usr.BirthTime,
		"birth_place":   usr.BirthPlace,
		"has_full_data": usr.HasFullData(),
		"is_pro":        usr.IsPro,
		"created_at":    usr.CreatedAt,
	})
}

// History returns the user's request log, oldest first.
func (uc *UsersController) History(c *gin.Context) {
	externalID, ok := parseExternalID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	usr, err := uc.userRepo.GetUser(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			response.Abort404(c, "user not found")
			return
		}
		response.Abort500(c, "failed to load user")
		return
	}

	history, err := uc.requestRepo.HistoryByUserID(c.Request.Context(), usr.ID, limit)
	if err != nil {
		response.Abort500(c, "failed to load request history")
		return
	}

	response.Data(c, gin.H{
		"external_id": externalID,
		"requests":    history,
		"count":       len(history),
	})
}

func parseExternalID(c *gin.Context) (int64, bool) {
	externalID, err := strconv.ParseInt(c.Param("external_id"), 10, 64)
	if err != nil {
		response.Abort400(c, "invalid external id")
		return 0, false
	}
	return externalID, true
}
