package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glowtrack/glowtrack-api/internal/service"
	"github.com/glowtrack/glowtrack-api/pkg/response"
)

// AchievementHandler exposes milestone progress endpoints.
type AchievementHandler struct {
	achievements *service.AchievementService
}

// NewAchievementHandler constructs AchievementHandler.
func NewAchievementHandler(achievements *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

// List godoc
// @Summary Full achievement catalog with the user's progress
// @Tags Achievements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /achievements [get]
func (h *AchievementHandler) List(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.achievements.Status(claims.UserID), nil)
}

// Unlocked godoc
// @Summary Achievements the user has unlocked
// @Tags Achievements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /achievements/unlocked [get]
func (h *AchievementHandler) Unlocked(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.achievements.Unlocked(claims.UserID), nil)
}
