package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/glowtrack/glowtrack-api/internal/middleware"
	"github.com/glowtrack/glowtrack-api/internal/models"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
	"github.com/glowtrack/glowtrack-api/pkg/response"
)

// currentClaims pulls the authenticated claims set by the JWT middleware and
// writes the error response itself when they are missing.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
