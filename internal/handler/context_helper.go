package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/JsterDevers/Presentryx/internal/middleware"
	"github.com/JsterDevers/Presentryx/internal/models"
)

// claimsFromContext returns the authenticated claims set by the JWT
// middleware, or nil when the request is anonymous.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
