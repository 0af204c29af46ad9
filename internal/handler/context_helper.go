package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/classmeet/classmeet-api/internal/middleware"
	"github.com/classmeet/classmeet-api/internal/models"
)

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

func scopeFromContext(c *gin.Context) (models.AccessScope, bool) {
	value, exists := c.Get(middleware.ContextScopeKey)
	if !exists {
		return models.AccessScope{}, false
	}
	scope, ok := value.(models.AccessScope)
	return scope, ok
}
