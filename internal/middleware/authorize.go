package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
	"github.com/classmeet/classmeet-api/pkg/response"
)

// Require blocks requests whose access scope lacks every listed
// capability. Unknown or missing scopes are rejected, never passed
// through.
func Require(caps ...models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		scopeValue, exists := c.Get(ContextScopeKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}
		scope, ok := scopeValue.(models.AccessScope)
		if !ok {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		for _, cap := range caps {
			if scope.Can(cap) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
