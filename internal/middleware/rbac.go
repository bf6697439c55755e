package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/darulhuda/institute-api/internal/models"
	appErrors "github.com/darulhuda/institute-api/pkg/errors"
	"github.com/darulhuda/institute-api/pkg/response"
)

// RequireRoles restricts a route to the listed roles. Requests without
// claims are rejected as unauthenticated.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
