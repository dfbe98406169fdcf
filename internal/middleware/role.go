package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(string)
		if _, ok := allowed[models.Role(role)]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Identity returns the authenticated caller set by JWT.
func Identity(c *gin.Context) (models.Identity, error) {
	idVal, ok := c.Get(ContextUserID)
	if !ok {
		return models.Identity{}, apperr.ErrUnauthorized
	}
	id, _ := idVal.(uuid.UUID)
	if id == uuid.Nil {
		return models.Identity{}, apperr.ErrUnauthorized
	}
	return models.Identity{
		UserID: id,
		Email:  c.GetString(ContextUserEmail),
		Role:   models.Role(c.GetString(ContextUserRole)),
	}, nil
}
