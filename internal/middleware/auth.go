package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openbasket/allocator/internal/models"
)

const actorKey = "actor"

// ValidateUser is a stubbed authentication middleware that builds the caller
// identity from X-User-ID and X-User-Role headers. Real authentication is an
// external collaborator.
func ValidateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.GetHeader("X-User-ID")
		if userIDStr == "" {
			c.Next()
			return
		}

		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			c.Next()
			return
		}

		c.Set(actorKey, models.Actor{
			UserID: userID,
			Admin:  c.GetHeader("X-User-Role") == "admin",
		})
		c.Next()
	}
}

// GetActor retrieves the caller identity from the context
func GetActor(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return models.Actor{}, false
	}
	return v.(models.Actor), true
}

// RequireAuth ensures a caller identity is present
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := GetActor(c); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
