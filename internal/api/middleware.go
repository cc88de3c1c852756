package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aetherforge/aetherforge/internal/storage/postgres"
)

// Context keys set by requireAuth.
const (
	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxRole     = "role"
)

// requireAuth validates the Bearer token and stores the caller's
// identity on the request context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access denied. No token provided."})
			return
		}

		claims, err := s.deps.Tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token."})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// requireAdmin rejects callers whose token does not carry the admin
// role. Must run after requireAuth.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != postgres.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Admin privileges required."})
			return
		}
		c.Next()
	}
}

// callerID returns the authenticated account ID set by requireAuth.
func callerID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func callerUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}
