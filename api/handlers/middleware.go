package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskpilot/taskpilot/pkg/models"
)

const userContextKey = "currentUser"

// UserResolver resolves API credentials and accounts.
type UserResolver interface {
	GetByAPIKey(ctx context.Context, key string) (*models.User, error)
	Register(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// RequireAuth authenticates requests via "Authorization: Bearer <api key>"
// and stores the resolved user on the request context.
func RequireAuth(users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid authorization header"})
			return
		}

		user, err := users.GetByAPIKey(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// requireCurrentUser returns the authenticated user, failing the request
// with 401 when no user is on the context. Handlers use this instead of
// CurrentUser so a route mounted without RequireAuth fails the request
// rather than panicking.
func requireCurrentUser(c *gin.Context) (*models.User, bool) {
	user := CurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	return user, true
}
