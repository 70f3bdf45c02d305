package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskpilot/taskpilot/internal/store"
)

// AuthHandler serves registration and account lookup.
type AuthHandler struct {
	Users UserResolver
}

// RegisterInput DTO for creating a new account
type RegisterInput struct {
	Email string `json:"email" binding:"required,email"`
}

// Register creates an account and returns its API key. The key is shown
// once; afterwards it only exists as a credential.
func (h *AuthHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.Register(c.Request.Context(), input.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		case errors.Is(err, store.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      user.ID,
		"email":   user.Email,
		"api_key": user.APIKey,
	})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := requireCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}
