package api

import (
	"github.com/gin-gonic/gin"
	"github.com/taskpilot/taskpilot/api/handlers"
)

// Deps bundles everything the router needs.
type Deps struct {
	Users handlers.UserResolver
	Tasks *handlers.TaskHandler
	Chat  *handlers.ChatHandler
	Auth  *handlers.AuthHandler
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Todo API is running!"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	r.POST("/auth/register", deps.Auth.Register)

	authed := r.Group("/", handlers.RequireAuth(deps.Users))
	{
		authed.GET("/auth/me", deps.Auth.Me)

		authed.GET("/tasks", deps.Tasks.ListTasks)
		authed.POST("/tasks", deps.Tasks.CreateTask)
		authed.GET("/tasks/:id", deps.Tasks.GetTask)
		authed.PUT("/tasks/:id", deps.Tasks.UpdateTask)
		authed.DELETE("/tasks/:id", deps.Tasks.DeleteTask)

		authed.POST("/api/:user_id/chat", deps.Chat.Chat)
		authed.GET("/api/:user_id/conversations/:conversation_id/history", deps.Chat.ConversationHistory)
	}

	return r
}
