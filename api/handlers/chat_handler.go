package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskpilot/taskpilot/internal/chat"
	"github.com/taskpilot/taskpilot/internal/store"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// ChatService runs one chat turn for an authenticated owner.
type ChatService interface {
	HandleTurn(ctx context.Context, owner uint, message string, conversationID *uint) (*chat.TurnResult, error)
}

// ConversationReader is the read-only slice of the conversation store the
// history endpoint needs.
type ConversationReader interface {
	Get(ctx context.Context, id, owner uint) (*models.Conversation, error)
	History(ctx context.Context, conversationID, owner uint, limit int) ([]models.Message, error)
}

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	Service       ChatService
	Conversations ConversationReader
}

// ChatRequest DTO for one chat turn
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID *uint  `json:"conversation_id"`
}

// ChatResponse mirrors the persisted assistant reply. tool_calls is
// always empty: calls are executed server-side and never echoed back.
type ChatResponse struct {
	ConversationID uint     `json:"conversation_id"`
	Response       string   `json:"response"`
	ToolCalls      []string `json:"tool_calls"`
}

// Chat processes a user message and returns the assistant's reply. The
// endpoint is stateless; all conversation state lives in the database.
func (h *ChatHandler) Chat(c *gin.Context) {
	user, ok := h.authorizedPathUser(c)
	if !ok {
		return
	}

	var input ChatRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Service.HandleTurn(c.Request.Context(), user.ID, input.Message, input.ConversationID)
	if err != nil {
		log.Printf("[chat] turn failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing your request"})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		ConversationID: result.ConversationID,
		Response:       result.Response,
		ToolCalls:      []string{},
	})
}

// ConversationHistory returns the messages of one conversation.
func (h *ChatHandler) ConversationHistory(c *gin.Context) {
	user, ok := h.authorizedPathUser(c)
	if !ok {
		return
	}

	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return
	}

	conv, err := h.Conversations.Get(c.Request.Context(), uint(conversationID), user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while retrieving the conversation history"})
		return
	}

	messages, err := h.Conversations.History(c.Request.Context(), conv.ID, user.ID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while retrieving the conversation history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conv.ID,
		"messages":        messages,
	})
}

// authorizedPathUser enforces the gate in front of the chat pipeline: the
// path-supplied user id must equal the authenticated identity. Nothing
// runs when they differ.
func (h *ChatHandler) authorizedPathUser(c *gin.Context) (*models.User, bool) {
	user, ok := requireCurrentUser(c)
	if !ok {
		return nil, false
	}
	pathID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || uint(pathID) != user.ID {
		log.Printf("[chat] user %d attempted to access resources of user %s", user.ID, c.Param("user_id"))
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil, false
	}
	return user, true
}
