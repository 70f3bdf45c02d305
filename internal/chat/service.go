package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/sashabaranov/go-openai"
	"github.com/taskpilot/taskpilot/internal/ai"
	"github.com/taskpilot/taskpilot/pkg/models"
)

const (
	// historyLimit bounds how many persisted messages are replayed to the
	// completion model per turn.
	historyLimit = 50

	// toolReplyLeadIn prefixes the reply synthesized from tool outcomes.
	toolReplyLeadIn = "I've processed your request."

	// fallbackReply covers a completion that returned neither tool calls
	// nor content.
	fallbackReply = "I'm here to help with your tasks!"

	// safeErrorReply is what the user sees when the completion call fails.
	// The real cause is only ever logged.
	safeErrorReply = "Sorry, I encountered an error processing your request. Please try again."
)

// ConversationStore is the slice of the conversation store the
// orchestrator consumes.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, id *uint, owner uint) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, owner uint, role, content string) (*models.Message, error)
	History(ctx context.Context, conversationID, owner uint, limit int) ([]models.Message, error)
	Touch(ctx context.Context, conversationID uint) error
}

// CompletionRunner issues one completion call per turn.
type CompletionRunner interface {
	RunConversation(ctx context.Context, turns []ai.Turn, tools []openai.Tool) (*ai.Result, error)
}

// ToolExecutor executes a batch of tool calls under the caller's identity.
type ToolExecutor interface {
	Execute(ctx context.Context, owner uint, calls []ai.ToolCall) []ai.Outcome
}

// TurnResult is what a chat turn returns to the HTTP layer. Executed tool
// calls are never echoed back; only the derived summary inside Response.
type TurnResult struct {
	ConversationID uint   `json:"conversation_id"`
	Response       string `json:"response"`
}

// Service orchestrates one chat turn: persist the inbound message, run
// the completion, dispatch any tool calls, persist and return the reply.
type Service struct {
	conversations ConversationStore
	completions   CompletionRunner
	dispatcher    ToolExecutor
	tools         []openai.Tool
}

// NewService wires the orchestrator. The tool schema is fetched once and
// reused for every turn.
func NewService(conversations ConversationStore, completions CompletionRunner, dispatcher ToolExecutor) *Service {
	return &Service{
		conversations: conversations,
		completions:   completions,
		dispatcher:    dispatcher,
		tools:         ai.ToolDefinitions(),
	}
}

// HandleTurn processes one user message. The caller must already have
// verified that owner is the authenticated identity; everything below
// trusts it as the sole authorization input.
func (s *Service) HandleTurn(ctx context.Context, owner uint, message string, conversationID *uint) (*TurnResult, error) {
	conv, err := s.conversations.GetOrCreate(ctx, conversationID, owner)
	if err != nil {
		return nil, fmt.Errorf("resolving conversation: %w", err)
	}

	// Persist the inbound message before calling the model so a
	// completion failure cannot lose the user's input.
	inbound, err := s.conversations.AppendMessage(ctx, conv.ID, owner, models.RoleUser, message)
	if err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	turns, err := s.buildTurns(ctx, conv.ID, owner, inbound.ID, message)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	reply := s.complete(ctx, owner, turns)

	if _, err := s.conversations.AppendMessage(ctx, conv.ID, owner, models.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}
	if err := s.conversations.Touch(ctx, conv.ID); err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}

	return &TurnResult{ConversationID: conv.ID, Response: reply}, nil
}

// buildTurns assembles the bounded history for the model: the most recent
// persisted messages oldest-first, excluding the message just appended,
// with the current message as the final turn.
func (s *Service) buildTurns(ctx context.Context, conversationID, owner, inboundID uint, message string) ([]ai.Turn, error) {
	history, err := s.conversations.History(ctx, conversationID, owner, historyLimit)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.Turn, 0, len(history)+1)
	for _, msg := range history {
		if msg.ID == inboundID {
			continue
		}
		turns = append(turns, ai.Turn{Role: msg.Role, Content: msg.Content})
	}
	turns = append(turns, ai.Turn{Role: models.RoleUser, Content: message})
	return turns, nil
}

// complete runs the completion and converts its result into reply text.
// Upstream failures degrade to a safe message; the cause stays in the log.
func (s *Service) complete(ctx context.Context, owner uint, turns []ai.Turn) string {
	result, err := s.completions.RunConversation(ctx, turns, s.tools)
	if err != nil {
		log.Printf("[chat] completion failed for user %d: %v", owner, err)
		return safeErrorReply
	}

	if result.Kind == ai.ResultToolCalls {
		outcomes := s.dispatcher.Execute(ctx, owner, result.ToolCalls)
		return fmt.Sprintf("%s %s", toolReplyLeadIn, ai.Summarize(outcomes))
	}

	if result.Content == "" {
		return fallbackReply
	}
	return result.Content
}
