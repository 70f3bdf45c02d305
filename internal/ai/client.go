package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/taskpilot/taskpilot/pkg/config"
)

// defaultToolCallContent replaces an empty assistant message that
// accompanies tool calls, so consumers never see a missing field.
const defaultToolCallContent = "Processing your request with tools..."

// Turn is one chat message sent to the completion model, oldest first.
type Turn struct {
	Role    string
	Content string
}

// ToolCall is one operation requested by the model. Arguments are decoded
// from the model's JSON-encoded string into a generic mapping.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ResultKind tags the two shapes a completion can take.
type ResultKind string

const (
	ResultMessage   ResultKind = "message"
	ResultToolCalls ResultKind = "tool_calls"
)

// Result is the outcome of one completion call: either a direct answer
// or a batch of requested tool calls.
type Result struct {
	Kind      ResultKind
	Content   string
	ToolCalls []ToolCall
}

// Client is a thin adapter over the hosted chat-completion API. It holds
// no state beyond the configured model, credentials and timeout.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a completion client from configuration. The base URL
// is overridable so OpenAI-compatible providers (e.g. OpenRouter) work
// unchanged.
func NewClient(cfg config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

// RunConversation performs exactly one completion request with automatic
// tool selection. The call is bounded by the configured timeout; any
// transport or decoding failure is returned as an error for the caller
// to log and replace with a safe message.
func (c *Client) RunConversation(ctx context.Context, turns []Turn, tools []openai.Tool) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    t.Role,
			Content: t.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:      c.model,
		Messages:   messages,
		Tools:      tools,
		ToolChoice: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("completion response contained no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return &Result{Kind: ResultMessage, Content: msg.Content}, nil
	}

	calls := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("decoding arguments for tool %s: %w", tc.Function.Name, err)
		}
		calls = append(calls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	content := msg.Content
	if content == "" {
		content = defaultToolCallContent
	}

	return &Result{Kind: ResultToolCalls, Content: content, ToolCalls: calls}, nil
}
