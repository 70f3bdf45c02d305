package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskpilot/taskpilot/internal/chat"
	"github.com/taskpilot/taskpilot/internal/store"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// The production service must satisfy the handler's interface.
var _ ChatService = (*chat.Service)(nil)

type fakeChatService struct {
	result  *chat.TurnResult
	err     error
	invoked int
	owner   uint
	message string
}

func (f *fakeChatService) HandleTurn(_ context.Context, owner uint, message string, _ *uint) (*chat.TurnResult, error) {
	f.invoked++
	f.owner = owner
	f.message = message
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeConvReader struct {
	conv     *models.Conversation
	messages []models.Message
}

func (f *fakeConvReader) Get(_ context.Context, id, owner uint) (*models.Conversation, error) {
	if f.conv == nil || f.conv.ID != id || f.conv.UserID != owner {
		return nil, store.ErrNotFound
	}
	return f.conv, nil
}

func (f *fakeConvReader) History(_ context.Context, _, _ uint, _ int) ([]models.Message, error) {
	return f.messages, nil
}

// chatRouter mounts the chat routes behind a stub auth middleware that
// injects the given user, mirroring what RequireAuth does in production.
func chatRouter(h *ChatHandler, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authed := r.Group("/api", func(c *gin.Context) {
		c.Set(userContextKey, user)
		c.Next()
	})
	authed.POST("/:user_id/chat", h.Chat)
	authed.GET("/:user_id/conversations/:conversation_id/history", h.ConversationHistory)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatSuccess(t *testing.T) {
	svc := &fakeChatService{result: &chat.TurnResult{ConversationID: 3, Response: "Done."}}
	r := chatRouter(&ChatHandler{Service: svc, Conversations: &fakeConvReader{}}, &models.User{ID: 7})

	w := doJSON(t, r, http.MethodPost, "/api/7/chat", `{"message": "add groceries"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.invoked != 1 || svc.owner != 7 || svc.message != "add groceries" {
		t.Errorf("service call = invoked %d, owner %d, message %q", svc.invoked, svc.owner, svc.message)
	}

	var resp ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ConversationID != 3 || resp.Response != "Done." {
		t.Errorf("response = %+v", resp)
	}
	// tool_calls must be present and empty, never null
	if !strings.Contains(w.Body.String(), `"tool_calls":[]`) {
		t.Errorf("body = %s, want empty tool_calls array", w.Body.String())
	}
}

func TestChatPathMismatchIsForbidden(t *testing.T) {
	svc := &fakeChatService{result: &chat.TurnResult{ConversationID: 1, Response: "ok"}}
	r := chatRouter(&ChatHandler{Service: svc, Conversations: &fakeConvReader{}}, &models.User{ID: 7})

	tests := []struct {
		name string
		path string
	}{
		{"other user's id", "/api/8/chat"},
		{"non-numeric id", "/api/abc/chat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, tt.path, `{"message": "hi"}`)
			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", w.Code)
			}
			if !strings.Contains(w.Body.String(), "Access denied") {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
	if svc.invoked != 0 {
		t.Errorf("service invoked %d times across rejected requests", svc.invoked)
	}
}

func TestChatRequiresAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeChatService{result: &chat.TurnResult{ConversationID: 1, Response: "ok"}}
	h := &ChatHandler{Service: svc, Conversations: &fakeConvReader{}}

	// Routes mounted without RequireAuth must fail the request, not panic
	r := gin.New()
	r.POST("/api/:user_id/chat", h.Chat)
	r.GET("/api/:user_id/conversations/:conversation_id/history", h.ConversationHistory)

	for _, tt := range []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/7/chat", `{"message": "hi"}`},
		{http.MethodGet, "/api/7/conversations/5/history", ""},
	} {
		w := doJSON(t, r, tt.method, tt.path, tt.body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", tt.method, tt.path, w.Code)
		}
	}
	if svc.invoked != 0 {
		t.Errorf("service invoked %d times without an authenticated user", svc.invoked)
	}
}

func TestChatValidation(t *testing.T) {
	svc := &fakeChatService{result: &chat.TurnResult{}}
	r := chatRouter(&ChatHandler{Service: svc, Conversations: &fakeConvReader{}}, &models.User{ID: 7})

	for _, body := range []string{`{}`, `{"message": ""}`, `not json`} {
		w := doJSON(t, r, http.MethodPost, "/api/7/chat", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
	if svc.invoked != 0 {
		t.Errorf("service invoked %d times for invalid payloads", svc.invoked)
	}
}

func TestChatServiceFailureIsOpaque(t *testing.T) {
	svc := &fakeChatService{err: errors.New("pq: connection refused")}
	r := chatRouter(&ChatHandler{Service: svc, Conversations: &fakeConvReader{}}, &models.User{ID: 7})

	w := doJSON(t, r, http.MethodPost, "/api/7/chat", `{"message": "hi"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}

func TestConversationHistory(t *testing.T) {
	reader := &fakeConvReader{
		conv: &models.Conversation{ID: 5, UserID: 7},
		messages: []models.Message{
			{ID: 1, ConversationID: 5, UserID: 7, Role: models.RoleUser, Content: "hi"},
			{ID: 2, ConversationID: 5, UserID: 7, Role: models.RoleAssistant, Content: "hello"},
		},
	}
	r := chatRouter(&ChatHandler{Service: &fakeChatService{}, Conversations: reader}, &models.User{ID: 7})

	t.Run("returns owned conversation", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/7/conversations/5/history", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp struct {
			ConversationID uint             `json:"conversation_id"`
			Messages       []models.Message `json:"messages"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.ConversationID != 5 || len(resp.Messages) != 2 {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("unknown conversation is 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/7/conversations/99/history", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("foreign path user is 403", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/8/conversations/5/history", "")
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}
