package store

import (
	"context"
	"errors"
	"time"

	"github.com/taskpilot/taskpilot/pkg/models"
	"gorm.io/gorm"
)

// ConversationStore persists conversations and their messages.
type ConversationStore struct {
	db *gorm.DB
}

// NewConversationStore creates a conversation store backed by the given database.
func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Get returns the conversation with the given id if it belongs to owner.
func (s *ConversationStore) Get(ctx context.Context, id, owner uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetOrCreate resolves the conversation for a chat turn. A supplied id is
// honored only when the conversation exists and belongs to owner; in
// every other case a fresh conversation is created transparently.
func (s *ConversationStore) GetOrCreate(ctx context.Context, id *uint, owner uint) (*models.Conversation, error) {
	if id != nil {
		conv, err := s.Get(ctx, *id, owner)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	conv := models.Conversation{UserID: owner}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendMessage adds a message to a conversation. Messages are append-only.
func (s *ConversationStore) AppendMessage(ctx context.Context, conversationID, owner uint, role, content string) (*models.Message, error) {
	msg := models.Message{
		ConversationID: conversationID,
		UserID:         owner,
		Role:           role,
		Content:        content,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// History returns up to limit of the conversation's most recent messages,
// oldest first.
func (s *ConversationStore) History(ctx context.Context, conversationID, owner uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, owner).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Fetched newest-first for the LIMIT, flip back to chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Touch bumps the conversation's last-activity timestamp.
func (s *ConversationStore) Touch(ctx context.Context, conversationID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now().UTC()).Error
}
