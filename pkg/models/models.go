package models

import (
	"time"
)

// User represents a registered account. The ID is the sole ownership
// anchor for tasks, conversations and messages.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	APIKey    string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tasks         []Task         `json:"-" gorm:"foreignKey:UserID"`
	Conversations []Conversation `json:"-" gorm:"foreignKey:UserID"`
}

// Task represents a todo item owned by exactly one user.
type Task struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"not null;index:idx_tasks_user_completed"`
	Title       string     `json:"title" gorm:"type:varchar(200);not null"`
	Description string     `json:"description" gorm:"type:text"`
	Completed   bool       `json:"completed" gorm:"not null;default:false;index:idx_tasks_user_completed"`
	DueDate     *time.Time `json:"due_date,omitempty" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Conversation groups the chat messages of one user. UpdatedAt doubles
// as the last-activity timestamp and is bumped on every turn.
type Conversation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

// Message roles. A message row is always owned by the conversation's
// user; the role distinguishes who was speaking.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn. Rows are append-only and ordered by CreatedAt.
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"not null;index:idx_messages_conv_created"`
	UserID         uint      `json:"user_id" gorm:"not null"`
	Role           string    `json:"role" gorm:"type:varchar(16);not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_messages_conv_created"`
}
