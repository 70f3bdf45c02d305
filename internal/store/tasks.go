package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/pkg/models"
	"gorm.io/gorm"
)

// StatusFilter narrows task listings by completion state.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusPending   StatusFilter = "pending"
	StatusCompleted StatusFilter = "completed"
)

// ParseStatusFilter maps a raw filter string to a StatusFilter. Unknown
// or empty values mean no filtering.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(s) {
	case StatusPending:
		return StatusPending
	case StatusCompleted:
		return StatusCompleted
	default:
		return StatusAll
	}
}

// TaskUpdate carries the optional fields of a task update. Nil fields
// are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     *time.Time
}

// TaskStore persists tasks. Every lookup is keyed by (id, owner) in a
// single predicate so a foreign task behaves exactly like a missing one.
type TaskStore struct {
	db *gorm.DB
}

// NewTaskStore creates a task store backed by the given database.
func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return "", ErrInvalidTitle
	}
	return title, nil
}

// Create inserts a new task for the owner. The title is trimmed and
// validated; the description may be empty.
func (s *TaskStore) Create(ctx context.Context, owner uint, title, description string, dueDate *time.Time) (*models.Task, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if len(description) > 1000 {
		return nil, ErrInvalidDescription
	}

	task := models.Task{
		UserID:      owner,
		Title:       title,
		Description: description,
		Completed:   false,
		DueDate:     dueDate,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns the owner's tasks, optionally narrowed by status.
func (s *TaskStore) List(ctx context.Context, owner uint, filter StatusFilter) ([]models.Task, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", owner)
	switch filter {
	case StatusPending:
		query = query.Where("completed = ?", false)
	case StatusCompleted:
		query = query.Where("completed = ?", true)
	}

	var tasks []models.Task
	if err := query.Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get returns the task with the given id if it belongs to owner.
func (s *TaskStore) Get(ctx context.Context, id, owner uint) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByTitle returns the owner's first task whose title contains the
// given text, matched case-insensitively. LIKE metacharacters in the
// search text are escaped so they match literally.
func (s *TaskStore) FindByTitle(ctx context.Context, owner uint, title string) (*models.Task, error) {
	pattern := "%" + EscapeLike(title) + "%"
	var task models.Task
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND title ILIKE ?", owner, pattern).
		Order("id").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies the non-nil fields of upd to the owner's task.
func (s *TaskStore) Update(ctx context.Context, id, owner uint, upd TaskUpdate) (*models.Task, error) {
	task, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title, err := validateTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if upd.Description != nil {
		if len(*upd.Description) > 1000 {
			return nil, ErrInvalidDescription
		}
		task.Description = *upd.Description
	}
	if upd.Completed != nil {
		task.Completed = *upd.Completed
	}
	if upd.DueDate != nil {
		task.DueDate = upd.DueDate
	}

	if err := s.db.WithContext(ctx).Save(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// Complete marks the owner's task as completed. Completing an already
// completed task is a no-op, not an error.
func (s *TaskStore) Complete(ctx context.Context, id, owner uint) (*models.Task, error) {
	task, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return task, nil
	}
	task.Completed = true
	if err := s.db.WithContext(ctx).Save(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the owner's task. It reports whether a row was deleted.
func (s *TaskStore) Delete(ctx context.Context, id, owner uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		Delete(&models.Task{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// EscapeLike escapes LIKE/ILIKE metacharacters so user-supplied search
// text matches literally. Postgres treats backslash as the escape
// character by default.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
