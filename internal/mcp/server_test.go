package mcp

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/taskpilot/taskpilot/internal/store"
	"github.com/taskpilot/taskpilot/pkg/models"
)

type fakeTaskStore struct {
	nextID uint
	tasks  map[uint]*models.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: map[uint]*models.Task{}}
}

func (f *fakeTaskStore) Create(_ context.Context, owner uint, title, description string, dueDate *time.Time) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return nil, store.ErrInvalidTitle
	}
	f.nextID++
	task := &models.Task{
		ID:          f.nextID,
		UserID:      owner,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskStore) List(_ context.Context, owner uint, filter store.StatusFilter) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID != owner {
			continue
		}
		if filter == store.StatusPending && t.Completed {
			continue
		}
		if filter == store.StatusCompleted && !t.Completed {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTaskStore) get(id, owner uint) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != owner {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeTaskStore) Complete(_ context.Context, id, owner uint) (*models.Task, error) {
	t, err := f.get(id, owner)
	if err != nil {
		return nil, err
	}
	t.Completed = true
	return t, nil
}

func (f *fakeTaskStore) Update(_ context.Context, id, owner uint, upd store.TaskUpdate) (*models.Task, error) {
	t, err := f.get(id, owner)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	return t, nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id, owner uint) (bool, error) {
	if _, err := f.get(id, owner); err != nil {
		return false, nil
	}
	delete(f.tasks, id)
	return true, nil
}

func (f *fakeTaskStore) FindByTitle(_ context.Context, owner uint, title string) (*models.Task, error) {
	needle := strings.ToLower(title)
	var best *models.Task
	for _, t := range f.tasks {
		if t.UserID != owner {
			continue
		}
		if !strings.Contains(strings.ToLower(t.Title), needle) {
			continue
		}
		if best == nil || t.ID < best.ID {
			best = t
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

// The production store must satisfy the handler interface.
var _ TaskStore = (*store.TaskStore)(nil)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		input   string
		want    uint
		wantErr bool
	}{
		{"7", 7, false},
		{" 7 ", 7, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseUserID(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseUserID(%q) error = nil, want error", tt.input)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseUserID(%q) = %d, %v, want %d", tt.input, got, err, tt.want)
		}
	}
}

func TestServersBindTheirOwnStore(t *testing.T) {
	ctx := context.Background()
	storeA := newFakeTaskStore()
	storeB := newFakeTaskStore()
	a := &server{tasks: storeA}
	b := &server{tasks: storeB}

	if _, _, err := a.handleAddTask(ctx, nil, AddTaskInput{UserID: "1", Title: "only in A"}); err != nil {
		t.Fatalf("handleAddTask() error = %v", err)
	}

	// A second server over a different store must not see the write
	_, out, err := b.handleListTasks(ctx, nil, ListTasksInput{UserID: "1"})
	if err != nil {
		t.Fatalf("handleListTasks() error = %v", err)
	}
	if count := out.(map[string]any)["count"]; count != 0 {
		t.Errorf("store B count = %v, want 0", count)
	}

	_, out, err = a.handleListTasks(ctx, nil, ListTasksInput{UserID: "1"})
	if err != nil {
		t.Fatalf("handleListTasks() error = %v", err)
	}
	if count := out.(map[string]any)["count"]; count != 1 {
		t.Errorf("store A count = %v, want 1", count)
	}
}

func TestHandleAddTask(t *testing.T) {
	ctx := context.Background()
	s := &server{tasks: newFakeTaskStore()}

	t.Run("creates and echoes the task", func(t *testing.T) {
		_, out, err := s.handleAddTask(ctx, nil, AddTaskInput{UserID: "1", Title: "Groceries", Description: "weekly"})
		if err != nil {
			t.Fatalf("handleAddTask() error = %v", err)
		}
		result := out.(map[string]any)
		if result["status"] != "created" || result["title"] != "Groceries" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("rejects malformed user_id before any store access", func(t *testing.T) {
		if _, _, err := s.handleAddTask(ctx, nil, AddTaskInput{UserID: "abc", Title: "X"}); err == nil {
			t.Error("handleAddTask() error = nil, want invalid user_id")
		}
	})
}

func TestHandleDeleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("by title fragment", func(t *testing.T) {
		tasks := newFakeTaskStore()
		s := &server{tasks: tasks}
		if _, err := tasks.Create(ctx, 1, "Buy MILK", "", nil); err != nil {
			t.Fatal(err)
		}

		_, out, err := s.handleDeleteTask(ctx, nil, DeleteTaskInput{UserID: "1", Title: "buy milk"})
		if err != nil {
			t.Fatalf("handleDeleteTask() error = %v", err)
		}
		if out.(map[string]any)["status"] != "deleted" {
			t.Errorf("result = %+v", out)
		}
		if len(tasks.tasks) != 0 {
			t.Error("task not deleted")
		}
	})

	t.Run("requires an identifier", func(t *testing.T) {
		s := &server{tasks: newFakeTaskStore()}
		if _, _, err := s.handleDeleteTask(ctx, nil, DeleteTaskInput{UserID: "1"}); err == nil {
			t.Error("handleDeleteTask() error = nil, want identifier requirement")
		}
	})

	t.Run("foreign task is not found", func(t *testing.T) {
		tasks := newFakeTaskStore()
		s := &server{tasks: tasks}
		if _, err := tasks.Create(ctx, 2, "theirs", "", nil); err != nil {
			t.Fatal(err)
		}

		_, _, err := s.handleDeleteTask(ctx, nil, DeleteTaskInput{UserID: "1", TaskID: 1})
		if err == nil || !strings.Contains(err.Error(), "not found for user 1") {
			t.Errorf("error = %v, want not-found for user 1", err)
		}
	})
}
