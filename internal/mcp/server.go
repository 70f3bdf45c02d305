// Package mcp exposes the todo tools over the Model Context Protocol so
// MCP-capable agents can operate on the task store directly, without
// going through the chat completion bridge.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/taskpilot/taskpilot/internal/store"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// TaskStore is the slice of the task store the tool handlers consume.
type TaskStore interface {
	Create(ctx context.Context, owner uint, title, description string, dueDate *time.Time) (*models.Task, error)
	List(ctx context.Context, owner uint, filter store.StatusFilter) ([]models.Task, error)
	Complete(ctx context.Context, id, owner uint) (*models.Task, error)
	Update(ctx context.Context, id, owner uint, upd store.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, id, owner uint) (bool, error)
	FindByTitle(ctx context.Context, owner uint, title string) (*models.Task, error)
}

// server binds the tool handlers to one task store. Each ServeStdio call
// gets its own instance, so handlers never share mutable package state.
type server struct {
	tasks TaskStore
}

// ServeStdio starts the MCP server using the official go-sdk over stdio
func ServeStdio(tasks TaskStore) error {
	if tasks == nil {
		return errors.New("task store is required")
	}
	s := &server{tasks: tasks}

	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "taskpilot",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: `Todo task management over MCP.

Five tools are available: add_task, list_tasks, complete_task,
delete_task, update_task. Every tool requires the user_id of the task
owner. delete_task and update_task accept either a task_id or a title
fragment (case-insensitive match).`,
		},
	)

	s.registerTools(srv)

	return srv.Run(context.Background(), &mcp.StdioTransport{})
}

// parseUserID validates the user_id parameter. There is no HTTP session
// on a stdio transport, so unlike the chat dispatcher the id here is a
// genuine input and must be a well-formed positive integer.
func parseUserID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user_id format: %q", raw)
	}
	return uint(id), nil
}

type AddTaskInput struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (s *server) handleAddTask(ctx context.Context, req *mcp.CallToolRequest, input AddTaskInput) (*mcp.CallToolResult, any, error) {
	owner, err := parseUserID(input.UserID)
	if err != nil {
		return nil, nil, err
	}

	task, err := s.tasks.Create(ctx, owner, input.Title, input.Description, nil)
	if err != nil {
		return nil, nil, err
	}

	return nil, map[string]any{
		"task_id":     task.ID,
		"status":      "created",
		"title":       task.Title,
		"description": task.Description,
		"completed":   task.Completed,
	}, nil
}

type ListTasksInput struct {
	UserID string `json:"user_id"`
	Status string `json:"status,omitempty"`
}

func (s *server) handleListTasks(ctx context.Context, req *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, any, error) {
	owner, err := parseUserID(input.UserID)
	if err != nil {
		return nil, nil, err
	}

	tasks, err := s.tasks.List(ctx, owner, store.ParseStatusFilter(input.Status))
	if err != nil {
		return nil, nil, err
	}

	items := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, map[string]any{
			"id":          t.ID,
			"title":       t.Title,
			"description": t.Description,
			"completed":   t.Completed,
			"user_id":     t.UserID,
		})
	}

	return nil, map[string]any{"items": items, "count": len(items)}, nil
}

type CompleteTaskInput struct {
	UserID string `json:"user_id"`
	TaskID uint   `json:"task_id"`
}

func (s *server) handleCompleteTask(ctx context.Context, req *mcp.CallToolRequest, input CompleteTaskInput) (*mcp.CallToolResult, any, error) {
	owner, err := parseUserID(input.UserID)
	if err != nil {
		return nil, nil, err
	}

	task, err := s.tasks.Complete(ctx, input.TaskID, owner)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("Task %d not found for user %d", input.TaskID, owner)
	}
	if err != nil {
		return nil, nil, err
	}

	return nil, map[string]any{
		"task_id": task.ID,
		"status":  "completed",
		"title":   task.Title,
	}, nil
}

type DeleteTaskInput struct {
	UserID string `json:"user_id"`
	TaskID uint   `json:"task_id,omitempty"`
	Title  string `json:"title,omitempty"`
}

func (s *server) handleDeleteTask(ctx context.Context, req *mcp.CallToolRequest, input DeleteTaskInput) (*mcp.CallToolResult, any, error) {
	owner, err := parseUserID(input.UserID)
	if err != nil {
		return nil, nil, err
	}

	id := input.TaskID
	title := ""
	switch {
	case id != 0:
	case input.Title != "":
		task, err := s.tasks.FindByTitle(ctx, owner, input.Title)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("Task with title '%s' not found for user %d", input.Title, owner)
		}
		if err != nil {
			return nil, nil, err
		}
		id = task.ID
		title = task.Title
	default:
		return nil, nil, errors.New("either task_id or title must be provided for deletion")
	}

	deleted, err := s.tasks.Delete(ctx, id, owner)
	if err != nil {
		return nil, nil, err
	}
	if !deleted {
		return nil, nil, fmt.Errorf("Task %d not found for user %d", id, owner)
	}

	return nil, map[string]any{
		"task_id": id,
		"title":   title,
		"status":  "deleted",
	}, nil
}

type UpdateTaskInput struct {
	UserID         string `json:"user_id"`
	TaskID         uint   `json:"task_id,omitempty"`
	TitleToFind    string `json:"title_to_find,omitempty"`
	NewTitle       string `json:"new_title,omitempty"`
	NewDescription string `json:"new_description,omitempty"`
}

func (s *server) handleUpdateTask(ctx context.Context, req *mcp.CallToolRequest, input UpdateTaskInput) (*mcp.CallToolResult, any, error) {
	owner, err := parseUserID(input.UserID)
	if err != nil {
		return nil, nil, err
	}

	id := input.TaskID
	switch {
	case id != 0:
	case input.TitleToFind != "":
		task, err := s.tasks.FindByTitle(ctx, owner, input.TitleToFind)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("Task with title '%s' not found for user %d", input.TitleToFind, owner)
		}
		if err != nil {
			return nil, nil, err
		}
		id = task.ID
	default:
		return nil, nil, errors.New("either task_id or title_to_find must be provided for update")
	}

	upd := store.TaskUpdate{}
	if input.NewTitle != "" {
		upd.Title = &input.NewTitle
	}
	if input.NewDescription != "" {
		upd.Description = &input.NewDescription
	}

	task, err := s.tasks.Update(ctx, id, owner, upd)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("Task %d not found for user %d", id, owner)
	}
	if err != nil {
		return nil, nil, err
	}

	return nil, map[string]any{
		"task_id":     task.ID,
		"status":      "updated",
		"title":       task.Title,
		"description": task.Description,
	}, nil
}

func (s *server) registerTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_task",
		Description: "Create a new task",
	}, s.handleAddTask)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_tasks",
		Description: "Retrieve tasks from the list, optionally filtered by status (all, pending, completed)",
	}, s.handleListTasks)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as complete",
	}, s.handleCompleteTask)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_task",
		Description: "Remove a task from the list, identified by task_id or title",
	}, s.handleDeleteTask)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_task",
		Description: "Modify task title or description, identified by task_id or title_to_find",
	}, s.handleUpdateTask)
}
