package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskpilot/taskpilot/internal/store"
)

// TaskHandler serves the owner-scoped task CRUD endpoints.
type TaskHandler struct {
	Tasks *store.TaskStore
}

// CreateTaskInput DTO for creating a new task
type CreateTaskInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateTask creates a new task for the authenticated user.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var input CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := requireCurrentUser(c)
	if !ok {
		return
	}
	task, err := h.Tasks.Create(c.Request.Context(), user.ID, input.Title, input.Description, input.DueDate)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTitle) || errors.Is(err, store.ErrInvalidDescription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// ListTasks retrieves the authenticated user's tasks, optionally filtered
// by ?status=pending|completed.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := requireCurrentUser(c)
	if !ok {
		return
	}
	filter := store.ParseStatusFilter(c.Query("status"))

	tasks, err := h.Tasks.List(c.Request.Context(), user.ID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetTask retrieves a single task by its ID.
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	user, ok := requireCurrentUser(c)
	if !ok {
		return
	}
	task, err := h.Tasks.Get(c.Request.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTaskInput DTO for updating a task
type UpdateTaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTask updates an existing task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	var input UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := requireCurrentUser(c)
	if !ok {
		return
	}
	task, err := h.Tasks.Update(c.Request.Context(), id, user.ID, store.TaskUpdate{
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
		DueDate:     input.DueDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		case errors.Is(err, store.ErrInvalidTitle), errors.Is(err, store.ErrInvalidDescription):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task. Deleting an absent task still reports
// success so the operation is idempotent.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	user, ok := requireCurrentUser(c)
	if !ok {
		return
	}
	if _, err := h.Tasks.Delete(c.Request.Context(), id, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func taskIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return 0, false
	}
	return uint(id), true
}
