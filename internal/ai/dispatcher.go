package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/taskpilot/taskpilot/internal/store"
	"github.com/taskpilot/taskpilot/pkg/models"
)

// TaskStore is the slice of the task store the dispatcher consumes.
type TaskStore interface {
	Create(ctx context.Context, owner uint, title, description string, dueDate *time.Time) (*models.Task, error)
	List(ctx context.Context, owner uint, filter store.StatusFilter) ([]models.Task, error)
	Complete(ctx context.Context, id, owner uint) (*models.Task, error)
	Update(ctx context.Context, id, owner uint, upd store.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, id, owner uint) (bool, error)
	FindByTitle(ctx context.Context, owner uint, title string) (*models.Task, error)
}

// Outcome records the result of one tool invocation within a batch. A
// failed call never aborts its siblings; each call gets exactly one
// outcome and the batch summary joins them all.
type Outcome struct {
	OK     bool
	Detail string
}

// Dispatcher executes model-requested tool calls against the task store
// under the authenticated caller's identity.
type Dispatcher struct {
	tasks TaskStore
}

// NewDispatcher creates a dispatcher over the given task store.
func NewDispatcher(tasks TaskStore) *Dispatcher {
	return &Dispatcher{tasks: tasks}
}

// Aliases the model is known to use for "the title identifying a task".
// For update_task, "title" is additionally accepted as a search key, and
// doubles as the new title when new_title is absent.
var (
	deleteTitleAliases = []string{"title", "task_name", "name", "task_title"}
	updateFindAliases  = []string{"title_to_find", "task_name", "name", "task_title", "title"}
)

// Execute runs the calls one at a time, in order, so that a mutation from
// one call is visible to the next. Whatever user_id the model supplied is
// overwritten with the session identity here, in the single path every
// operation funnels through.
func (d *Dispatcher) Execute(ctx context.Context, owner uint, calls []ToolCall) []Outcome {
	outcomes := make([]Outcome, 0, len(calls))
	for _, call := range calls {
		if call.Arguments == nil {
			call.Arguments = map[string]any{}
		}
		call.Arguments["user_id"] = strconv.FormatUint(uint64(owner), 10)

		outcome := d.dispatch(ctx, call)
		if !outcome.OK {
			log.Printf("[dispatcher] tool %s failed: %s", call.Name, outcome.Detail)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Summarize joins the per-call outcomes into the human-readable summary
// appended to the assistant's reply.
func Summarize(outcomes []Outcome) string {
	details := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		details = append(details, o.Detail)
	}
	return strings.Join(details, "; ")
}

func (d *Dispatcher) dispatch(ctx context.Context, call ToolCall) Outcome {
	uid, err := ownerFromArgs(call.Arguments)
	if err != nil {
		return Outcome{OK: false, Detail: fmt.Sprintf("Error executing %s: %s", call.Name, err)}
	}

	var detail string
	switch call.Name {
	case "add_task":
		detail, err = d.addTask(ctx, uid, call.Arguments)
	case "list_tasks":
		detail, err = d.listTasks(ctx, uid, call.Arguments)
	case "complete_task":
		detail, err = d.completeTask(ctx, uid, call.Arguments)
	case "delete_task":
		detail, err = d.deleteTask(ctx, uid, call.Arguments)
	case "update_task":
		detail, err = d.updateTask(ctx, uid, call.Arguments)
	default:
		return Outcome{OK: false, Detail: fmt.Sprintf("Unknown function: %s", call.Name)}
	}

	if err != nil {
		return Outcome{OK: false, Detail: fmt.Sprintf("Error executing %s: %s", call.Name, err)}
	}
	return Outcome{OK: true, Detail: detail}
}

func (d *Dispatcher) addTask(ctx context.Context, owner uint, args map[string]any) (string, error) {
	title := stringArg(args, "title")
	if strings.TrimSpace(title) == "" {
		return "", errors.New("title is required")
	}
	description := stringArg(args, "description")

	task, err := d.tasks.Create(ctx, owner, title, description, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added task: %s", task.Title), nil
}

func (d *Dispatcher) listTasks(ctx context.Context, owner uint, args map[string]any) (string, error) {
	filter := store.ParseStatusFilter(stringArg(args, "status"))
	tasks, err := d.tasks.List(ctx, owner, filter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Found %d tasks", len(tasks)), nil
}

func (d *Dispatcher) completeTask(ctx context.Context, owner uint, args map[string]any) (string, error) {
	id, ok, err := uintArg(args, "task_id")
	if err != nil {
		return "", errors.New("invalid task_id format")
	}
	if !ok {
		return "", errors.New("task_id is required")
	}

	task, err := d.tasks.Complete(ctx, id, owner)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("Task %d not found for user %d", id, owner)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Completed task: %s", task.Title), nil
}

func (d *Dispatcher) deleteTask(ctx context.Context, owner uint, args map[string]any) (string, error) {
	id, hasID, err := uintArg(args, "task_id")
	if err != nil {
		return "", errors.New("invalid task_id format")
	}
	title := firstString(args, deleteTitleAliases...)

	switch {
	case hasID:
		// task_id wins when the model sent both
	case title != "":
		task, err := d.tasks.FindByTitle(ctx, owner, title)
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("Task with title '%s' not found for user %d", title, owner)
		}
		if err != nil {
			return "", err
		}
		id = task.ID
	default:
		return "", errors.New("either task_id or title must be provided for deletion")
	}

	deleted, err := d.tasks.Delete(ctx, id, owner)
	if err != nil {
		return "", err
	}
	if !deleted {
		return "", fmt.Errorf("Task %d not found for user %d", id, owner)
	}
	return fmt.Sprintf("Deleted task ID: %d", id), nil
}

func (d *Dispatcher) updateTask(ctx context.Context, owner uint, args map[string]any) (string, error) {
	id, hasID, err := uintArg(args, "task_id")
	if err != nil {
		return "", errors.New("invalid task_id format")
	}
	findTitle := firstString(args, updateFindAliases...)

	switch {
	case hasID:
	case findTitle != "":
		task, err := d.tasks.FindByTitle(ctx, owner, findTitle)
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("Task with title '%s' not found for user %d", findTitle, owner)
		}
		if err != nil {
			return "", err
		}
		id = task.ID
	default:
		return "", errors.New("either task_id or title_to_find must be provided for update")
	}

	// "title"/"description" double as the new values when the explicit
	// new_* fields are absent, matching how models tend to phrase updates.
	upd := store.TaskUpdate{}
	if newTitle := firstString(args, "new_title", "title"); newTitle != "" {
		upd.Title = &newTitle
	}
	if newDesc := firstString(args, "new_description", "description"); newDesc != "" {
		upd.Description = &newDesc
	}

	task, err := d.tasks.Update(ctx, id, owner, upd)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("Task %d not found for user %d", id, owner)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated task: %s", task.Title), nil
}

// ownerFromArgs validates the user_id field every schema requires. By the
// time a handler runs it always holds the session identity, but it still
// must be a well-formed positive integer.
func ownerFromArgs(args map[string]any) (uint, error) {
	v, ok := args["user_id"]
	if !ok {
		return 0, errors.New("user_id is required")
	}
	id, err := toUint(v)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user_id format: %v", v)
	}
	return id, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func firstString(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringArg(args, key); s != "" {
			return s
		}
	}
	return ""
}

// uintArg reads an optional numeric argument. JSON decoding yields
// float64 for numbers, but models also send numeric strings.
func uintArg(args map[string]any, key string) (uint, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	id, err := toUint(v)
	if err != nil {
		return 0, true, err
	}
	return id, true, nil
}

func toUint(v any) (uint, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) || n < 0 {
			return 0, fmt.Errorf("not a valid id: %v", v)
		}
		return uint(n), nil
	case string:
		id, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not a valid id: %q", n)
		}
		return uint(id), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("not a valid id: %d", n)
		}
		return uint(n), nil
	default:
		return 0, fmt.Errorf("not a valid id: %v", v)
	}
}
