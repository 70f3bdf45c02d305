package ai

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ToolDefinitions returns the fixed set of task operations offered to the
// completion model. The list is pure data: it is built once per process
// and passed unmodified on every turn.
//
// Every tool carries a user_id parameter because the model needs one for
// its own context tracking. It is never trusted: the dispatcher replaces
// it with the authenticated session identity before execution.
func ToolDefinitions() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "add_task",
				Description: "Create a new task",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"user_id": {
							Type:        jsonschema.String,
							Description: "The ID of the user creating the task",
						},
						"title": {
							Type:        jsonschema.String,
							Description: "The title of the task",
						},
						"description": {
							Type:        jsonschema.String,
							Description: "The description of the task (optional)",
						},
					},
					Required: []string{"user_id", "title"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "list_tasks",
				Description: "Retrieve tasks from the list",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"user_id": {
							Type:        jsonschema.String,
							Description: "The ID of the user whose tasks to retrieve",
						},
						"status": {
							Type:        jsonschema.String,
							Enum:        []string{"all", "pending", "completed"},
							Description: "Filter tasks by status (optional, defaults to 'all')",
						},
					},
					Required: []string{"user_id"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "complete_task",
				Description: "Mark a task as complete",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"user_id": {
							Type:        jsonschema.String,
							Description: "The ID of the user",
						},
						"task_id": {
							Type:        jsonschema.Integer,
							Description: "The ID of the task to mark as complete",
						},
					},
					Required: []string{"user_id", "task_id"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "delete_task",
				Description: "Remove a task from the list",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"user_id": {
							Type:        jsonschema.String,
							Description: "The ID of the user",
						},
						"task_id": {
							Type:        jsonschema.Integer,
							Description: "The ID of the task to delete (optional if title is provided)",
						},
						"title": {
							Type:        jsonschema.String,
							Description: "The title of the task to delete (optional if task_id is provided)",
						},
					},
					Required: []string{"user_id"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "update_task",
				Description: "Modify task title or description",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"user_id": {
							Type:        jsonschema.String,
							Description: "The ID of the user",
						},
						"task_id": {
							Type:        jsonschema.Integer,
							Description: "The ID of the task to update (optional if title_to_find is provided)",
						},
						"title_to_find": {
							Type:        jsonschema.String,
							Description: "The title of the task to update (optional if task_id is provided)",
						},
						"new_title": {
							Type:        jsonschema.String,
							Description: "The new title for the task (optional)",
						},
						"new_description": {
							Type:        jsonschema.String,
							Description: "The new description for the task (optional)",
						},
					},
					Required: []string{"user_id"},
				},
			},
		},
	}
}
