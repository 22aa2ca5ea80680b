package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harunnryd/hibiki/internal/tool"
)

type AddTask struct {
	env *Env
}

func (t *AddTask) Name() string { return "add_task" }

func (t *AddTask) Description() string {
	return "Add a new task to the user's to-do list."
}

func (t *AddTask) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"description": map[string]interface{}{
			"type":        "string",
			"description": "The task description, e.g. 'Buy milk' or 'Call mom'",
		},
	}, "description")
}

func (t *AddTask) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return tool.Fail("Please tell me what the task is.")
	}

	task, err := t.env.Tasks.Add(args.Description)
	if err != nil {
		return tool.Fail(fmt.Sprintf("Error adding task: %v", err))
	}

	return tool.OkData(fmt.Sprintf("Added task: %s", task.Description), map[string]interface{}{
		"task_id":     task.ID,
		"description": task.Description,
	})
}

type ListTasks struct {
	env *Env
}

func (t *ListTasks) Name() string { return "list_tasks" }

func (t *ListTasks) Description() string {
	return "List all tasks in the to-do list."
}

func (t *ListTasks) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *ListTasks) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	tasks, err := t.env.Tasks.List()
	if err != nil {
		return tool.Fail(fmt.Sprintf("Error listing tasks: %v", err))
	}

	if len(tasks) == 0 {
		return tool.Ok("You have no tasks in your list.")
	}

	items := make([]map[string]interface{}, 0, len(tasks))
	var lines []string
	for _, task := range tasks {
		items = append(items, map[string]interface{}{
			"id":          task.ID,
			"description": task.Description,
		})
		lines = append(lines, fmt.Sprintf("%d. %s", task.ID, task.Description))
	}

	return tool.OkData(fmt.Sprintf("You have %d tasks.", len(tasks)), map[string]interface{}{
		"count":   len(tasks),
		"tasks":   items,
		"details": "Here are your tasks:\n" + strings.Join(lines, "\n"),
	})
}

type CompleteTask struct {
	env *Env
}

func (t *CompleteTask) Name() string { return "complete_task" }

func (t *CompleteTask) Description() string {
	return "Mark a task as completed and remove it from the list."
}

func (t *CompleteTask) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"task_id": map[string]interface{}{
			"type":        "integer",
			"description": "The ID of the task to complete (1-based index)",
		},
	}, "task_id")
}

func (t *CompleteTask) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		TaskID int `json:"task_id"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return tool.Fail("Please tell me which task number to complete.")
	}

	removed, err := t.env.Tasks.Complete(args.TaskID)
	if err != nil {
		return tool.Fail(fmt.Sprintf("Error completing task: %v", err))
	}

	return tool.OkData(fmt.Sprintf("Completed task: %s", removed.Description), map[string]interface{}{
		"task_id":     removed.ID,
		"description": removed.Description,
	})
}
