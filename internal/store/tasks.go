package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/harunnryd/hibiki/internal/errors"
)

const taskStatusPending = "pending"

// Task is one to-do entry. Completed tasks are removed from the collection,
// but ids keep increasing past the historical maximum within a process.
type Task struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
	Status      string `json:"status"`
}

type TaskStore struct {
	store *Store
	path  string

	mu    sync.Mutex
	maxID int
}

func (ts *TaskStore) load() ([]Task, error) {
	var tasks []Task
	if err := ts.store.readJSON(ts.path, &tasks); err != nil {
		return nil, err
	}

	normalized := make([]Task, 0, len(tasks))
	nextID := 1
	for _, t := range tasks {
		if t.ID <= 0 {
			t.ID = nextID
		}
		if t.Status == "" {
			t.Status = taskStatusPending
		}
		if t.ID >= nextID {
			nextID = t.ID + 1
		}
		t.Description = strings.TrimSpace(t.Description)
		normalized = append(normalized, t)
	}

	if nextID-1 > ts.maxID {
		ts.maxID = nextID - 1
	}
	return normalized, nil
}

func (ts *TaskStore) Add(description string) (Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Task{}, apperrors.InvalidInput("task description cannot be empty")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	tasks, err := ts.load()
	if err != nil {
		return Task{}, err
	}

	for _, t := range tasks {
		if t.ID > ts.maxID {
			ts.maxID = t.ID
		}
	}

	task := Task{
		ID:          ts.maxID + 1,
		Description: description,
		CreatedAt:   ts.store.now().Unix(),
		Status:      taskStatusPending,
	}
	ts.maxID = task.ID

	tasks = append(tasks, task)
	if err := ts.store.writeJSON(ts.path, tasks); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (ts *TaskStore) List() ([]Task, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tasks, err := ts.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// Complete removes the task with the given id from the collection. Its id is
// not reused: the in-process high-water mark keeps monotonic allocation.
func (ts *TaskStore) Complete(id int) (Task, error) {
	if id <= 0 {
		return Task{}, apperrors.InvalidInput("task id must be a positive integer")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	tasks, err := ts.load()
	if err != nil {
		return Task{}, err
	}
	if len(tasks) == 0 {
		return Task{}, apperrors.NotFound("task list is empty")
	}

	idx := -1
	for i, t := range tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Task{}, apperrors.NotFound(fmt.Sprintf("task #%d not found", id))
	}

	removed := tasks[idx]
	tasks = append(tasks[:idx], tasks[idx+1:]...)
	if err := ts.store.writeJSON(ts.path, tasks); err != nil {
		return Task{}, err
	}
	return removed, nil
}
