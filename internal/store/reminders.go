package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/harunnryd/hibiki/internal/errors"
)

const (
	ReminderStatusPending = "pending"
	ReminderStatusDone    = "done"
)

// Reminder is one scheduled notification. Rows are never deleted: a due
// reminder flips pending -> done exactly once and stays in the collection.
// Recurrence, when set, holds a cron expression; the scheduler re-arms a
// fresh row after each delivery.
type Reminder struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
	RemindAt    int64  `json:"remind_at"`
	Status      string `json:"status"`
	Reminded    bool   `json:"reminded"`
	RemindedAt  int64  `json:"reminded_at,omitempty"`
	Recurrence  string `json:"recurrence,omitempty"`
}

type ReminderStore struct {
	store *Store
	path  string

	mu sync.Mutex
}

func (rs *ReminderStore) load() ([]Reminder, error) {
	var reminders []Reminder
	if err := rs.store.readJSON(rs.path, &reminders); err != nil {
		return nil, err
	}

	kept := reminders[:0]
	for _, r := range reminders {
		if r.ID <= 0 || r.RemindAt <= 0 {
			continue
		}
		if r.Status == "" {
			r.Status = ReminderStatusPending
		}
		kept = append(kept, r)
	}
	return kept, nil
}

func (rs *ReminderStore) Add(description string, remindAt time.Time, recurrence string) (Reminder, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Reminder{}, apperrors.InvalidInput("reminder description cannot be empty")
	}
	now := rs.store.now()
	if !remindAt.After(now) {
		return Reminder{}, apperrors.InvalidInput("reminder time must be in the future")
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	reminders, err := rs.load()
	if err != nil {
		return Reminder{}, err
	}

	nextID := 1
	for _, r := range reminders {
		if r.ID >= nextID {
			nextID = r.ID + 1
		}
	}

	item := Reminder{
		ID:          nextID,
		Description: description,
		CreatedAt:   now.Unix(),
		RemindAt:    remindAt.Unix(),
		Status:      ReminderStatusPending,
		Recurrence:  strings.TrimSpace(recurrence),
	}

	reminders = append(reminders, item)
	if err := rs.store.writeJSON(rs.path, reminders); err != nil {
		return Reminder{}, err
	}
	return item, nil
}

// ListPending returns undelivered reminders sorted by due time.
func (rs *ReminderStore) ListPending() ([]Reminder, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	reminders, err := rs.load()
	if err != nil {
		return nil, err
	}

	pending := make([]Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.Status == ReminderStatusPending && !r.Reminded {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].RemindAt < pending[j].RemindAt })
	return pending, nil
}

// CheckDue returns reminders whose due time has passed and marks them
// delivered in the same pass. The flip and the persist happen together, so a
// reminder can never be returned twice.
func (rs *ReminderStore) CheckDue(now time.Time) ([]Reminder, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	reminders, err := rs.load()
	if err != nil {
		return nil, err
	}

	current := now.Unix()
	var due []Reminder
	changed := false
	for i := range reminders {
		r := &reminders[i]
		if r.Status != ReminderStatusPending || r.Reminded {
			continue
		}
		if r.RemindAt > current {
			continue
		}
		r.Reminded = true
		r.Status = ReminderStatusDone
		r.RemindedAt = current
		due = append(due, *r)
		changed = true
	}

	if changed {
		if err := rs.store.writeJSON(rs.path, reminders); err != nil {
			return nil, err
		}
	}
	return due, nil
}
