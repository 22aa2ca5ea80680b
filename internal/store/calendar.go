package store

import (
	"strings"
	"sync"
	"time"

	apperrors "github.com/harunnryd/hibiki/internal/errors"
)

// CalendarEvent is a locally persisted calendar entry. Sync with an external
// calendar is best-effort and layered on top of this store.
type CalendarEvent struct {
	ID              int    `json:"id"`
	Summary         string `json:"summary"`
	StartAt         int64  `json:"start_at"`
	DurationMinutes int    `json:"duration_minutes"`
	CreatedAt       int64  `json:"created_at"`
}

type CalendarStore struct {
	store *Store
	path  string

	mu sync.Mutex
}

func (s *Store) Calendar() *CalendarStore { return s.calendar }

func (cs *CalendarStore) Add(summary string, startAt time.Time, durationMinutes int) (CalendarEvent, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return CalendarEvent{}, apperrors.InvalidInput("event summary cannot be empty")
	}
	if durationMinutes <= 0 {
		durationMinutes = 60
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	var events []CalendarEvent
	if err := cs.store.readJSON(cs.path, &events); err != nil {
		return CalendarEvent{}, err
	}

	nextID := 1
	for _, e := range events {
		if e.ID >= nextID {
			nextID = e.ID + 1
		}
	}

	event := CalendarEvent{
		ID:              nextID,
		Summary:         summary,
		StartAt:         startAt.Unix(),
		DurationMinutes: durationMinutes,
		CreatedAt:       cs.store.now().Unix(),
	}

	events = append(events, event)
	if err := cs.store.writeJSON(cs.path, events); err != nil {
		return CalendarEvent{}, err
	}
	return event, nil
}

func (cs *CalendarStore) List() ([]CalendarEvent, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var events []CalendarEvent
	if err := cs.store.readJSON(cs.path, &events); err != nil {
		return nil, err
	}
	return events, nil
}
