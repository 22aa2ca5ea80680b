// Package scheduler drives the reminder loop: a short-interval scan that
// fires due reminders, notifies every sink, and re-arms recurring entries.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/hibiki/internal/concurrency"
	"github.com/harunnryd/hibiki/internal/store"

	"github.com/robfig/cron/v3"
)

// Notifier delivers a fired reminder to one output channel (voice, console,
// relay chat).
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, text string)

func (f NotifierFunc) Notify(ctx context.Context, text string) { f(ctx, text) }

type Config struct {
	TickInterval time.Duration
}

type Engine struct {
	reminders *store.ReminderStore
	notifiers []Notifier
	interval  time.Duration
	now       func() time.Time
	quit      chan struct{}
	done      chan struct{}
	log       *slog.Logger
}

func New(reminders *store.ReminderStore, cfg Config, log *slog.Logger, notifiers ...Notifier) *Engine {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		reminders: reminders,
		notifiers: notifiers,
		interval:  interval,
		now:       time.Now,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		log:       log,
	}
}

// Start launches the scan loop in the background.
func (e *Engine) Start(ctx context.Context) {
	concurrency.SafeGo(func() {
		e.run(ctx)
	}, nil)
}

// Stop halts the loop and waits for the in-flight scan to finish.
func (e *Engine) Stop() {
	close(e.quit)
	<-e.done
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Scan(ctx)
		}
	}
}

// Scan fires every reminder that has come due. The store marks each row done
// before we announce it, so a crash mid-announcement never re-fires a
// reminder.
func (e *Engine) Scan(ctx context.Context) {
	due, err := e.reminders.CheckDue(e.now())
	if err != nil {
		e.log.Warn("Reminder scan failed", "error", err)
		return
	}

	for _, item := range due {
		text := fmt.Sprintf("Reminder: %s", item.Description)
		e.log.Info("Reminder fired", "id", item.ID, "description", item.Description)
		for _, n := range e.notifiers {
			n.Notify(ctx, text)
		}
		if item.Recurrence != "" {
			e.rearm(item)
		}
	}
}

// rearm schedules the next occurrence of a recurring reminder as a fresh
// pending row.
func (e *Engine) rearm(item store.Reminder) {
	schedule, err := cron.ParseStandard(item.Recurrence)
	if err != nil {
		e.log.Warn("Invalid recurrence, reminder will not repeat",
			"id", item.ID, "recurrence", item.Recurrence, "error", err)
		return
	}
	next := schedule.Next(e.now())
	if _, err := e.reminders.Add(item.Description, next, item.Recurrence); err != nil {
		e.log.Warn("Failed to re-arm recurring reminder", "id", item.ID, "error", err)
	}
}
