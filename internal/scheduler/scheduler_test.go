package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/hibiki/internal/store"

	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingNotifier) Notify(ctx context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func newTestEngine(t *testing.T, notifier Notifier) (*Engine, *store.ReminderStore) {
	t.Helper()
	s, err := store.NewUnlocked(t.TempDir())
	require.NoError(t, err)
	engine := New(s.Reminders(), Config{TickInterval: time.Hour}, nil, notifier)
	return engine, s.Reminders()
}

func TestScanFiresDueReminderOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, reminders := newTestEngine(t, notifier)

	base := time.Now()
	_, err := reminders.Add("submit report", base.Add(time.Minute), "")
	require.NoError(t, err)

	engine.now = func() time.Time { return base.Add(2 * time.Minute) }
	engine.Scan(context.Background())
	require.Equal(t, []string{"Reminder: submit report"}, notifier.all())

	// A later scan stays quiet.
	engine.now = func() time.Time { return base.Add(3 * time.Minute) }
	engine.Scan(context.Background())
	require.Len(t, notifier.all(), 1)
}

func TestScanSkipsFutureReminders(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, reminders := newTestEngine(t, notifier)

	base := time.Now()
	_, err := reminders.Add("later", base.Add(time.Hour), "")
	require.NoError(t, err)

	engine.now = func() time.Time { return base.Add(time.Minute) }
	engine.Scan(context.Background())
	require.Empty(t, notifier.all())
}

func TestRecurringReminderRearms(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, reminders := newTestEngine(t, notifier)

	base := time.Now()
	_, err := reminders.Add("daily standup", base.Add(time.Minute), "0 9 * * *")
	require.NoError(t, err)

	engine.now = func() time.Time { return base.Add(2 * time.Minute) }
	engine.Scan(context.Background())
	require.Len(t, notifier.all(), 1)

	pending, err := reminders.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "daily standup", pending[0].Description)
	require.Equal(t, "0 9 * * *", pending[0].Recurrence)
	require.Greater(t, pending[0].RemindAt, engine.now().Unix())
}

func TestInvalidRecurrenceDoesNotRearm(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, reminders := newTestEngine(t, notifier)

	base := time.Now()
	_, err := reminders.Add("broken", base.Add(time.Minute), "not a cron expr")
	require.NoError(t, err)

	engine.now = func() time.Time { return base.Add(2 * time.Minute) }
	engine.Scan(context.Background())
	require.Len(t, notifier.all(), 1)

	pending, err := reminders.ListPending()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestStartStop(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, reminders := newTestEngine(t, notifier)
	engine.interval = 10 * time.Millisecond

	base := time.Now()
	_, err := reminders.Add("quick", base.Add(time.Millisecond), "")
	require.NoError(t, err)

	engine.Start(context.Background())
	require.Eventually(t, func() bool {
		return len(notifier.all()) == 1
	}, time.Second, 10*time.Millisecond)
	engine.Stop()
}
