package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewUnlocked(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestTaskAddListComplete(t *testing.T) {
	tasks := newTestStore(t).Tasks()

	first, err := tasks.Add("buy milk")
	require.NoError(t, err)
	require.Equal(t, 1, first.ID)
	require.Equal(t, "pending", first.Status)

	second, err := tasks.Add("call mom")
	require.NoError(t, err)
	require.Equal(t, 2, second.ID)

	list, err := tasks.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	removed, err := tasks.Complete(1)
	require.NoError(t, err)
	require.Equal(t, "buy milk", removed.Description)

	list, err = tasks.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 2, list[0].ID)
}

func TestTaskIDsNotReusedAfterCompletion(t *testing.T) {
	tasks := newTestStore(t).Tasks()

	_, err := tasks.Add("one")
	require.NoError(t, err)
	second, err := tasks.Add("two")
	require.NoError(t, err)

	_, err = tasks.Complete(second.ID)
	require.NoError(t, err)

	third, err := tasks.Add("three")
	require.NoError(t, err)
	require.Equal(t, 3, third.ID)
}

func TestTaskValidation(t *testing.T) {
	tasks := newTestStore(t).Tasks()

	_, err := tasks.Add("   ")
	require.Error(t, err)

	_, err = tasks.Complete(0)
	require.Error(t, err)

	_, err = tasks.Complete(7)
	require.Error(t, err)
}

func TestReminderAddRejectsPast(t *testing.T) {
	reminders := newTestStore(t).Reminders()

	_, err := reminders.Add("too late", time.Now().Add(-time.Minute), "")
	require.Error(t, err)

	_, err = reminders.Add("", time.Now().Add(time.Hour), "")
	require.Error(t, err)
}

func TestReminderCheckDueFiresExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	reminders := s.Reminders()

	item, err := reminders.Add("submit report", time.Now().Add(50*time.Millisecond), "")
	require.NoError(t, err)
	require.Equal(t, ReminderStatusPending, item.Status)

	later := time.Now().Add(time.Second)

	due, err := reminders.CheckDue(later)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, ReminderStatusDone, due[0].Status)
	require.True(t, due[0].Reminded)

	// A second pass over the same collection must not redeliver.
	due, err = reminders.CheckDue(later.Add(time.Second))
	require.NoError(t, err)
	require.Empty(t, due)

	pending, err := reminders.ListPending()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestRecordStoresAreSingletons(t *testing.T) {
	s := newTestStore(t)
	require.Same(t, s.Reminders(), s.Reminders())
	require.Same(t, s.Tasks(), s.Tasks())
	require.Same(t, s.Memory(), s.Memory())
	require.Same(t, s.Settings(), s.Settings())
	require.Same(t, s.Calendar(), s.Calendar())
}

func TestReminderConcurrentScanDeliversEachOnce(t *testing.T) {
	s := newTestStore(t)
	adder := s.Reminders()
	scanner := s.Reminders()

	const total = 50
	horizon := time.Now().Add(2 * time.Hour)

	var mu sync.Mutex
	delivered := make(map[int]int)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			due, err := scanner.CheckDue(horizon)
			if err == nil {
				mu.Lock()
				for _, r := range due {
					delivered[r.ID]++
				}
				mu.Unlock()
			}
			select {
			case <-stop:
				return
			default:
			}
		}
	}()

	for i := 0; i < total; i++ {
		_, err := adder.Add(fmt.Sprintf("reminder %d", i), time.Now().Add(time.Hour), "")
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	// Sweep whatever the scanning goroutine had not reached yet.
	due, err := scanner.CheckDue(horizon)
	require.NoError(t, err)
	for _, r := range due {
		delivered[r.ID]++
	}

	require.Len(t, delivered, total)
	for id, n := range delivered {
		require.Equalf(t, 1, n, "reminder %d delivered %d times", id, n)
	}

	due, err = scanner.CheckDue(horizon.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestReminderListPendingSorted(t *testing.T) {
	reminders := newTestStore(t).Reminders()

	_, err := reminders.Add("later", time.Now().Add(2*time.Hour), "")
	require.NoError(t, err)
	_, err = reminders.Add("sooner", time.Now().Add(time.Hour), "")
	require.NoError(t, err)

	pending, err := reminders.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "sooner", pending[0].Description)
}

func TestCorruptFileQuarantined(t *testing.T) {
	dir := t.TempDir()
	s, err := NewUnlocked(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	list, err := s.Tasks().List()
	require.NoError(t, err)
	require.Empty(t, list)

	backups, err := filepath.Glob(path + ".corrupt.*")
	require.NoError(t, err)
	require.Len(t, backups, 1)
}

func TestMemoryStore(t *testing.T) {
	memory := newTestStore(t).Memory()

	require.NoError(t, memory.SetUserInfo("name", "Tony"))
	require.NoError(t, memory.SetPreference("music", "lofi"))
	added, err := memory.AddFact("i like jazz")
	require.NoError(t, err)
	require.True(t, added)
	added, err = memory.AddFact("I like jazz") // case-insensitive dup
	require.NoError(t, err)
	require.False(t, added)
	added, err = memory.AddFact("i prefer tea")
	require.NoError(t, err)
	require.True(t, added)

	data, err := memory.Load()
	require.NoError(t, err)
	require.Equal(t, "Tony", data.UserInfo["name"])
	require.Equal(t, "lofi", data.Preferences["music"])
	require.Len(t, data.Facts, 2)

	recent, err := memory.RecentFacts(1)
	require.NoError(t, err)
	require.Equal(t, []string{"i prefer tea"}, recent)
}

func TestSettingsRoundTrip(t *testing.T) {
	settings := newTestStore(t).Settings()

	loaded, err := settings.Load()
	require.NoError(t, err)
	require.Empty(t, loaded.VoiceCode)

	require.NoError(t, settings.SetVoiceCode("am_adam"))

	loaded, err = settings.Load()
	require.NoError(t, err)
	require.Equal(t, "am_adam", loaded.VoiceCode)
}
