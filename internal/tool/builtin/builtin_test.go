package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/hibiki/internal/store"
	"github.com/harunnryd/hibiki/internal/tool"

	"github.com/stretchr/testify/require"
)

// fakeRunner returns scripted output per command name and records every
// invocation.
type fakeRunner struct {
	outputs map[string]string
	fails   map[string]bool
	calls   [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.fails[name] {
		return "", errors.New(name + " failed")
	}
	return f.outputs[name], nil
}

func newTestEnv(t *testing.T, runner Runner) *Env {
	t.Helper()
	s, err := store.NewUnlocked(t.TempDir())
	require.NoError(t, err)
	if runner == nil {
		runner = &fakeRunner{}
	}
	env := NewEnv(s, t.TempDir(), runner)
	env.Now = func() time.Time {
		return time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	}
	return env
}

func runTool(t *testing.T, tl tool.Tool, args string) tool.Result {
	t.Helper()
	return tl.Execute(context.Background(), json.RawMessage(args))
}

func TestOpenWebsitePushesTabs(t *testing.T) {
	runner := &fakeRunner{}
	env := newTestEnv(t, runner)

	res := runTool(t, &OpenWebsite{env: env}, `{"sites":["youtube","instagram"]}`)
	require.True(t, res.Success)
	require.Equal(t, "Opened 2 websites", res.Message)
	require.Equal(t, 2, env.Tabs.Len())
	require.Equal(t, []string{"open", "https://youtube.com"}, runner.calls[0])
}

func TestCloseWebsiteWithoutOpenTabs(t *testing.T) {
	env := newTestEnv(t, nil)

	res := runTool(t, &CloseWebsite{env: env}, `{}`)
	require.False(t, res.Success)
	require.Contains(t, res.Message, "No websites")
}

func TestCloseWebsitePopsMostRecentTab(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"pgrep": "123"}}
	env := newTestEnv(t, runner)
	env.Tabs.Push("https://youtube.com")
	env.Tabs.Push("https://github.com")

	res := runTool(t, &CloseWebsite{env: env}, `{}`)
	require.True(t, res.Success)
	require.Equal(t, "https://github.com", res.Data["url"])
	require.Equal(t, 1, env.Tabs.Len())
}

func TestOpenAppResolvesAlias(t *testing.T) {
	runner := &fakeRunner{}
	env := newTestEnv(t, runner)

	res := runTool(t, &OpenApp{env: env}, `{"app_name":"vs code"}`)
	require.True(t, res.Success)
	require.Equal(t, "Opened Visual Studio Code", res.Message)
	require.Equal(t, []string{"open", "-a", "Visual Studio Code"}, runner.calls[0])
}

func TestCloseAppAlreadyClosed(t *testing.T) {
	// pgrep failing means no matching process.
	runner := &fakeRunner{fails: map[string]bool{"pgrep": true}}
	env := newTestEnv(t, runner)

	res := runTool(t, &CloseApp{env: env}, `{"app_name":"spotify"}`)
	require.True(t, res.Success)
	require.Contains(t, res.Message, "already closed")
}

func TestListContents(t *testing.T) {
	env := newTestEnv(t, nil)
	desktop := filepath.Join(env.Home, "Desktop")
	require.NoError(t, os.MkdirAll(filepath.Join(desktop, "projects"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(desktop, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(desktop, ".hidden"), []byte("x"), 0o644))

	res := runTool(t, &ListContents{env: env}, `{"location":"desktop"}`)
	require.True(t, res.Success)
	require.Equal(t, []string{"projects"}, res.Data["folders"])
	require.Equal(t, []string{"notes.txt"}, res.Data["files"])
	require.Contains(t, res.Message, "1 folders and 1 files")
}

func TestCreateFolder(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, os.MkdirAll(filepath.Join(env.Home, "Desktop"), 0o755))

	res := runTool(t, &CreateFolder{env: env}, `{"folder_name":"new stuff"}`)
	require.True(t, res.Success)
	require.DirExists(t, filepath.Join(env.Home, "Desktop", "new stuff"))

	res = runTool(t, &CreateFolder{env: env}, `{"folder_name":"new stuff"}`)
	require.False(t, res.Success)
	require.Contains(t, res.Message, "already exists")
}

func TestAddTaskAndComplete(t *testing.T) {
	env := newTestEnv(t, nil)

	res := runTool(t, &AddTask{env: env}, `{"description":"buy milk"}`)
	require.True(t, res.Success)
	require.Equal(t, "Added task: buy milk", res.Message)

	res = runTool(t, &ListTasks{env: env}, `{}`)
	require.True(t, res.Success)
	require.Equal(t, 1, res.Data["count"])

	res = runTool(t, &CompleteTask{env: env}, `{"task_id":1}`)
	require.True(t, res.Success)
	require.Equal(t, "Completed task: buy milk", res.Message)

	res = runTool(t, &ListTasks{env: env}, `{}`)
	require.True(t, res.Success)
	require.Equal(t, "You have no tasks in your list.", res.Message)
}

func TestAddReminderParsesNaturalTime(t *testing.T) {
	env := newTestEnv(t, nil)

	res := runTool(t, &AddReminder{env: env}, `{"description":"submit report","time_str":"in 20 minutes"}`)
	require.True(t, res.Success)
	require.Contains(t, res.Message, "Reminder set for")

	pending, err := env.Reminders.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, env.now().Add(20*time.Minute).Unix(), pending[0].RemindAt)
}

func TestAddReminderRejectsUnparseableTime(t *testing.T) {
	env := newTestEnv(t, nil)

	res := runTool(t, &AddReminder{env: env}, `{"description":"x","time_str":"whenever"}`)
	require.False(t, res.Success)
	require.Contains(t, res.Message, "Could not understand")
}

func TestMusicPreferenceRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)

	res := runTool(t, &SetMusicPreference{env: env}, `{"preference":"lofi and chillhop"}`)
	require.True(t, res.Success)

	res = runTool(t, &PlayMusic{env: env}, `{}`)
	require.True(t, res.Success)
	require.Contains(t, res.Message, "using your saved preference: lofi and chillhop")
	require.Equal(t, "spotify", res.Data["platform"])
}

func TestPlayMusicYoutube(t *testing.T) {
	env := newTestEnv(t, nil)

	res := runTool(t, &PlayMusic{env: env}, `{"query":"jazz","platform":"youtube"}`)
	require.True(t, res.Success)
	url, ok := res.Data["url"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(url, "https://www.youtube.com/results"))
}

func TestAddCalendarEvent(t *testing.T) {
	env := newTestEnv(t, nil)

	res := runTool(t, &AddCalendarEvent{env: env}, `{"summary":"standup","time_str":"tomorrow at 9 am"}`)
	require.True(t, res.Success)

	events, err := env.Calendar.List()
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 60, events[0].DurationMinutes)
}

func TestNormalizeURL(t *testing.T) {
	require.Equal(t, "https://youtube.com", NormalizeURL("YouTube"))
	require.Equal(t, "https://chatgpt.com", NormalizeURL("chat gbt"))
	require.Equal(t, "https://example.com", NormalizeURL("example.com"))
	require.Equal(t, "https://www.example.com", NormalizeURL("www.example.com"))
	require.Contains(t, NormalizeURL("some random thing"), "google.com/search")
}

func TestParseWhen(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)

	cases := []struct {
		in   string
		want time.Time
	}{
		{"in 15 minutes", now.Add(15 * time.Minute)},
		{"in 2 hours", now.Add(2 * time.Hour)},
		{"in 3 days", now.AddDate(0, 0, 3)},
		{"tomorrow at 6 pm", time.Date(2026, 3, 2, 18, 0, 0, 0, time.Local)},
		{"today at 18:30", time.Date(2026, 3, 1, 18, 30, 0, 0, time.Local)},
		{"at 9:30 am", time.Date(2026, 3, 2, 9, 30, 0, 0, time.Local)}, // already past, rolls over
		{"2026-03-05 14:00", time.Date(2026, 3, 5, 14, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		got, ok := ParseWhen(tc.in, now)
		require.True(t, ok, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	_, ok := ParseWhen("whenever you feel like it", now)
	require.False(t, ok)
}

func TestSystemInfoBattery(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"pmset": "Now drawing from 'Battery Power'\n -InternalBattery-0 (id=1234)\t87%; discharging; 4:32 remaining",
	}}
	env := newTestEnv(t, runner)

	res := runTool(t, &SystemInfo{env: env}, `{"info_type":"battery"}`)
	require.True(t, res.Success)
	require.Equal(t, "Battery: 87% (on battery)", res.Message)
}

func TestSystemInfoTime(t *testing.T) {
	env := newTestEnv(t, nil)

	res := runTool(t, &SystemInfo{env: env}, `{"info_type":"time"}`)
	require.True(t, res.Success)
	require.Contains(t, res.Message, "Time: ")
	require.Contains(t, res.Message, "2026")
}
