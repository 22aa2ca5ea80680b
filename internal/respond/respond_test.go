package respond

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harunnryd/hibiki/internal/tool"

	"github.com/stretchr/testify/require"
)

func TestConfirmationRotates(t *testing.T) {
	args := json.RawMessage(`{"app_name":"Spotify"}`)

	first := Confirmation(0, "open_app", args)
	second := Confirmation(1, "open_app", args)
	third := Confirmation(2, "open_app", args)
	wrapped := Confirmation(3, "open_app", args)

	require.NotEqual(t, first, second)
	require.NotEqual(t, second, third)
	require.Equal(t, first, wrapped)
	require.Contains(t, first, "Spotify")
}

func TestConfirmationWebsiteCounts(t *testing.T) {
	one := Confirmation(0, "open_website", json.RawMessage(`{"sites":["YouTube"]}`))
	require.Contains(t, one, "YouTube")

	two := Confirmation(0, "open_website", json.RawMessage(`{"sites":["YouTube","Instagram"]}`))
	require.Contains(t, two, "YouTube and Instagram")

	many := Confirmation(0, "open_website", json.RawMessage(`{"sites":["a","b","c"]}`))
	require.Contains(t, many, "3 websites")
}

func TestConfirmationUnknownToolFallsBack(t *testing.T) {
	msg := Confirmation(0, "mystery_tool", nil)
	require.Contains(t, msg, "mystery_tool")
}

func TestSpokenFailureApologizes(t *testing.T) {
	result := tool.Fail("Could not find 'CapCut'. Make sure it's installed.")
	spoken := Spoken("open_app", "confirmation", result)
	require.Equal(t, "I apologize, but Could not find 'CapCut'. Make sure it's installed.", spoken)
}

func TestSpokenPrefersNaturalForDataTools(t *testing.T) {
	result := tool.OkData("Found '%s' at: x", map[string]interface{}{
		"paths": []string{"~/Desktop/resume.pdf"},
		"count": 1,
	})
	spoken := Spoken("find_file", "ignored confirmation", result)
	require.Equal(t, "I found it at ~/Desktop/resume.pdf.", spoken)
}

func TestNaturalFindFileMultiple(t *testing.T) {
	result := tool.OkData("found", map[string]interface{}{
		"paths": []string{"~/a.pdf", "~/b.pdf", "~/c.pdf"},
		"count": 3,
	})
	require.Equal(t, "I found 3 matches. The first one is at ~/a.pdf.", Natural("find_file", result))
}

func TestNaturalListContents(t *testing.T) {
	empty := tool.OkData("", map[string]interface{}{
		"folders": []string{}, "files": []string{}, "location": "~/Desktop",
	})
	require.Equal(t, "~/Desktop is currently empty.", Natural("list_contents", empty))

	mixed := tool.OkData("", map[string]interface{}{
		"folders":  []string{"projects", "archive"},
		"files":    []string{"notes.txt"},
		"location": "~/Desktop",
	})
	msg := Natural("list_contents", mixed)
	require.Contains(t, msg, "contains 2 folders and 1 files")
	require.Contains(t, msg, "Folders: projects, archive")
	require.Contains(t, msg, "Files: notes.txt")
}

func TestNaturalSystemInfoSingleKey(t *testing.T) {
	battery := tool.OkData("Battery: 87%", map[string]interface{}{"battery": "87% (charging)"})
	require.Equal(t, "Your battery is at 87% (charging).", Natural("system_info", battery))

	all := tool.OkData("Battery: 87%. Disk: fine", map[string]interface{}{
		"battery": "87%", "disk": "fine",
	})
	require.Equal(t, "Battery: 87%. Disk: fine", Natural("system_info", all))
}

func TestNaturalListTasks(t *testing.T) {
	result := tool.OkData("You have 2 tasks.", map[string]interface{}{
		"count": 2,
		"tasks": []map[string]interface{}{
			{"id": 1, "description": "buy milk"},
			{"id": 3, "description": "pay rent"},
		},
	})
	msg := Natural("list_tasks", result)
	require.Contains(t, msg, "You have 2 pending tasks:")
	require.Contains(t, msg, "1. [Task 1] buy milk")
	require.Contains(t, msg, "2. [Task 3] pay rent")
}

func TestNaturalAddReminder(t *testing.T) {
	when := time.Date(2026, 3, 2, 18, 0, 0, 0, time.Local)
	result := tool.OkData("Reminder set", map[string]interface{}{
		"reminder_id": 1,
		"description": "submit report",
		"remind_at":   when.Unix(),
	})
	msg := Natural("add_reminder", result)
	require.Contains(t, msg, "Reminder saved. I will remind you to submit report at ")
	require.Contains(t, msg, "06:00 PM")
}

func TestMultiActionSummary(t *testing.T) {
	require.Equal(t, "Executing 2 actions now.", MultiActionSummary(2))
}
