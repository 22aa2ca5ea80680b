// Package respond turns tool outcomes into spoken-style replies: rotating
// confirmations before execution, natural phrasing of data-heavy results
// after it.
package respond

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/hibiki/internal/tool"
)

// ProcessingFailure is spoken when every resolution strategy came up empty.
const ProcessingFailure = "I ran into a processing issue. Please repeat that once."

const spokenTimeLayout = "03:04 PM on Jan 02, 2006"

// naturalTools get their result data rephrased conversationally instead of
// echoing the raw tool message.
var naturalTools = map[string]struct{}{
	"find_file":      {},
	"list_contents":  {},
	"system_info":    {},
	"list_tasks":     {},
	"list_reminders": {},
	"add_reminder":   {},
}

func pick(counter int, options ...string) string {
	return options[counter%len(options)]
}

// MultiActionSummary announces a batch of tool calls.
func MultiActionSummary(n int) string {
	return fmt.Sprintf("Executing %d actions now.", n)
}

// Failure wraps a failed tool message in an apology.
func Failure(message string) string {
	return "I apologize, but " + message
}

// Spoken selects what to say for one executed tool call.
func Spoken(toolName string, confirmation string, result tool.Result) string {
	if !result.Success {
		return Failure(result.Message)
	}
	if _, ok := naturalTools[toolName]; ok {
		return Natural(toolName, result)
	}
	if confirmation != "" {
		return confirmation
	}
	return result.Message
}

// Confirmation produces a rotating acknowledgement for a tool call. The
// counter comes from the session so phrasing varies between consecutive
// commands.
func Confirmation(counter int, toolName string, args json.RawMessage) string {
	var parsed map[string]interface{}
	if len(args) > 0 {
		json.Unmarshal(args, &parsed)
	}
	str := func(key, fallback string) string {
		if v, ok := parsed[key].(string); ok && v != "" {
			return v
		}
		return fallback
	}

	switch toolName {
	case "open_website":
		sites := stringList(parsed["sites"])
		switch len(sites) {
		case 0:
			return pick(counter,
				"At your service. Opening the requested website now.",
				"Consider it done. Bringing that site online now.",
				"Affirmative. Opening the requested website now.")
		case 1:
			return pick(counter,
				fmt.Sprintf("At your service. Opening %s now.", sites[0]),
				fmt.Sprintf("Consider it done. Launching %s.", sites[0]),
				fmt.Sprintf("Affirmative. Bringing up %s now.", sites[0]))
		case 2:
			return pick(counter,
				fmt.Sprintf("At your service. Opening %s and %s now.", sites[0], sites[1]),
				fmt.Sprintf("Consider it done. Bringing up %s and %s.", sites[0], sites[1]),
				fmt.Sprintf("Affirmative. Launching %s and %s now.", sites[0], sites[1]))
		default:
			return pick(counter,
				fmt.Sprintf("At your service. Opening %d websites now.", len(sites)),
				fmt.Sprintf("Consider it done. Launching %d destinations now.", len(sites)),
				fmt.Sprintf("Affirmative. Bringing %d sites online.", len(sites)))
		}
	case "close_website":
		return pick(counter,
			"At your service. Closing the active browser tab now.",
			"Consider it done. Closing the current tab.",
			"Affirmative. Tab closure in progress.")
	case "open_app":
		app := str("app_name", "the app")
		return pick(counter,
			fmt.Sprintf("At your service. Opening %s now.", app),
			fmt.Sprintf("Consider it done. Launching %s.", app),
			fmt.Sprintf("Affirmative. Bringing %s online now.", app))
	case "close_app":
		app := str("app_name", "the app")
		return pick(counter,
			fmt.Sprintf("At your service. Closing %s now.", app),
			fmt.Sprintf("Consider it done. Shutting down %s.", app),
			fmt.Sprintf("Affirmative. Terminating %s now.", app))
	case "find_file":
		filename := str("filename", "the file")
		return pick(counter,
			fmt.Sprintf("At your service. Scanning for %s now.", filename),
			fmt.Sprintf("Consider it done. Locating %s on your system.", filename),
			fmt.Sprintf("Affirmative. Running a system-wide search for %s.", filename))
	case "create_folder":
		folder := str("folder_name", "the folder")
		location := str("location", "desktop")
		return pick(counter,
			fmt.Sprintf("At your service. Creating %s on %s.", folder, location),
			fmt.Sprintf("Consider it done. Provisioning folder %s on %s.", folder, location),
			fmt.Sprintf("Affirmative. Folder %s will be created on %s.", folder, location))
	case "open_folder":
		folder := str("folder_name", "the folder")
		return pick(counter,
			fmt.Sprintf("At your service. Opening folder %s now.", folder),
			fmt.Sprintf("Consider it done. Bringing up the %s folder.", folder),
			fmt.Sprintf("Affirmative. Accessing folder %s now.", folder))
	case "system_info":
		infoType := str("info_type", "system")
		return pick(counter,
			fmt.Sprintf("At your service. Retrieving %s diagnostics now.", infoType),
			fmt.Sprintf("Consider it done. Pulling %s information.", infoType),
			fmt.Sprintf("Affirmative. Collecting %s telemetry now.", infoType))
	case "list_contents":
		location := str("location", "desktop")
		return pick(counter,
			fmt.Sprintf("At your service. Inspecting contents of %s.", location),
			fmt.Sprintf("Consider it done. Scanning %s now.", location),
			fmt.Sprintf("Affirmative. Enumerating items in %s.", location))
	case "add_task":
		desc := str("description", "a task")
		return pick(counter,
			fmt.Sprintf("At your service. Adding '%s' to your task list.", desc),
			fmt.Sprintf("Consider it done. Logging '%s' as a task.", desc),
			fmt.Sprintf("Affirmative. Task '%s' has been queued.", desc))
	case "list_tasks":
		return pick(counter,
			"At your service. Reviewing your task queue.",
			"Consider it done. Pulling your current task list.",
			"Affirmative. Checking all pending tasks now.")
	case "complete_task":
		tid := "the task"
		if v, ok := parsed["task_id"].(float64); ok {
			tid = fmt.Sprintf("#%d", int(v))
		}
		return pick(counter,
			fmt.Sprintf("At your service. Marking task %s as complete.", tid),
			fmt.Sprintf("Consider it done. Closing task %s.", tid),
			fmt.Sprintf("Affirmative. Task %s will be completed now.", tid))
	case "add_calendar_event":
		summary := str("summary", "event")
		timeStr := str("time_str", "the time")
		return pick(counter,
			fmt.Sprintf("At your service. Scheduling '%s' for %s.", summary, timeStr),
			fmt.Sprintf("Consider it done. Calendar event '%s' is being set for %s.", summary, timeStr),
			fmt.Sprintf("Affirmative. Booking '%s' at %s.", summary, timeStr))
	case "set_music_preference":
		pref := str("preference", "your preference")
		return pick(counter,
			fmt.Sprintf("At your service. Saving your music taste as %s.", pref),
			fmt.Sprintf("Consider it done. I'll remember your music preference: %s.", pref),
			fmt.Sprintf("Affirmative. Stored your music persona as %s.", pref))
	case "play_music":
		if query := str("query", ""); query != "" {
			return pick(counter,
				fmt.Sprintf("At your service. Playing %s now.", query),
				fmt.Sprintf("Consider it done. Starting music for %s.", query),
				fmt.Sprintf("Affirmative. Playing %s right away.", query))
		}
		return pick(counter,
			"At your service. Playing music based on your saved taste.",
			"Consider it done. Starting your preferred music now.",
			"Affirmative. Loading music from your saved preference.")
	default:
		return pick(counter,
			fmt.Sprintf("At your service. Executing %s.", toolName),
			fmt.Sprintf("Consider it done. Running %s.", toolName),
			fmt.Sprintf("Affirmative. Executing %s now.", toolName))
	}
}

// Natural rephrases a successful data-heavy result conversationally. Failed
// results keep their own message.
func Natural(toolName string, result tool.Result) string {
	if !result.Success {
		return result.Message
	}

	switch toolName {
	case "list_contents":
		return naturalListContents(result)
	case "find_file":
		paths := stringList(result.Data["paths"])
		switch {
		case len(paths) == 1:
			return fmt.Sprintf("I found it at %s.", paths[0])
		case len(paths) > 1:
			return fmt.Sprintf("I found %d matches. The first one is at %s.", len(paths), paths[0])
		}
	case "system_info":
		if len(result.Data) == 1 {
			if v, ok := result.Data["battery"]; ok {
				return fmt.Sprintf("Your battery is at %v.", v)
			}
			if v, ok := result.Data["time"]; ok {
				return fmt.Sprintf("The current time is %v.", v)
			}
			if v, ok := result.Data["disk"]; ok {
				return fmt.Sprintf("Disk status: %v.", v)
			}
		}
		if result.Message != "" {
			return result.Message
		}
		return "System information retrieved."
	case "list_tasks":
		return naturalListTasks(result)
	case "list_reminders":
		return naturalListReminders(result)
	case "add_reminder":
		desc, _ := result.Data["description"].(string)
		epoch, hasWhen := result.Data["remind_at"].(int64)
		if desc != "" && hasWhen {
			when := time.Unix(epoch, 0).Format(spokenTimeLayout)
			return fmt.Sprintf("Reminder saved. I will remind you to %s at %s.", desc, when)
		}
		if result.Message != "" {
			return result.Message
		}
		return "Reminder saved."
	case "play_music":
		if q, ok := result.Data["query"].(string); ok && q != "" {
			return fmt.Sprintf("Now playing %s.", q)
		}
		return "Now playing music."
	case "set_music_preference":
		if pref, ok := result.Data["preference"].(string); ok && pref != "" {
			return fmt.Sprintf("Done. I saved your music taste as %s.", pref)
		}
	}

	if result.Message != "" {
		return result.Message
	}
	return "Done."
}

func naturalListContents(result tool.Result) string {
	folders := stringList(result.Data["folders"])
	files := stringList(result.Data["files"])
	location := "the folder"
	if loc, ok := result.Data["location"].(string); ok && loc != "" {
		location = loc
	}

	switch {
	case len(folders) == 0 && len(files) == 0:
		return fmt.Sprintf("%s is currently empty.", location)
	case len(files) == 0:
		preview := strings.Join(head(folders, 8), ", ")
		if len(folders) <= 8 {
			return fmt.Sprintf("There are %d folders in %s: %s.", len(folders), location, preview)
		}
		return fmt.Sprintf("There are %d folders in %s. The first few are: %s.", len(folders), location, preview)
	case len(folders) == 0:
		preview := strings.Join(head(files, 8), ", ")
		if len(files) <= 8 {
			return fmt.Sprintf("There are %d files in %s: %s.", len(files), location, preview)
		}
		return fmt.Sprintf("There are %d files in %s. The first few are: %s.", len(files), location, preview)
	default:
		return fmt.Sprintf(
			"%s contains %d folders and %d files. Folders: %s. Files: %s.",
			location, len(folders), len(files),
			strings.Join(head(folders, 5), ", "),
			strings.Join(head(files, 5), ", "),
		)
	}
}

func naturalListTasks(result tool.Result) string {
	tasks := mapList(result.Data["tasks"])
	if len(tasks) == 0 {
		return "You currently have no pending tasks."
	}
	lines := []string{fmt.Sprintf("You have %d pending %s:", len(tasks), plural(len(tasks), "task"))}
	for i, task := range tasks {
		desc, _ := task["description"].(string)
		lines = append(lines, fmt.Sprintf("%d. [Task %v] %s", i+1, task["id"], strings.TrimSpace(desc)))
	}
	return strings.Join(lines, "\n")
}

func naturalListReminders(result tool.Result) string {
	reminders := mapList(result.Data["reminders"])
	if len(reminders) == 0 {
		return "You currently have no upcoming reminders."
	}
	lines := []string{fmt.Sprintf("You have %d upcoming %s:", len(reminders), plural(len(reminders), "reminder"))}
	for i, item := range reminders {
		desc, _ := item["description"].(string)
		when, _ := item["when"].(string)
		lines = append(lines, fmt.Sprintf("%d. [Reminder %v] %s at %s", i+1, item["id"], strings.TrimSpace(desc), when))
	}
	return strings.Join(lines, "\n")
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func head(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

func stringList(v interface{}) []string {
	switch val := v.(type) {
	case []string:
		return val
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func mapList(v interface{}) []map[string]interface{} {
	switch val := v.(type) {
	case []map[string]interface{}:
		return val
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}
