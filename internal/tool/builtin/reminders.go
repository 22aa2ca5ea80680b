package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harunnryd/hibiki/internal/store"
	"github.com/harunnryd/hibiki/internal/tool"
)

const spokenTimeLayout = "03:04 PM on Jan 02, 2006"

func formatRemindAt(epoch int64) string {
	return time.Unix(epoch, 0).Format(spokenTimeLayout)
}

type AddReminder struct {
	env *Env
}

func (t *AddReminder) Name() string { return "add_reminder" }

func (t *AddReminder) Description() string {
	return "Create a reminder with a title/description and a date-time expression."
}

func (t *AddReminder) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"description": map[string]interface{}{
			"type":        "string",
			"description": "What to remind about, e.g. 'submit assignment'",
		},
		"time_str": map[string]interface{}{
			"type":        "string",
			"description": "Natural language date/time, e.g. 'tomorrow at 6 PM' or 'in 20 minutes'",
		},
		"recurrence": map[string]interface{}{
			"type":        "string",
			"description": "Optional cron expression for repeating reminders, e.g. '0 9 * * MON'",
		},
	}, "description", "time_str")
}

func (t *AddReminder) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		Description string `json:"description"`
		TimeStr     string `json:"time_str"`
		Recurrence  string `json:"recurrence"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return tool.Fail("Please tell me what to remind you about and when.")
	}

	when, ok := ParseWhen(args.TimeStr, t.env.now())
	if !ok {
		return tool.Fail(fmt.Sprintf("Could not understand reminder time: '%s'", args.TimeStr))
	}

	item, err := t.env.Reminders.Add(args.Description, when, args.Recurrence)
	if err != nil {
		return tool.Fail(fmt.Sprintf("Could not save reminder: %v", err))
	}

	return tool.OkData(
		fmt.Sprintf("Reminder set for %s: %s.", formatRemindAt(item.RemindAt), item.Description),
		map[string]interface{}{
			"reminder_id": item.ID,
			"description": item.Description,
			"remind_at":   item.RemindAt,
		},
	)
}

type ListReminders struct {
	env *Env
}

func (t *ListReminders) Name() string { return "list_reminders" }

func (t *ListReminders) Description() string {
	return "List upcoming reminders."
}

func (t *ListReminders) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *ListReminders) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	pending, err := t.env.Reminders.ListPending()
	if err != nil {
		return tool.Fail(fmt.Sprintf("Error listing reminders: %v", err))
	}

	if len(pending) == 0 {
		return tool.OkData("You have no upcoming reminders.", map[string]interface{}{
			"count": 0,
		})
	}

	items := make([]map[string]interface{}, 0, len(pending))
	for _, r := range pending {
		items = append(items, reminderFields(r))
	}

	return tool.OkData(fmt.Sprintf("You have %d upcoming reminders.", len(pending)), map[string]interface{}{
		"count":     len(pending),
		"reminders": items,
	})
}

func reminderFields(r store.Reminder) map[string]interface{} {
	return map[string]interface{}{
		"id":          r.ID,
		"description": r.Description,
		"remind_at":   r.RemindAt,
		"when":        formatRemindAt(r.RemindAt),
	}
}
