package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harunnryd/hibiki/internal/tool"
)

type AddCalendarEvent struct {
	env *Env
}

func (t *AddCalendarEvent) Name() string { return "add_calendar_event" }

func (t *AddCalendarEvent) Description() string {
	return "Add an event to the calendar."
}

func (t *AddCalendarEvent) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"summary": map[string]interface{}{
			"type":        "string",
			"description": "Title/Description of the event, e.g. 'Meeting with Tony'",
		},
		"time_str": map[string]interface{}{
			"type":        "string",
			"description": "Natural language time, e.g. 'tomorrow at 5pm' or 'next monday at 10am'",
		},
		"duration_minutes": map[string]interface{}{
			"type":        "integer",
			"description": "Duration in minutes. Default is 60.",
		},
	}, "summary", "time_str")
}

func (t *AddCalendarEvent) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		Summary         string `json:"summary"`
		TimeStr         string `json:"time_str"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return tool.Fail("Please tell me the event title and time.")
	}

	when, ok := ParseWhen(args.TimeStr, t.env.now())
	if !ok {
		return tool.Fail(fmt.Sprintf("Could not understand event time: '%s'", args.TimeStr))
	}

	event, err := t.env.Calendar.Add(args.Summary, when, args.DurationMinutes)
	if err != nil {
		return tool.Fail(fmt.Sprintf("Could not add event: %v", err))
	}

	return tool.OkData(
		fmt.Sprintf("Added event '%s' at %s.", event.Summary, time.Unix(event.StartAt, 0).Format(spokenTimeLayout)),
		map[string]interface{}{
			"event_id":         event.ID,
			"summary":          event.Summary,
			"start_at":         event.StartAt,
			"duration_minutes": event.DurationMinutes,
		},
	)
}
