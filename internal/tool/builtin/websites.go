package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harunnryd/hibiki/internal/tool"
)

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

type OpenWebsite struct {
	env *Env
}

func (t *OpenWebsite) Name() string { return "open_website" }

func (t *OpenWebsite) Description() string {
	return "Opens one or more websites in the default browser. Can handle multiple sites at once. Accepts website names or full URLs."
}

func (t *OpenWebsite) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"sites": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "List of website names or URLs to open, e.g. ['YouTube', 'Instagram']",
		},
	}, "sites")
}

func (t *OpenWebsite) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		Sites []string `json:"sites"`
	}
	if err := json.Unmarshal(input, &args); err != nil || len(args.Sites) == 0 {
		return tool.Fail("Please tell me which website to open.")
	}

	var opened []string
	for _, site := range args.Sites {
		url := NormalizeURL(site)
		if err := t.env.openURL(ctx, url); err != nil {
			continue
		}
		t.env.Tabs.Push(url)
		opened = append(opened, url)
	}

	switch {
	case len(opened) == 1:
		return tool.OkData(fmt.Sprintf("Opened %s", opened[0]), map[string]interface{}{"urls": opened})
	case len(opened) > 1:
		return tool.OkData(fmt.Sprintf("Opened %d websites", len(opened)), map[string]interface{}{"urls": opened})
	default:
		return tool.Fail("Failed to open websites")
	}
}

type CloseWebsite struct {
	env *Env
}

func (t *CloseWebsite) Name() string { return "close_website" }

func (t *CloseWebsite) Description() string {
	return "Closes the most recently opened browser tab or the current active browser tab"
}

func (t *CloseWebsite) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *CloseWebsite) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	url, ok := t.env.Tabs.Pop()
	if !ok {
		return tool.Fail("No websites have been opened by me yet")
	}

	browser := t.runningBrowser(ctx)
	if browser == "" {
		t.env.Tabs.Push(url)
		return tool.Fail("No browser is currently running")
	}

	if _, err := t.env.Runner.Run(ctx, "open", "-a", browser); err != nil {
		t.env.Tabs.Push(url)
		return tool.Fail(fmt.Sprintf("Could not activate %s", browser))
	}

	script := `tell application "System Events" to keystroke "w" using command down`
	if _, err := t.env.Runner.Run(ctx, "osascript", "-e", script); err != nil {
		t.env.Tabs.Push(url)
		return tool.Fail("Could not close tab. Please grant Terminal automation permission.")
	}

	return tool.OkData(fmt.Sprintf("Closed tab in %s", browser), map[string]interface{}{
		"url":     url,
		"browser": browser,
	})
}

func (t *CloseWebsite) runningBrowser(ctx context.Context) string {
	browsers := []struct {
		app     string
		process string
	}{
		{"Google Chrome", "Google Chrome"},
		{"Safari", "Safari"},
		{"Brave Browser", "Brave Browser"},
		{"Firefox", "firefox"},
		{"Arc", "Arc"},
	}
	for _, b := range browsers {
		if _, err := t.env.Runner.Run(ctx, "pgrep", "-x", b.process); err == nil {
			return b.app
		}
	}
	return ""
}
