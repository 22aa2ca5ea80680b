package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harunnryd/hibiki/internal/tool"
)

// ResolveAppName maps a spoken alias to the installed application name.
func ResolveAppName(name string) string {
	trimmed := strings.TrimSpace(name)
	if resolved, ok := AppAliases[strings.ToLower(trimmed)]; ok {
		return resolved
	}
	return trimmed
}

type OpenApp struct {
	env *Env
}

func (t *OpenApp) Name() string { return "open_app" }

func (t *OpenApp) Description() string {
	return "Opens/launches an application. Works with any installed app. Examples: Safari, Chrome, Notes, Calculator, Spotify, VS Code, Slack, Discord"
}

func (t *OpenApp) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"app_name": map[string]interface{}{
			"type":        "string",
			"description": "Name of the application to open, e.g. 'Spotify', 'Notes', 'Calculator'",
		},
	}, "app_name")
}

func (t *OpenApp) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		AppName string `json:"app_name"`
	}
	if err := json.Unmarshal(input, &args); err != nil || strings.TrimSpace(args.AppName) == "" {
		return tool.Fail("Please tell me which app to open.")
	}

	resolved := ResolveAppName(args.AppName)
	if _, err := t.env.Runner.Run(ctx, "open", "-a", resolved); err == nil {
		return tool.OkData(fmt.Sprintf("Opened %s", resolved), map[string]interface{}{"app": resolved})
	}

	if resolved != args.AppName {
		if _, err := t.env.Runner.Run(ctx, "open", "-a", args.AppName); err == nil {
			return tool.OkData(fmt.Sprintf("Opened %s", args.AppName), map[string]interface{}{"app": args.AppName})
		}
	}

	// Spotlight fallback for apps whose display name differs.
	if out, err := t.env.Runner.Run(ctx, "mdfind", `kMDItemKind == "Application"`, "-name", args.AppName); err == nil && out != "" {
		path := strings.SplitN(out, "\n", 2)[0]
		if _, err := t.env.Runner.Run(ctx, "open", path); err == nil {
			return tool.OkData(fmt.Sprintf("Opened %s", args.AppName), map[string]interface{}{"app": args.AppName})
		}
	}

	return tool.Fail(fmt.Sprintf("Could not find '%s'. Make sure it's installed.", args.AppName))
}

type CloseApp struct {
	env *Env
}

func (t *CloseApp) Name() string { return "close_app" }

func (t *CloseApp) Description() string {
	return "Closes/quits a running application. Use when user says 'close CapCut' or 'quit Spotify' or 'close the app'."
}

func (t *CloseApp) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"app_name": map[string]interface{}{
			"type":        "string",
			"description": "Name of the application to close/quit, e.g. 'CapCut', 'Spotify', 'Notes'",
		},
	}, "app_name")
}

const quitScript = `on run argv
	set appName to item 1 of argv
	tell application appName to quit
end run`

func (t *CloseApp) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		AppName string `json:"app_name"`
	}
	if err := json.Unmarshal(input, &args); err != nil || strings.TrimSpace(args.AppName) == "" {
		return tool.Fail("Please tell me which app to close.")
	}

	resolved := ResolveAppName(args.AppName)
	if !t.isRunning(ctx, resolved, args.AppName) {
		return tool.OkData(fmt.Sprintf("%s is already closed", resolved), map[string]interface{}{"app": resolved})
	}

	for _, name := range []string{resolved, args.AppName} {
		if _, err := t.env.Runner.Run(ctx, "osascript", "-e", quitScript, name); err == nil {
			if !t.isRunning(ctx, resolved, args.AppName) {
				return tool.OkData(fmt.Sprintf("Closed %s", name), map[string]interface{}{"app": name})
			}
		}
	}

	// Last resort: terminate by process pattern.
	for _, pattern := range processCandidates(resolved, args.AppName) {
		t.env.Runner.Run(ctx, "pkill", "-if", pattern)
	}
	if !t.isRunning(ctx, resolved, args.AppName) {
		return tool.OkData(fmt.Sprintf("Closed %s", resolved), map[string]interface{}{"app": resolved})
	}

	return tool.Fail(fmt.Sprintf("Could not close %s. It may not be running.", args.AppName))
}

func (t *CloseApp) isRunning(ctx context.Context, names ...string) bool {
	for _, pattern := range processCandidates(names...) {
		if out, err := t.env.Runner.Run(ctx, "pgrep", "-if", pattern); err == nil && out != "" {
			return true
		}
	}
	return false
}

// processCandidates returns likely process name patterns for an app, longest
// first.
func processCandidates(names ...string) []string {
	seen := make(map[string]struct{})
	var candidates []string
	add := func(value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if _, dup := seen[value]; dup {
			return
		}
		seen[value] = struct{}{}
		candidates = append(candidates, value)
	}

	for _, name := range names {
		add(name)
		add(strings.ReplaceAll(name, " ", ""))
		for _, token := range strings.Fields(name) {
			if len(token) >= 3 {
				add(token)
			}
		}
	}
	return candidates
}
