package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/harunnryd/hibiki/internal/tool"
)

var infoTypes = map[string]bool{
	"battery": true, "disk": true, "time": true,
	"running_apps": true, "wifi": true, "all": true,
}

type SystemInfo struct {
	env *Env
}

func (t *SystemInfo) Name() string { return "system_info" }

func (t *SystemInfo) Description() string {
	return "Get system information. Use when user asks about battery, time, disk space, running apps, or WiFi."
}

func (t *SystemInfo) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"info_type": map[string]interface{}{
			"type":        "string",
			"enum":        []interface{}{"battery", "disk", "time", "running_apps", "wifi", "all"},
			"description": "What info to get: battery, disk, time, running_apps, wifi, or all",
		},
	}, "info_type")
}

func (t *SystemInfo) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		InfoType string `json:"info_type"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		args.InfoType = "all"
	}
	requested := strings.ToLower(strings.TrimSpace(args.InfoType))
	if !infoTypes[requested] {
		requested = "all"
	}

	info := map[string]interface{}{}
	wants := func(kind string) bool { return requested == kind || requested == "all" }

	if wants("battery") {
		info["battery"] = t.battery(ctx)
	}
	if wants("disk") {
		info["disk"] = t.disk(ctx)
	}
	if wants("time") {
		info["time"] = t.env.now().Format("03:04 PM, Monday, January 02, 2006")
	}
	if wants("running_apps") {
		info["running_apps"] = t.runningApps(ctx)
	}
	if wants("wifi") {
		info["wifi"] = t.wifi(ctx)
	}

	return tool.OkData(formatInfoMessage(requested, info), info)
}

func formatInfoMessage(requested string, info map[string]interface{}) string {
	if requested == "all" {
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			val := info[key]
			if key == "running_apps" {
				if apps, ok := val.([]string); ok {
					parts = append(parts, fmt.Sprintf("Running apps: %d apps active", len(apps)))
					continue
				}
			}
			label := titleWords(key)
			parts = append(parts, fmt.Sprintf("%s: %v", label, val))
		}
		return strings.Join(parts, ". ")
	}

	if requested == "running_apps" {
		if apps, ok := info["running_apps"].([]string); ok {
			preview := apps
			if len(preview) > 20 {
				preview = preview[:20]
			}
			return "Running apps: " + strings.Join(preview, ", ")
		}
		return fmt.Sprintf("%v", info["running_apps"])
	}

	label := titleWords(requested)
	return fmt.Sprintf("%s: %v", label, info[requested])
}

func (t *SystemInfo) battery(ctx context.Context) string {
	out, err := t.env.Runner.Run(ctx, "pmset", "-g", "batt")
	if err != nil {
		return "Unavailable"
	}
	for _, line := range strings.Split(out, "\n") {
		idx := strings.Index(line, "%")
		if idx < 0 {
			continue
		}
		start := idx - 1
		for start >= 0 && line[start] >= '0' && line[start] <= '9' {
			start--
		}
		pct := strings.TrimSpace(line[start+1 : idx+1])

		lowered := strings.ToLower(line)
		status := ""
		switch {
		case strings.Contains(lowered, "discharging"):
			status = "on battery"
		case strings.Contains(lowered, "charging"):
			status = "charging"
		case strings.Contains(lowered, "charged"):
			status = "fully charged"
		}
		if status != "" {
			return fmt.Sprintf("%s (%s)", pct, status)
		}
		return pct
	}
	return "Unavailable"
}

func (t *SystemInfo) disk(ctx context.Context) string {
	out, err := t.env.Runner.Run(ctx, "df", "-h", "/")
	if err != nil {
		return "Unavailable"
	}
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		return "Unavailable"
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 5 {
		return "Unavailable"
	}
	return fmt.Sprintf("%s free of %s total (%s used)", fields[3], fields[1], fields[4])
}

func (t *SystemInfo) runningApps(ctx context.Context) []string {
	out, err := t.env.Runner.Run(ctx, "lsappinfo", "list")
	if err != nil {
		return nil
	}
	skip := map[string]bool{
		"universalaccessd":              true,
		"loginwindow":                   true,
		"backgroundtaskmanagementagent": true,
	}
	var apps []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, `) "`) || !strings.Contains(line, "ASN:") {
			continue
		}
		parts := strings.SplitN(line, `"`, 3)
		if len(parts) < 3 {
			continue
		}
		name := parts[1]
		if !skip[name] {
			apps = append(apps, name)
		}
	}
	return apps
}

func (t *SystemInfo) wifi(ctx context.Context) string {
	iface := "en0"
	if out, err := t.env.Runner.Run(ctx, "networksetup", "-listallhardwareports"); err == nil {
		for _, block := range strings.Split(out, "Hardware Port:") {
			if !strings.Contains(block, "Wi-Fi") {
				continue
			}
			for _, line := range strings.Split(block, "\n") {
				line = strings.TrimSpace(line)
				if strings.HasPrefix(line, "Device:") {
					iface = strings.TrimSpace(strings.TrimPrefix(line, "Device:"))
					break
				}
			}
			break
		}
	}

	out, err := t.env.Runner.Run(ctx, "networksetup", "-getairportnetwork", iface)
	if err != nil {
		return "Unable to detect"
	}
	if strings.Contains(out, "Current Wi-Fi Network:") {
		parts := strings.SplitN(out, ":", 2)
		return strings.TrimSpace(parts[1])
	}
	if strings.Contains(out, "not associated") {
		return "Not connected"
	}
	return "Unable to detect"
}

func titleWords(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
