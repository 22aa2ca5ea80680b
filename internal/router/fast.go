// Package router provides deterministic routing for high-frequency commands,
// dispatching them without a model round trip.
package router

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/harunnryd/hibiki/internal/extract"
	"github.com/harunnryd/hibiki/internal/intent"
	"github.com/harunnryd/hibiki/internal/tool/builtin"
)

var genericAppWords = map[string]struct{}{
	"app":         {},
	"application": {},
	"it":          {},
	"this":        {},
	"that":        {},
}

var locationWords = []string{"desktop", "downloads", "documents", "home"}

var (
	listTasksPattern    = regexp.MustCompile(`\b(show|list|view|check)\b.*\b(tasks?|todo|to-do)\b`)
	completeTaskPattern = regexp.MustCompile(`\b(complete|finish|done|remove|delete)\b.*\btask\b`)
	taskNumberPattern   = regexp.MustCompile(`\btask\s*#?\s*(\d+)\b`)
	addTaskPattern      = regexp.MustCompile(`\b(add|create|set)\b.*\b(task|todo|to-do)\b`)
	listRemindersRe     = regexp.MustCompile(`\b(show|list|view|check)\b.*\breminders?\b`)
	openVerbPattern     = regexp.MustCompile(`\b(open|launch|start)\b`)
	closeVerbPattern    = regexp.MustCompile(`\b(close|quit|exit)\b`)

	taskDescPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:add|create|set)\s+(?:a\s+)?(?:new\s+)?(?:task|todo|to-do)\s*(?:to|as)?\s*(.+)$`),
		regexp.MustCompile(`(?i)\b(?:task|todo|to-do)\s*[:\-]\s*(.+)$`),
	}

	timeMarkerPattern = regexp.MustCompile(`(?i)\b(` +
		`in\s+\d+\s+(?:minute|minutes|hour|hours|day|days)|` +
		`today|tomorrow|tonight|` +
		`next\s+\w+|` +
		`on\s+\w+|` +
		`at\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)?|` +
		`\d{4}-\d{2}-\d{2}|` +
		`\d{1,2}/\d{1,2}(?:/\d{2,4})?` +
		`)\b`)

	wakePrefixPattern   = regexp.MustCompile(`(?i)^hibiki[, ]*`)
	reminderVerbPattern = regexp.MustCompile(`(?i)\b(set|create|add)\s+(a\s+)?reminder\b`)
	remindMePattern     = regexp.MustCompile(`(?i)\bremind me\b`)
	leadingToPattern    = regexp.MustCompile(`(?i)^to\s+`)
	trimEdgesPattern    = regexp.MustCompile(`^[\s,.:;]+|[\s,.:;]+$`)
	leadingArticleRe    = regexp.MustCompile(`(?i)^(the|my|a|an)\s+`)
	targetNoiseRe       = regexp.MustCompile(`(?i)\b(app|application|website|site)\b`)
	multiSpacePattern   = regexp.MustCompile(`\s{2,}`)
	musicPrefLeadRe     = regexp.MustCompile(`(?i)^(my music taste is|remember my music taste is|remember my music|save my music preference|i like|i love)\s*`)
	playLeadPattern     = regexp.MustCompile(`(?i)^play\s*`)
	musicWordPattern    = regexp.MustCompile(`(?i)\bmusic\b`)
	musicPlatformRe     = regexp.MustCompile(`(?i)\bon\s+(youtube|spotify)\b`)
)

func call(name string, args map[string]interface{}) extract.Call {
	if args == nil {
		args = map[string]interface{}{}
	}
	raw, _ := json.Marshal(args)
	return extract.Call{Name: name, Args: raw}
}

// Route matches a command against the deterministic rule chain. It fires only
// for action-intent commands; queries and automations always fall through to
// the resolver. A rule whose mandatory argument cannot be extracted falls
// through rather than dispatching a broken call.
func Route(command string) ([]extract.Call, bool) {
	text := strings.TrimSpace(command)
	lowered := strings.ToLower(text)
	if text == "" {
		return nil, false
	}

	if intent.Classify(text) != intent.Action {
		return nil, false
	}

	for _, p := range []string{"close tab", "close website", "close this website", "close this site", "close browser tab"} {
		if strings.Contains(lowered, p) {
			return []extract.Call{call("close_website", nil)}, true
		}
	}

	if strings.Contains(lowered, "battery") {
		return []extract.Call{call("system_info", map[string]interface{}{"info_type": "battery"})}, true
	}
	if strings.Contains(lowered, "what time") || strings.Contains(lowered, "current time") || lowered == "time" {
		return []extract.Call{call("system_info", map[string]interface{}{"info_type": "time"})}, true
	}
	if strings.Contains(lowered, "wifi") || strings.Contains(lowered, "wi-fi") {
		return []extract.Call{call("system_info", map[string]interface{}{"info_type": "wifi"})}, true
	}
	if strings.Contains(lowered, "disk") || strings.Contains(lowered, "storage") || strings.Contains(lowered, "space left") {
		return []extract.Call{call("system_info", map[string]interface{}{"info_type": "disk"})}, true
	}
	if strings.Contains(lowered, "running apps") || strings.Contains(lowered, "what apps are running") {
		return []extract.Call{call("system_info", map[string]interface{}{"info_type": "running_apps"})}, true
	}

	if listTasksPattern.MatchString(lowered) || strings.Contains(lowered, "what are my tasks") {
		return []extract.Call{call("list_tasks", nil)}, true
	}

	if completeTaskPattern.MatchString(lowered) {
		if m := taskNumberPattern.FindStringSubmatch(lowered); m != nil {
			id, _ := strconv.Atoi(m[1])
			return []extract.Call{call("complete_task", map[string]interface{}{"task_id": id})}, true
		}
	}

	if addTaskPattern.MatchString(lowered) {
		if description := extractTaskDescription(text); description != "" {
			return []extract.Call{call("add_task", map[string]interface{}{"description": description})}, true
		}
	}

	if listRemindersRe.MatchString(lowered) {
		return []extract.Call{call("list_reminders", nil)}, true
	}

	if strings.Contains(lowered, "remind me") || strings.Contains(lowered, "set reminder") ||
		strings.Contains(lowered, "create reminder") || strings.Contains(lowered, "add reminder") {
		if description, timeStr := extractReminderPayload(text); description != "" && timeStr != "" {
			return []extract.Call{call("add_reminder", map[string]interface{}{
				"description": description,
				"time_str":    timeStr,
			})}, true
		}
	}

	for _, p := range []string{"what's on my", "what is on my", "list my", "how many folders", "how many files"} {
		if strings.Contains(lowered, p) {
			return []extract.Call{call("list_contents", map[string]interface{}{"location": detectLocation(lowered)})}, true
		}
	}

	if calls, ok := routeMusic(text, lowered); ok {
		return calls, true
	}

	if openVerbPattern.MatchString(lowered) {
		// File and folder requests carry too much ambiguity for a rule.
		for _, x := range []string{" folder", " file", " document", "directory"} {
			if strings.Contains(lowered, x) {
				return nil, false
			}
		}
		if target := cleanTarget(extractAfterFirst(text, "open ", "launch ", "start ")); target != "" {
			return []extract.Call{routeOpenTarget(target, lowered)}, true
		}
	}

	if closeVerbPattern.MatchString(lowered) {
		for _, w := range []string{"tab", "website", "site", "browser"} {
			if strings.Contains(lowered, w) {
				return []extract.Call{call("close_website", nil)}, true
			}
		}
		target := cleanTarget(extractAfterFirst(text, "close ", "quit ", "exit "))
		if _, generic := genericAppWords[strings.ToLower(target)]; target != "" && !generic {
			return []extract.Call{call("close_app", map[string]interface{}{"app_name": target})}, true
		}
	}

	return nil, false
}

func routeMusic(text, lowered string) ([]extract.Call, bool) {
	prefCues := []string{"my music taste is", "remember my music", "save my music preference"}
	musicWords := []string{"music", "songs", "playlist", "genre", "artist", "lofi", "edm", "jazz", "rock", "pop"}

	hasPrefCue := false
	for _, p := range prefCues {
		if strings.Contains(lowered, p) {
			hasPrefCue = true
			break
		}
	}
	likesMusic := false
	if strings.Contains(lowered, "i like ") || strings.Contains(lowered, "i love ") {
		for _, w := range musicWords {
			if strings.Contains(lowered, w) {
				likesMusic = true
				break
			}
		}
	}
	if hasPrefCue || likesMusic {
		pref := wakePrefixPattern.ReplaceAllString(text, "")
		pref = strings.TrimSpace(musicPrefLeadRe.ReplaceAllString(strings.TrimSpace(pref), ""))
		pref = strings.Trim(pref, " .")
		if pref != "" {
			return []extract.Call{call("set_music_preference", map[string]interface{}{"preference": pref})}, true
		}
	}

	if strings.Contains(lowered, "play") && strings.Contains(lowered, "music") {
		query := wakePrefixPattern.ReplaceAllString(text, "")
		query = playLeadPattern.ReplaceAllString(strings.TrimSpace(query), "")
		query = strings.Trim(musicWordPattern.ReplaceAllString(query, ""), " .")
		query = strings.Trim(musicPlatformRe.ReplaceAllString(query, ""), " .")
		query = strings.TrimSpace(multiSpacePattern.ReplaceAllString(query, " "))

		args := map[string]interface{}{"platform": "spotify"}
		if query != "" && !isFillerQuery(query) {
			args["query"] = query
		}
		if strings.Contains(lowered, "youtube") {
			args["platform"] = "youtube"
		}
		return []extract.Call{call("play_music", args)}, true
	}

	return nil, false
}

func isFillerQuery(query string) bool {
	switch strings.ToLower(query) {
	case "some", "good", "my", "some good", "good music", "some good music", "my music":
		return true
	}
	return false
}

func routeOpenTarget(target, lowered string) extract.Call {
	targetLower := strings.ToLower(target)

	looksLikeURL := false
	for _, x := range []string{"http://", "https://", "www.", ".com", ".org", ".net", ".io", ".co", ".ai"} {
		if strings.Contains(targetLower, x) {
			looksLikeURL = true
			break
		}
	}
	_, knownWebsite := builtin.WebsiteMap[targetLower]
	websiteHint := strings.Contains(lowered, "website") || strings.Contains(lowered, "site") || strings.Contains(lowered, "tab")
	_, knownApp := builtin.AppAliases[targetLower]

	if (looksLikeURL || knownWebsite || websiteHint) && !knownApp {
		return call("open_website", map[string]interface{}{"sites": []string{target}})
	}
	return call("open_app", map[string]interface{}{"app_name": target})
}

func cleanTarget(value string) string {
	cleaned := trimEdgesPattern.ReplaceAllString(value, "")
	cleaned = leadingArticleRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(targetNoiseRe.ReplaceAllString(cleaned, ""))
	return multiSpacePattern.ReplaceAllString(cleaned, " ")
}

func extractAfterFirst(text string, keywords ...string) string {
	lowered := strings.ToLower(text)
	for _, key := range keywords {
		if idx := strings.Index(lowered, key); idx >= 0 {
			return strings.TrimSpace(text[idx+len(key):])
		}
	}
	return ""
}

func detectLocation(lowered string) string {
	for _, loc := range locationWords {
		if strings.Contains(lowered, loc) {
			return loc
		}
	}
	return "desktop"
}

func extractTaskDescription(text string) string {
	for _, pattern := range taskDescPatterns {
		if m := pattern.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
			desc := strings.Trim(multiSpacePattern.ReplaceAllString(m[1], " "), " .")
			if desc != "" {
				return desc
			}
		}
	}
	return ""
}

func extractReminderPayload(text string) (description, timeStr string) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	if !strings.Contains(lower, "remind me") && !strings.Contains(lower, "reminder") {
		return "", ""
	}

	body := wakePrefixPattern.ReplaceAllString(trimmed, "")
	body = strings.TrimSpace(reminderVerbPattern.ReplaceAllString(body, ""))
	body = strings.TrimSpace(remindMePattern.ReplaceAllString(body, ""))
	body = strings.TrimSpace(leadingToPattern.ReplaceAllString(body, ""))
	if body == "" {
		return "", ""
	}

	loc := timeMarkerPattern.FindStringIndex(body)
	if loc == nil {
		return "", ""
	}

	description = strings.Trim(body[:loc[0]], " ,.-")
	timeStr = strings.Trim(body[loc[0]:], " ,.-")
	if description == "" || timeStr == "" {
		return "", ""
	}
	return description, timeStr
}
