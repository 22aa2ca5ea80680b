package builtin

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// WebsiteMap resolves spoken website names (and common transcription typos)
// to URLs.
var WebsiteMap = map[string]string{
	"youtube":   "https://youtube.com",
	"instagram": "https://instagram.com",
	"facebook":  "https://facebook.com",
	"twitter":   "https://twitter.com",
	"x":         "https://x.com",
	"reddit":    "https://reddit.com",
	"github":    "https://github.com",
	"gmail":     "https://gmail.com",
	"google":    "https://google.com",
	"linkedin":  "https://linkedin.com",
	"netflix":   "https://netflix.com",
	"spotify":   "https://spotify.com",
	"amazon":    "https://amazon.com",
	"whatsapp":  "https://web.whatsapp.com",
	"chatgpt":   "https://chatgpt.com",
	"chat gpt":  "https://chatgpt.com",
	"chat gbt":  "https://chatgpt.com",
	"notion":    "https://notion.so",
	"figma":     "https://figma.com",
	"pinterest": "https://pinterest.com",
	"pin":       "https://pinterest.com",
}

// AppAliases maps spoken app names to their installed application names.
var AppAliases = map[string]string{
	"chrome":             "Google Chrome",
	"google chrome":      "Google Chrome",
	"vscode":             "Visual Studio Code",
	"vs code":            "Visual Studio Code",
	"code":               "Visual Studio Code",
	"finder":             "Finder",
	"safari":             "Safari",
	"notes":              "Notes",
	"calculator":         "Calculator",
	"terminal":           "Terminal",
	"spotify":            "Spotify",
	"slack":              "Slack",
	"discord":            "Discord",
	"whatsapp":           "WhatsApp",
	"telegram":           "Telegram",
	"messages":           "Messages",
	"mail":               "Mail",
	"music":              "Music",
	"photos":             "Photos",
	"preview":            "Preview",
	"pages":              "Pages",
	"numbers":            "Numbers",
	"keynote":            "Keynote",
	"xcode":              "Xcode",
	"iterm":              "iTerm",
	"iterm2":             "iTerm",
	"brave":              "Brave Browser",
	"firefox":            "Firefox",
	"arc":                "Arc",
	"notion":             "Notion",
	"figma":              "Figma",
	"zoom":               "zoom.us",
	"teams":              "Microsoft Teams",
	"word":               "Microsoft Word",
	"excel":              "Microsoft Excel",
	"powerpoint":         "Microsoft PowerPoint",
	"calendar":           "Calendar",
	"reminders":          "Reminders",
	"maps":               "Maps",
	"weather":            "Weather",
	"settings":           "System Settings",
	"system preferences": "System Settings",
	"system settings":    "System Settings",
	"activity monitor":   "Activity Monitor",
	"app store":          "App Store",
	"capcut":             "CapCut",
	"cap cut":            "CapCut",
}

// PathShortcuts maps spoken location names to directories under the user's
// home.
func PathShortcuts(home string) map[string]string {
	return map[string]string{
		"desktop":   filepath.Join(home, "Desktop"),
		"downloads": filepath.Join(home, "Downloads"),
		"documents": filepath.Join(home, "Documents"),
		"home":      home,
		"pictures":  filepath.Join(home, "Pictures"),
		"movies":    filepath.Join(home, "Movies"),
		"music":     filepath.Join(home, "Music"),
	}
}

// NormalizeURL turns a website name or partial URL into a full URL. Unknown
// names without a dot degrade to a web search.
func NormalizeURL(site string) string {
	lowered := strings.ToLower(strings.TrimSpace(site))

	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		return site
	}
	if strings.HasPrefix(lowered, "www.") {
		return "https://" + lowered
	}

	if mapped, ok := WebsiteMap[lowered]; ok {
		return mapped
	}
	for key, mapped := range WebsiteMap {
		if strings.Contains(lowered, key) || strings.Contains(key, lowered) {
			return mapped
		}
	}

	if strings.Contains(site, ".") {
		return "https://" + site
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(site)
}

// ResolveLocation maps user-supplied location text onto an absolute path.
func ResolveLocation(home, location, fallback string) string {
	raw := strings.TrimSpace(location)
	if raw == "" {
		raw = fallback
	}

	shortcuts := PathShortcuts(home)
	mapped, ok := shortcuts[strings.ToLower(raw)]
	if !ok {
		mapped = raw
	}
	if strings.HasPrefix(mapped, "~") {
		mapped = filepath.Join(home, strings.TrimPrefix(mapped, "~"))
	}
	if !filepath.IsAbs(mapped) {
		mapped = filepath.Join(home, mapped)
	}

	if _, err := os.Stat(mapped); err == nil {
		return mapped
	}

	// The resolver sometimes hallucinates another user's home path like
	// /Users/Name/Desktop/Folder; rebase it onto the real desktop.
	if idx := strings.Index(mapped, "/Desktop"); idx >= 0 {
		tail := strings.TrimPrefix(mapped[idx+len("/Desktop"):], "/")
		candidate := filepath.Join(home, "Desktop", tail)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return mapped
}

// displayPath abbreviates the home directory for spoken responses.
func displayPath(home, path string) string {
	if home != "" && strings.HasPrefix(path, home) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}
