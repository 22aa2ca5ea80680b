package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/harunnryd/hibiki/internal/tool"
)

type SetMusicPreference struct {
	env *Env
}

func (t *SetMusicPreference) Name() string { return "set_music_preference" }

func (t *SetMusicPreference) Description() string {
	return "Save the user's music preference/persona (favorite genre, artist, or vibe)."
}

func (t *SetMusicPreference) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"preference": map[string]interface{}{
			"type":        "string",
			"description": "Music taste text, e.g. 'lofi and chillhop', 'Arijit Singh', 'EDM gym mix'",
		},
	}, "preference")
}

func (t *SetMusicPreference) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		Preference string `json:"preference"`
	}
	if err := json.Unmarshal(input, &args); err != nil || strings.TrimSpace(args.Preference) == "" {
		return tool.Fail("Please provide a music preference to save.")
	}

	value := strings.TrimSpace(args.Preference)
	if err := t.env.Memory.SetPreference("music", value); err != nil {
		return tool.Fail(fmt.Sprintf("Could not save preference: %v", err))
	}

	return tool.OkData(fmt.Sprintf("Saved your music preference: %s", value), map[string]interface{}{
		"preference": value,
	})
}

type PlayMusic struct {
	env *Env
}

func (t *PlayMusic) Name() string { return "play_music" }

func (t *PlayMusic) Description() string {
	return "Play music using user's saved preference or a requested vibe/artist/song."
}

func (t *PlayMusic) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "Optional song/artist/genre or vibe, e.g. 'lofi', 'Arijit Singh', 'workout'.",
		},
		"platform": map[string]interface{}{
			"type":        "string",
			"enum":        []interface{}{"spotify", "youtube"},
			"description": "Where to play music from. Default is spotify.",
		},
	})
}

func (t *PlayMusic) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	var args struct {
		Query    string `json:"query"`
		Platform string `json:"platform"`
	}
	json.Unmarshal(input, &args)

	platform := strings.ToLower(strings.TrimSpace(args.Platform))
	if platform != "youtube" {
		platform = "spotify"
	}

	requested := strings.TrimSpace(args.Query)
	chosen := requested
	if chosen == "" {
		chosen = t.savedPreference()
	}
	if chosen == "" {
		chosen = "top hits"
	}

	var playURL string
	if platform == "youtube" {
		playURL = "https://www.youtube.com/results?search_query=" + url.QueryEscape(chosen+" music")
	} else {
		playURL = "https://open.spotify.com/search/" + strings.ReplaceAll(url.PathEscape(chosen), "%2F", "/")
	}

	if err := t.env.openURL(ctx, playURL); err != nil {
		return tool.Fail(fmt.Sprintf("Could not play music: %v", err))
	}
	t.env.Tabs.Push(playURL)

	phrasing := "for your request"
	if requested == "" && t.savedPreference() != "" {
		phrasing = "using your saved preference"
	}
	return tool.OkData(fmt.Sprintf("Playing music %s: %s", phrasing, chosen), map[string]interface{}{
		"query":    chosen,
		"platform": platform,
		"url":      playURL,
	})
}

func (t *PlayMusic) savedPreference() string {
	data, err := t.env.Memory.Load()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(data.Preferences["music"])
}
