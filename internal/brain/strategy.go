package brain

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/harunnryd/hibiki/internal/intent"
	"github.com/harunnryd/hibiki/internal/model/contract"
)

// Decision is the routing verdict for one command: what kind of turn it is
// and whether the main completion may call tools.
type Decision struct {
	Intent         intent.Intent
	ShouldUseTools bool
}

const routerSystemPrompt = "You are an intent router for a voice assistant. " +
	"Decide if the user wants explanation text or immediate execution. " +
	"Return STRICT JSON only with keys: intent, should_use_tools. " +
	"intent must be one of query, action, automation. " +
	"For questions like 'which command should I use', set should_use_tools=false. " +
	"For direct requests like 'open capcut' or polite requests like 'can you open capcut?', " +
	"set should_use_tools=true."

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// decideStrategy asks the model whether this turn should execute tools. Any
// failure, including unparseable output, falls back to the local heuristic so
// routing never blocks a command.
func (b *Brain) decideStrategy(ctx context.Context, command string) Decision {
	fallback := intent.Classify(command)
	decision := Decision{
		Intent:         fallback,
		ShouldUseTools: intent.ShouldUseTools(fallback),
	}

	resp, err := b.router.Route(ctx, b.cfg.Model, contract.CompletionRequest{
		Messages: []contract.Message{
			{Role: "system", Content: routerSystemPrompt},
			{Role: "user", Content: command},
		},
		Temperature: 0,
		MaxTokens:   b.cfg.RouteMaxTokens,
	})
	if err != nil || resp == nil {
		return decision
	}

	parsed, ok := parseDecisionJSON(resp.Content)
	if !ok {
		return decision
	}

	if i, ok := parseIntent(parsed.Intent); ok {
		decision.Intent = i
	}
	if parsed.ShouldUseTools != nil {
		decision.ShouldUseTools = coerceBool(parsed.ShouldUseTools)
	}
	return decision
}

type rawDecision struct {
	Intent         string      `json:"intent"`
	ShouldUseTools interface{} `json:"should_use_tools"`
}

func parseDecisionJSON(content string) (rawDecision, bool) {
	var parsed rawDecision
	trimmed := strings.TrimSpace(content)
	if json.Unmarshal([]byte(trimmed), &parsed) == nil {
		return parsed, true
	}
	if m := jsonObjectPattern.FindString(trimmed); m != "" {
		if json.Unmarshal([]byte(m), &parsed) == nil {
			return parsed, true
		}
	}
	return rawDecision{}, false
}

func parseIntent(s string) (intent.Intent, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "query":
		return intent.Query, true
	case "action":
		return intent.Action, true
	case "automation":
		return intent.Automation, true
	}
	return "", false
}

func coerceBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1":
			return true
		}
		return false
	case float64:
		return val != 0
	}
	return false
}
