package intent

import (
	"regexp"
	"strings"
)

// Intent classes for an inbound command.
//
// Query asks for explanation or information and does not want execution.
// Action requests immediate execution of one concrete task.
// Automation requests a multi-step flow or routine.
type Intent string

const (
	Query      Intent = "query"
	Action     Intent = "action"
	Automation Intent = "automation"
)

var automationCues = []string{
	"and then", "after that", "routine", "workflow", "sequence",
}

var actionVerbs = []string{
	"open", "close", "quit", "launch", "start", "create", "list",
	"add", "set", "complete", "remind", "schedule", "play",
}

var politeActionPrefixes = []string{
	"can you ", "could you ", "would you ", "please ",
}

var queryPrefixes = []string{
	"what", "which", "how", "why", "when", "where",
	"can you explain", "tell me", "help me understand",
}

var queryCues = []string{
	"what command", "which command", "how do i", "how to",
	"what should i", "explain", "difference between",
}

var verbPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(actionVerbs))
	for _, v := range actionVerbs {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(v)+`\b`))
	}
	return patterns
}()

func containsActionVerb(text string) bool {
	for _, p := range verbPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Classify maps free-form command text to an intent class using layered
// heuristics. Empty input classifies as Query.
func Classify(command string) Intent {
	text := strings.ToLower(strings.TrimSpace(command))
	if text == "" {
		return Query
	}

	for _, cue := range automationCues {
		if strings.Contains(text, cue) {
			return Automation
		}
	}

	for _, prefix := range politeActionPrefixes {
		if strings.HasPrefix(text, prefix) && containsActionVerb(text) {
			return Action
		}
	}

	// Interrogative openers win over the trailing question mark below:
	// "how do i close terminal?" asks about closing, it does not request it.
	for _, prefix := range queryPrefixes {
		if strings.HasPrefix(text, prefix) {
			return Query
		}
	}

	for _, cue := range queryCues {
		if strings.Contains(text, cue) {
			return Query
		}
	}

	if strings.HasSuffix(text, "?") {
		if containsActionVerb(text) {
			return Action
		}
		return Query
	}

	return Action
}

// ShouldUseTools reports whether a command with the given intent should be
// offered the tool catalog. Queries are answered in plain text.
func ShouldUseTools(i Intent) bool {
	return i != Query
}
