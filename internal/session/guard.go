package session

import (
	"strings"
	"time"
)

// Guard suppresses repeats of the same normalized key within a window.
// Checking and recording are separate so that a suppressed repeat never
// extends the window.
type Guard struct {
	gap     time.Duration
	lastKey string
	lastAt  time.Time
	now     func() time.Time
}

func NewGuard(gap time.Duration) *Guard {
	return &Guard{gap: gap, now: time.Now}
}

// ShouldSuppress reports whether key matches the last recorded key within the
// guard window. It never mutates guard state.
func (g *Guard) ShouldSuppress(key string) bool {
	if key == "" || g.lastKey == "" {
		return false
	}
	return key == g.lastKey && g.now().Sub(g.lastAt) < g.gap
}

// Record marks key as the most recent genuine occurrence.
func (g *Guard) Record(key string) {
	g.lastKey = key
	g.lastAt = g.now()
}

// Normalize produces the comparison key for guard checks: lowercased,
// whitespace collapsed, trailing punctuation removed.
func Normalize(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	joined := strings.Join(fields, " ")
	return strings.TrimRight(joined, ".!?,;: ")
}

// DispatchKey combines a normalized command with the source identity so the
// same words spoken in different contexts are not conflated.
func DispatchKey(command, sourceID string) string {
	return Normalize(command) + "|" + sourceID
}
