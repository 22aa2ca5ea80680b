package transcript

import (
	"regexp"
	"strings"
	"sync"
)

// WakeFilter matches a configured wake word (including common transcription
// misspellings) as a standalone token and extracts the command that follows.
type WakeFilter struct {
	words    []string
	patterns map[string]*regexp.Regexp
	mu       sync.Mutex
}

func NewWakeFilter(words []string) *WakeFilter {
	return &WakeFilter{
		words:    words,
		patterns: make(map[string]*regexp.Regexp, len(words)),
	}
}

// Extract returns the command portion of text when a wake word is present.
// The command is whatever follows the first wake word match, trimmed of
// leading separators. When nothing follows, the full text is returned so the
// utterance still reaches the pipeline. Substring hits inside larger words
// never match.
func (f *WakeFilter) Extract(text string) (string, bool) {
	lowered := strings.ToLower(text)

	for _, word := range f.words {
		re := f.pattern(word)
		loc := re.FindStringIndex(lowered)
		if loc == nil {
			continue
		}

		command := strings.Trim(text[loc[1]:], " ,:.-")
		if command == "" {
			command = strings.TrimSpace(text)
		}
		return command, true
	}

	return "", false
}

func (f *WakeFilter) pattern(word string) *regexp.Regexp {
	f.mu.Lock()
	defer f.mu.Unlock()

	re, ok := f.patterns[word]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(word)) + `\b`)
		f.patterns[word] = re
	}
	return re
}
