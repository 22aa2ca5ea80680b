package session

import "time"

// ToolRecord captures the outcome of the tool calls behind an assistant turn.
type ToolRecord struct {
	Names   []string `json:"names"`
	Success bool     `json:"success"`
	Message string   `json:"message"`
}

// Turn is one exchange between the user and the assistant.
type Turn struct {
	User       string      `json:"user"`
	Assistant  string      `json:"assistant"`
	Clean      string      `json:"clean"` // assistant text with tool tags stripped
	ToolRecord *ToolRecord `json:"tool_record,omitempty"`
	At         time.Time   `json:"at"`
}

// History is a bounded FIFO of conversation turns. It is owned by the
// dispatch loop and never accessed concurrently.
type History struct {
	limit int
	turns []Turn
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 1
	}
	return &History{limit: limit}
}

// Append adds a turn, evicting the oldest once the limit is reached.
func (h *History) Append(turn Turn) {
	h.turns = append(h.turns, turn)
	if len(h.turns) > h.limit {
		h.turns = h.turns[len(h.turns)-h.limit:]
	}
}

// Recent returns the last n turns, oldest first.
func (h *History) Recent(n int) []Turn {
	if n <= 0 || len(h.turns) == 0 {
		return nil
	}
	if n > len(h.turns) {
		n = len(h.turns)
	}
	out := make([]Turn, n)
	copy(out, h.turns[len(h.turns)-n:])
	return out
}

// All returns the full retained history, oldest first.
func (h *History) All() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len reports the number of retained turns.
func (h *History) Len() int {
	return len(h.turns)
}
