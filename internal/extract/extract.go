// Package extract normalizes completion-service output into a uniform tool
// call list. Three independent strategies run in order: native structured
// calls, inline tag syntax in plain text, and best-effort recovery from
// provider error strings. Downstream code never cares which one fired.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/harunnryd/hibiki/internal/model/contract"
)

// Kind classifies what the resolver produced.
type Kind int

const (
	// NoCalls means the response is plain assistant text.
	NoCalls Kind = iota
	// ParsedCalls means at least one tool call was recovered.
	ParsedCalls
	// TransportError means the completion call itself failed and nothing
	// could be salvaged from the error text.
	TransportError
)

// Call is one normalized tool invocation.
type Call struct {
	Name         string
	Args         json.RawMessage
	Confirmation string
}

// Outcome is the uniform result of running the strategy chain.
type Outcome struct {
	Kind  Kind
	Calls []Call
	Text  string
	Raw   string
}

// Catalog is the subset of the tool registry the extractor needs.
type Catalog interface {
	Known(name string) bool
	HasRequiredParams(name string) bool
}

var (
	inlineTagPattern = regexp.MustCompile(`(?s)<([a-zA-Z_][a-zA-Z0-9_]*)>\s*(\{.*?\})\s*</([a-zA-Z_][a-zA-Z0-9_]*)>`)
	emptyTagPattern  = regexp.MustCompile(`<([a-zA-Z_][a-zA-Z0-9_]*)>\s*</([a-zA-Z_][a-zA-Z0-9_]*)>`)
	errorCallPattern = regexp.MustCompile(`(?s)<function=([a-zA-Z_][a-zA-Z0-9_]*)>\s*(\{.*?\})\s*<function>`)
)

var emptyArgs = json.RawMessage(`{}`)

// FromResponse applies strategy one (native calls) then strategy two (inline
// tags) to a completion response.
func FromResponse(resp *contract.CompletionResponse, catalog Catalog) Outcome {
	if resp == nil {
		return Outcome{Kind: NoCalls}
	}

	if len(resp.ToolCalls) > 0 {
		calls := make([]Call, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			calls = append(calls, Call{
				Name: tc.Name,
				Args: decodeArgs(tc.Input),
			})
		}
		return Outcome{Kind: ParsedCalls, Calls: Dedup(calls), Text: resp.Content}
	}

	if calls := fromInlineTags(resp.Content, catalog); len(calls) > 0 {
		return Outcome{Kind: ParsedCalls, Calls: Dedup(calls), Text: resp.Content}
	}

	return Outcome{Kind: NoCalls, Text: resp.Content}
}

// FromError applies strategy three: salvage tool calls embedded in a
// provider error string. An empty result means the whole chain failed.
func FromError(errText string, catalog Catalog) Outcome {
	var calls []Call
	for _, m := range errorCallPattern.FindAllStringSubmatch(errText, -1) {
		name := m[1]
		if !catalog.Known(name) {
			continue
		}
		calls = append(calls, Call{Name: name, Args: decodeArgs(m[2])})
	}
	if len(calls) > 0 {
		return Outcome{Kind: ParsedCalls, Calls: Dedup(calls), Raw: errText}
	}
	return Outcome{Kind: TransportError, Raw: errText}
}

func fromInlineTags(text string, catalog Catalog) []Call {
	var calls []Call

	for _, m := range inlineTagPattern.FindAllStringSubmatch(text, -1) {
		open, body, closing := m[1], m[2], m[3]
		if open != closing || !catalog.Known(open) {
			continue
		}
		calls = append(calls, Call{Name: open, Args: decodeArgs(body)})
	}

	// Degenerate <name></name> form, accepted only for tools that need no
	// arguments.
	for _, m := range emptyTagPattern.FindAllStringSubmatch(text, -1) {
		open, closing := m[1], m[2]
		if open != closing || !catalog.Known(open) {
			continue
		}
		if catalog.HasRequiredParams(open) {
			continue
		}
		calls = append(calls, Call{Name: open, Args: emptyArgs})
	}

	return calls
}

// decodeArgs validates the argument payload; malformed JSON degrades to an
// empty object instead of failing the call.
func decodeArgs(raw string) json.RawMessage {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return emptyArgs
	}
	var probe map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return emptyArgs
	}
	return json.RawMessage(raw)
}

// Dedup collapses calls with identical name and canonically equal arguments.
// The first occurrence wins; order is otherwise preserved.
func Dedup(calls []Call) []Call {
	seen := make(map[string]struct{}, len(calls))
	out := make([]Call, 0, len(calls))
	for _, c := range calls {
		key := c.Name + "|" + canonicalJSON(c.Args)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func canonicalJSON(raw json.RawMessage) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	canon, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(canon)
}
