package tool

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/harunnryd/hibiki/internal/model/contract"
)

// Result is the uniform envelope every tool returns. A failed action is a
// value, not a fault: Success=false carries a human-readable message and the
// dispatcher keeps going.
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func Ok(message string) Result {
	return Result{Success: true, Message: message}
}

func OkData(message string, data map[string]interface{}) Result {
	return Result{Success: true, Message: message, Data: data}
}

func Fail(message string) Result {
	return Result{Success: false, Message: message}
}

// Tool represents an executable capability offered to the resolver.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, input json.RawMessage) Result
}

// Registry holds all available tools.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	name := NormalizeToolName(t.Name())
	if name == "" {
		panic("tool: empty tool name")
	}

	r.tools[name] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[NormalizeToolName(name)]
	return t, ok
}

// Known reports whether name is a registered tool. Used by the inline-tag
// extraction fallback to reject unrecognized tags.
func (r *Registry) Known(name string) bool {
	_, ok := r.tools[NormalizeToolName(name)]
	return ok
}

// HasRequiredParams reports whether the tool declares any required
// parameters. Empty-tag calls are only accepted for tools without them.
func (r *Registry) HasRequiredParams(name string) bool {
	t, ok := r.Get(name)
	if !ok {
		return false
	}
	required, ok := t.Parameters()["required"]
	if !ok {
		return false
	}
	switch v := required.(type) {
	case []interface{}:
		return len(v) > 0
	case []string:
		return len(v) > 0
	default:
		return false
	}
}

// Definitions returns the tool catalog sorted by name, in the shape the
// completion providers expect.
func (r *Registry) Definitions() []contract.ToolDef {
	names := r.Names()
	defs := make([]contract.ToolDef, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, contract.ToolDef{
			Name:        name,
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NormalizeToolName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
