package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Gateway executes tool calls against the registry. It never propagates a
// fault to the dispatcher: unknown tools, invalid arguments, and panics all
// collapse into a failed Result.
type Gateway struct {
	registry *Registry
	log      *slog.Logger
}

func NewGateway(registry *Registry, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{registry: registry, log: log}
}

func (g *Gateway) Registry() *Registry { return g.registry }

func (g *Gateway) Execute(ctx context.Context, name string, args json.RawMessage) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("Tool panicked", "tool", name, "panic", r)
			result = Fail(fmt.Sprintf("error executing %s: internal failure", name))
		}
	}()

	t, ok := g.registry.Get(name)
	if !ok {
		return Fail(fmt.Sprintf("Unknown tool: %s", name))
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if err := ValidateInput(t.Parameters(), args); err != nil {
		return Fail(fmt.Sprintf("Invalid arguments for %s: %v", name, err))
	}

	g.log.Info("Executing tool", "tool", name)
	result = t.Execute(ctx, args)
	if result.Success {
		g.log.Info("Tool succeeded", "tool", name, "message", result.Message)
	} else {
		g.log.Warn("Tool failed", "tool", name, "message", result.Message)
	}
	return result
}
