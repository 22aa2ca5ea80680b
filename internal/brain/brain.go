// Package brain is the model-assisted resolver: it builds the persona
// prompt, asks a routing sub-call whether tools should run, then makes the
// main completion and hands the raw response to extraction.
package brain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/hibiki/internal/extract"
	"github.com/harunnryd/hibiki/internal/memory"
	"github.com/harunnryd/hibiki/internal/model"
	"github.com/harunnryd/hibiki/internal/model/contract"
	"github.com/harunnryd/hibiki/internal/session"
	"github.com/harunnryd/hibiki/internal/tool"
)

type Config struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	RouteMaxTokens int
	HistoryWindow  int
	RecallLimit    int
	Timeout        time.Duration
}

type Brain struct {
	router   model.ModelRouter
	registry *tool.Registry
	memory   *memory.Manager
	home     string
	cfg      Config
	log      *slog.Logger
}

func New(router model.ModelRouter, registry *tool.Registry, mem *memory.Manager, home string, cfg Config, log *slog.Logger) *Brain {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	if cfg.RouteMaxTokens <= 0 {
		cfg.RouteMaxTokens = 80
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 3
	}
	if cfg.RecallLimit <= 0 {
		cfg.RecallLimit = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Brain{
		router:   router,
		registry: registry,
		memory:   mem,
		home:     home,
		cfg:      cfg,
		log:      log,
	}
}

// Resolve runs the full model path for one command: routing sub-call, main
// completion, then extraction. A transport failure is still handed to
// extraction because provider error text sometimes carries recoverable tool
// calls.
func (b *Brain) Resolve(ctx context.Context, command string, sess *session.Session) (extract.Outcome, Decision) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	decision := b.decideStrategy(ctx, command)

	req := contract.CompletionRequest{
		Messages:    b.buildMessages(ctx, command, decision, sess),
		Tools:       b.registry.Definitions(),
		Temperature: float32(b.cfg.Temperature),
		MaxTokens:   b.cfg.MaxTokens,
	}
	if decision.ShouldUseTools {
		req.ToolChoice = "auto"
	} else {
		req.ToolChoice = "none"
	}

	resp, err := b.router.Route(ctx, b.cfg.Model, req)
	if err != nil {
		b.log.Warn("Completion failed, attempting recovery from error text", "error", err)
		return extract.FromError(err.Error(), b.registry), decision
	}
	return extract.FromResponse(resp, b.registry), decision
}

func (b *Brain) buildMessages(ctx context.Context, command string, decision Decision, sess *session.Session) []contract.Message {
	memoryContext := ""
	if b.memory != nil {
		memoryContext = b.memory.ContextBlock()
		if block := b.recallBlock(ctx, command); block != "" {
			if memoryContext != "" {
				memoryContext += "\n"
			}
			memoryContext += block
		}
	}

	messages := []contract.Message{
		{
			Role:    "system",
			Content: BuildSystemPrompt(b.registry.Definitions(), memoryContext, RuntimeContext(b.home)),
		},
		{
			Role: "system",
			Content: fmt.Sprintf(
				"ROUTER_DECISION intent=%s should_use_tools=%t. Follow the intent algorithm exactly.",
				decision.Intent, decision.ShouldUseTools,
			),
		},
	}

	if sess != nil {
		for _, turn := range sess.History.Recent(b.cfg.HistoryWindow) {
			messages = append(messages,
				contract.Message{Role: "user", Content: turn.User},
				contract.Message{Role: "assistant", Content: turn.Clean},
			)
		}
	}

	return append(messages, contract.Message{Role: "user", Content: command})
}

// recallBlock pulls semantically similar facts for the current command.
// Recall failures degrade to the profile context alone.
func (b *Brain) recallBlock(ctx context.Context, command string) string {
	recalled, err := b.memory.Recall(ctx, command, b.cfg.RecallLimit)
	if err != nil {
		b.log.Warn("Memory recall failed", "error", err)
		return ""
	}
	if len(recalled) == 0 {
		return ""
	}
	lines := make([]string, 0, len(recalled)+1)
	lines = append(lines, "Possibly relevant memories:")
	for _, r := range recalled {
		lines = append(lines, "- "+r.Content)
	}
	return strings.Join(lines, "\n")
}
