// Package dispatch is the runtime's main loop. Every input lane converges
// here: adapter events drain from the inbound queue, voice transcripts come
// from the recordings poller, and each command runs through the same layered
// pipeline before a single reply goes back out.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/hibiki/internal/adapter"
	"github.com/harunnryd/hibiki/internal/brain"
	"github.com/harunnryd/hibiki/internal/extract"
	"github.com/harunnryd/hibiki/internal/ingress"
	"github.com/harunnryd/hibiki/internal/logger"
	"github.com/harunnryd/hibiki/internal/memory"
	"github.com/harunnryd/hibiki/internal/respond"
	"github.com/harunnryd/hibiki/internal/router"
	"github.com/harunnryd/hibiki/internal/session"
	"github.com/harunnryd/hibiki/internal/tool"
	"github.com/harunnryd/hibiki/internal/transcript"
	"github.com/harunnryd/hibiki/internal/voice"
)

// voiceSessionID is the single local voice lane; transcripts have no channel
// identity of their own.
const voiceSessionID = "primary"

// Resolver is the model-assisted path of the pipeline. It runs only after
// the voice-command handler and the fast router have both declined.
type Resolver interface {
	Resolve(ctx context.Context, command string, sess *session.Session) (extract.Outcome, brain.Decision)
}

type Config struct {
	LoopInterval time.Duration
}

// Deps carries everything the kernel wires together. Source, Wake, Speaker,
// Memory and Resolver may each be nil; the corresponding pipeline stage is
// then skipped.
type Deps struct {
	Queue    *ingress.Queue
	Source   *transcript.Source
	Wake     *transcript.WakeFilter
	Sessions *session.Manager
	Speaker  *voice.Speaker
	Resolver Resolver
	Gateway  *tool.Gateway
	Memory   *memory.Manager
	Senders  map[string]adapter.OutputAdapter
	Log      *slog.Logger
}

// Kernel owns the dispatch loop. All session state is touched from the loop
// goroutine only.
type Kernel struct {
	queue    *ingress.Queue
	source   *transcript.Source
	wake     *transcript.WakeFilter
	sessions *session.Manager
	speaker  *voice.Speaker
	resolver Resolver
	gateway  *tool.Gateway
	memory   *memory.Manager
	senders  map[string]adapter.OutputAdapter
	cfg      Config
	log      *slog.Logger
}

func New(deps Deps, cfg Config) *Kernel {
	if cfg.LoopInterval <= 0 {
		cfg.LoopInterval = 300 * time.Millisecond
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	senders := deps.Senders
	if senders == nil {
		senders = make(map[string]adapter.OutputAdapter)
	}
	return &Kernel{
		queue:    deps.Queue,
		source:   deps.Source,
		wake:     deps.Wake,
		sessions: deps.Sessions,
		speaker:  deps.Speaker,
		resolver: deps.Resolver,
		gateway:  deps.Gateway,
		memory:   deps.Memory,
		senders:  senders,
		cfg:      cfg,
		log:      log,
	}
}

// EventHandler returns the callback adapters use to submit inbound events.
func (k *Kernel) EventHandler() adapter.EventHandler {
	return func(ctx context.Context, source, eventType, sessionID, content string, metadata map[string]string) error {
		evt := ingress.NewEvent(source, ingress.EventType(eventType), sessionID, content, metadata)
		return k.queue.Submit(ctx, evt)
	}
}

// Run drives the loop until the context is cancelled.
func (k *Kernel) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.cfg.LoopInterval)
	defer ticker.Stop()

	k.log.Info("Dispatch loop started", "interval", k.cfg.LoopInterval)
	for {
		select {
		case <-ctx.Done():
			k.log.Info("Dispatch loop stopped")
			return ctx.Err()
		case <-ticker.C:
			k.Tick(ctx)
		}
	}
}

// Tick runs one loop iteration: drain the inbound queue, then poll the
// transcript source.
func (k *Kernel) Tick(ctx context.Context) {
	for {
		evt, ok := k.queue.Poll()
		if !ok {
			break
		}
		k.handleEvent(ctx, evt)
	}
	k.pollTranscript(ctx)
}

// Notify queues an out-of-band line, such as a fired reminder, for delivery
// to every active lane. It satisfies the scheduler's notifier contract and is
// safe to call from any goroutine: the broadcast itself happens on the loop
// goroutine, which owns all session state.
func (k *Kernel) Notify(ctx context.Context, text string) {
	evt := ingress.NewEvent("scheduler", ingress.TypeReminder, "", text, nil)
	if err := k.queue.Submit(ctx, evt); err != nil {
		k.log.Warn("Dropped notification", "error", err)
	}
}

// noticer marks adapters that render out-of-band lines distinctly from
// assistant replies.
type noticer interface {
	Notice(content string)
}

func (k *Kernel) broadcast(ctx context.Context, text string) {
	k.log.Warn(text)
	if k.speaker != nil {
		k.speaker.Speak(ctx, text)
	}
	for _, sess := range k.sessions.Sessions() {
		sender, ok := k.senders[sess.Source]
		if !ok {
			continue
		}
		if n, ok := sender.(noticer); ok {
			n.Notice(text)
			continue
		}
		if err := sender.Send(ctx, sess.ID, text); err != nil {
			k.log.Error("Failed to deliver notification", "source", sess.Source, "error", err)
		}
	}
}

func (k *Kernel) handleEvent(ctx context.Context, evt ingress.Event) {
	ctx = logger.WithTraceID(ctx, evt.ID)
	ctx = logger.WithSessionID(ctx, evt.SessionID)

	switch evt.Type {
	case ingress.TypeCommand:
		reply := k.handleSlashCommand(ctx, evt.Content)
		k.deliver(ctx, evt.Source, evt.SessionID, reply)
	case ingress.TypeUserMessage:
		k.log.Info("Processing command", "source", evt.Source, "trace_id", evt.ID)
		reply := k.handleCommand(ctx, evt.Source, evt.SessionID, evt.Content)
		k.deliver(ctx, evt.Source, evt.SessionID, reply)
	case ingress.TypeReminder, ingress.TypeSystemEvent:
		k.broadcast(ctx, evt.Content)
	}
}

// pollTranscript feeds the voice lane: newest finalized utterance through the
// wake filter, then both duplicate guards, then the pipeline. The detection
// guard drops re-emitted transcripts of the same utterance; the dispatch
// guard drops repeated command bursts from rewritten transcription files.
func (k *Kernel) pollTranscript(ctx context.Context) {
	if k.source == nil || k.wake == nil {
		return
	}

	utt, ok := k.source.Poll()
	if !ok {
		return
	}

	text := strings.TrimSpace(utt.Text)
	command, hit := k.wake.Extract(text)
	if !hit {
		k.log.Info("Ignored transcript", "text", text)
		return
	}

	sess := k.sessions.Get("voice", voiceSessionID)

	detectionKey := session.Normalize(text)
	if sess.DetectionGuard.ShouldSuppress(detectionKey) {
		return
	}

	k.log.Info("Wake word detected")
	k.log.Info("Transcript", "text", text)

	command = strings.TrimSpace(command)
	if command == "" {
		sess.DetectionGuard.Record(detectionKey)
		return
	}

	dispatchKey := session.DispatchKey(command, utt.Dir)
	if sess.DispatchGuard.ShouldSuppress(dispatchKey) {
		k.log.Warn("Skipped duplicate command burst.")
		return
	}

	k.log.Info("Processing command", "source", "voice")
	reply := k.handleCommand(ctx, "voice", voiceSessionID, command)

	sess.DetectionGuard.Record(detectionKey)
	sess.DispatchGuard.Record(dispatchKey)

	k.deliver(ctx, "voice", voiceSessionID, reply)
}

// handleCommand runs the layered pipeline: voice-management phrases, then the
// deterministic fast router, then the model-assisted resolver.
func (k *Kernel) handleCommand(ctx context.Context, source, sessionID, command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		return ""
	}

	sess := k.sessions.Get(source, sessionID)

	if handled, reply := voice.HandleVoiceCommand(command, k.speaker); handled {
		sess.History.Append(session.Turn{User: command, Assistant: reply, Clean: reply, At: time.Now()})
		return reply
	}

	if calls, ok := router.Route(command); ok && len(calls) > 0 {
		return k.runCalls(ctx, sess, command, calls)
	}

	if k.resolver == nil {
		return "AI responses are not configured."
	}

	outcome, _ := k.resolver.Resolve(ctx, command, sess)
	switch outcome.Kind {
	case extract.ParsedCalls:
		return k.runCalls(ctx, sess, command, outcome.Calls)
	case extract.TransportError:
		k.log.Error("Resolver failed", "detail", outcome.Raw)
		return respond.ProcessingFailure
	default:
		text := strings.TrimSpace(outcome.Text)
		if text == "" {
			return respond.ProcessingFailure
		}
		if k.memory != nil {
			k.memory.Learn(ctx, command)
		}
		sess.History.Append(session.Turn{User: command, Assistant: text, Clean: text, At: time.Now()})
		return text
	}
}

// runCalls executes tool calls sequentially. Each call gets a rotating
// confirmation, the gateway result decides the spoken line, and every
// outcome lands in history so the next model turn has full context.
func (k *Kernel) runCalls(ctx context.Context, sess *session.Session, command string, calls []extract.Call) string {
	calls = extract.Dedup(calls)

	if len(calls) > 1 {
		summary := respond.MultiActionSummary(len(calls))
		sess.History.Append(session.Turn{User: command, Assistant: summary, Clean: summary, At: time.Now()})
	}

	var lines []string
	for _, c := range calls {
		confirmation := c.Confirmation
		if confirmation == "" {
			confirmation = respond.Confirmation(sess.ConfirmCount, c.Name, c.Args)
		}
		sess.ConfirmCount++

		result := k.gateway.Execute(ctx, c.Name, c.Args)
		line := respond.Spoken(c.Name, confirmation, result)
		lines = append(lines, line)

		sess.History.Append(session.Turn{
			User:      command,
			Assistant: line,
			Clean:     line,
			ToolRecord: &session.ToolRecord{
				Names:   []string{c.Name},
				Success: result.Success,
				Message: result.Message,
			},
			At: time.Now(),
		})
	}

	if len(lines) == 0 {
		return "Done."
	}
	return strings.Join(lines, " ")
}

// handleSlashCommand covers the typed command palette. Abbreviated forms of
// /voice are accepted because palettes autocomplete mid-word.
func (k *Kernel) handleSlashCommand(ctx context.Context, line string) string {
	name, args, ok := adapter.ParseSlashCommand(line)
	if !ok {
		return ""
	}

	switch name {
	case "voice", "v", "vo", "voi", "voic":
		if len(args) == 0 || args[0] == "list" || args[0] == "show" {
			return voice.FormatVoiceList() + ` Use "/voice <name or code>" to switch.`
		}
		code := voice.ExtractVoiceCode(strings.Join(args, " "))
		if code == "" {
			return "Unknown voice. " + voice.FormatVoiceList()
		}
		if k.speaker != nil {
			if err := k.speaker.SetVoice(code); err != nil {
				return "Unknown voice. " + voice.FormatVoiceList()
			}
		}
		return fmt.Sprintf("Yes, voice is set to %s. Now I am speaking in that voice.", voice.NameFor(code))
	case "tasks":
		result := k.gateway.Execute(ctx, "list_tasks", json.RawMessage(`{}`))
		if !result.Success {
			return respond.Failure(result.Message)
		}
		return respond.Natural("list_tasks", result)
	case "help":
		return "Commands: /voice, /voice list, /voice <name or code>, /tasks"
	default:
		return "Unknown command. Type /help"
	}
}

func (k *Kernel) deliver(ctx context.Context, source, sessionID, reply string) {
	if strings.TrimSpace(reply) == "" {
		return
	}
	if sender, ok := k.senders[source]; ok {
		if err := sender.Send(ctx, sessionID, reply); err != nil {
			k.log.Error("Failed to deliver reply", "source", source, "error", err)
		}
	}
	if k.speaker != nil && (source == "voice" || source == "console") {
		k.speaker.Speak(ctx, reply)
	}
}
