package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harunnryd/hibiki/internal/adapter"
	"github.com/harunnryd/hibiki/internal/brain"
	"github.com/harunnryd/hibiki/internal/extract"
	"github.com/harunnryd/hibiki/internal/ingress"
	"github.com/harunnryd/hibiki/internal/respond"
	"github.com/harunnryd/hibiki/internal/session"
	"github.com/harunnryd/hibiki/internal/tool"
	"github.com/harunnryd/hibiki/internal/transcript"
	"github.com/harunnryd/hibiki/internal/voice"

	"github.com/stretchr/testify/require"
)

type captureSender struct {
	name string
	ids  []string
	sent []string
}

func (c *captureSender) Name() string { return c.name }

func (c *captureSender) Send(ctx context.Context, sessionID, content string) error {
	c.ids = append(c.ids, sessionID)
	c.sent = append(c.sent, content)
	return nil
}

func (c *captureSender) Health(ctx context.Context) error { return nil }

type recordingTool struct {
	name   string
	result tool.Result
	calls  []json.RawMessage
}

func (r *recordingTool) Name() string        { return r.name }
func (r *recordingTool) Description() string { return "test tool" }
func (r *recordingTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
func (r *recordingTool) Execute(ctx context.Context, input json.RawMessage) tool.Result {
	r.calls = append(r.calls, input)
	return r.result
}

type scriptedResolver struct {
	outcomes []extract.Outcome
	commands []string
}

func (s *scriptedResolver) Resolve(ctx context.Context, command string, sess *session.Session) (extract.Outcome, brain.Decision) {
	i := len(s.commands)
	s.commands = append(s.commands, command)
	if i < len(s.outcomes) {
		return s.outcomes[i], brain.Decision{}
	}
	return extract.Outcome{Kind: extract.NoCalls, Text: "Understood."}, brain.Decision{}
}

type kernelHarness struct {
	kernel   *Kernel
	queue    *ingress.Queue
	sender   *captureSender
	resolver *scriptedResolver
	tools    map[string]*recordingTool
}

func newHarness(t *testing.T, source *transcript.Source, toolNames ...string) *kernelHarness {
	t.Helper()

	registry := tool.NewRegistry()
	tools := make(map[string]*recordingTool, len(toolNames))
	for _, name := range toolNames {
		rt := &recordingTool{name: name, result: tool.Ok("done " + name)}
		tools[name] = rt
		registry.Register(rt)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := ingress.NewQueue(16, 50*time.Millisecond)
	sender := &captureSender{name: "console"}
	resolver := &scriptedResolver{}

	sessions := session.NewManager(session.Config{
		HistoryLimit:      8,
		DetectionGuardGap: 2200 * time.Millisecond,
		DispatchGuardGap:  800 * time.Millisecond,
	})

	var wake *transcript.WakeFilter
	if source != nil {
		wake = transcript.NewWakeFilter([]string{"hibiki"})
	}

	k := New(Deps{
		Queue:    queue,
		Source:   source,
		Wake:     wake,
		Sessions: sessions,
		Speaker:  voice.NewSpeaker("", nil, nil, log),
		Resolver: resolver,
		Gateway:  tool.NewGateway(registry, log),
		Senders: map[string]adapter.OutputAdapter{
			"console": sender,
			"voice":   sender,
		},
		Log: log,
	}, Config{})

	return &kernelHarness{kernel: k, queue: queue, sender: sender, resolver: resolver, tools: tools}
}

func (h *kernelHarness) submit(t *testing.T, source, eventType, sessionID, content string) {
	t.Helper()
	handler := h.kernel.EventHandler()
	require.NoError(t, handler(context.Background(), source, eventType, sessionID, content, nil))
}

func writeUtterance(t *testing.T, dir, name, text string, mtime time.Time) {
	t.Helper()
	recDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(recDir, 0o755))
	metaPath := filepath.Join(recDir, "meta.json")
	payload, err := json.Marshal(map[string]string{"result": text})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(metaPath, payload, 0o644))
	require.NoError(t, os.Chtimes(metaPath, mtime, mtime))
	require.NoError(t, os.Chtimes(recDir, mtime, mtime))
}

func TestFastRoutedCommandExecutesTool(t *testing.T) {
	h := newHarness(t, nil, "add_task")
	ctx := context.Background()

	h.submit(t, "console", "user_message", "local", "add task buy milk")
	h.kernel.Tick(ctx)

	rt := h.tools["add_task"]
	require.Len(t, rt.calls, 1)

	var args map[string]string
	require.NoError(t, json.Unmarshal(rt.calls[0], &args))
	require.Equal(t, "buy milk", args["description"])

	require.Empty(t, h.resolver.commands, "deterministic route must not reach the resolver")

	require.Len(t, h.sender.sent, 1)
	expected := respond.Confirmation(0, "add_task", rt.calls[0])
	require.Equal(t, expected, h.sender.sent[0])
	require.Equal(t, "local", h.sender.ids[0])
}

func TestDuplicateCommandBurstSuppressed(t *testing.T) {
	dir := t.TempDir()
	source := transcript.NewSource(dir, "meta.json")
	h := newHarness(t, source, "open_website")
	ctx := context.Background()

	base := time.Now().Add(-10 * time.Second)
	writeUtterance(t, dir, "rec-001", "Hibiki open youtube", base)
	h.kernel.Tick(ctx)

	require.Len(t, h.tools["open_website"].calls, 1)
	require.Len(t, h.sender.sent, 1)

	// Same utterance re-finalized by the transcription engine moments later.
	writeUtterance(t, dir, "rec-001", "Hibiki open youtube", base.Add(2*time.Second))
	h.kernel.Tick(ctx)

	require.Len(t, h.tools["open_website"].calls, 1, "repeat burst must not re-execute")
	require.Len(t, h.sender.sent, 1)
}

func TestTranscriptWithoutWakeWordIgnored(t *testing.T) {
	dir := t.TempDir()
	source := transcript.NewSource(dir, "meta.json")
	h := newHarness(t, source, "open_website")

	writeUtterance(t, dir, "rec-001", "just thinking out loud", time.Now())
	h.kernel.Tick(context.Background())

	require.Empty(t, h.tools["open_website"].calls)
	require.Empty(t, h.sender.sent)
	require.Empty(t, h.resolver.commands)
}

func TestResolverMultiCallPipeline(t *testing.T) {
	h := newHarness(t, nil, "open_app", "add_task")
	h.resolver.outcomes = []extract.Outcome{{
		Kind: extract.ParsedCalls,
		Calls: []extract.Call{
			{Name: "open_app", Args: json.RawMessage(`{"app_name":"Safari"}`)},
			{Name: "add_task", Args: json.RawMessage(`{"description":"ship it"}`)},
		},
	}}
	ctx := context.Background()

	h.submit(t, "console", "user_message", "local", "please prepare my morning setup")
	h.kernel.Tick(ctx)

	require.Len(t, h.resolver.commands, 1)
	require.Len(t, h.tools["open_app"].calls, 1)
	require.Len(t, h.tools["add_task"].calls, 1)

	first := respond.Confirmation(0, "open_app", json.RawMessage(`{"app_name":"Safari"}`))
	second := respond.Confirmation(1, "add_task", json.RawMessage(`{"description":"ship it"}`))
	require.Len(t, h.sender.sent, 1)
	require.Equal(t, first+" "+second, h.sender.sent[0])

	sess := h.kernel.sessions.Get("console", "local")
	require.Equal(t, 2, sess.ConfirmCount)

	turns := sess.History.All()
	require.Len(t, turns, 3)
	require.Equal(t, respond.MultiActionSummary(2), turns[0].Assistant)
	require.NotNil(t, turns[1].ToolRecord)
	require.Equal(t, []string{"open_app"}, turns[1].ToolRecord.Names)
	require.NotNil(t, turns[2].ToolRecord)
	require.Equal(t, []string{"add_task"}, turns[2].ToolRecord.Names)
}

func TestResolverDuplicateCallsCollapse(t *testing.T) {
	h := newHarness(t, nil, "open_app")
	h.resolver.outcomes = []extract.Outcome{{
		Kind: extract.ParsedCalls,
		Calls: []extract.Call{
			{Name: "open_app", Args: json.RawMessage(`{"app_name":"Safari"}`)},
			{Name: "open_app", Args: json.RawMessage(`{"app_name":"Safari"}`)},
		},
	}}

	h.submit(t, "console", "user_message", "local", "please get my browser ready")
	h.kernel.Tick(context.Background())

	require.Len(t, h.tools["open_app"].calls, 1)
}

func TestResolverTransportErrorReply(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.outcomes = []extract.Outcome{{Kind: extract.TransportError, Raw: "503 upstream"}}

	h.submit(t, "console", "user_message", "local", "please summarize my day")
	h.kernel.Tick(context.Background())

	require.Len(t, h.sender.sent, 1)
	require.Equal(t, respond.ProcessingFailure, h.sender.sent[0])
}

func TestResolverPlainTextReply(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.outcomes = []extract.Outcome{{Kind: extract.NoCalls, Text: "You have a quiet afternoon."}}

	h.submit(t, "console", "user_message", "local", "please describe my afternoon")
	h.kernel.Tick(context.Background())

	require.Len(t, h.sender.sent, 1)
	require.Equal(t, "You have a quiet afternoon.", h.sender.sent[0])

	turns := h.kernel.sessions.Get("console", "local").History.All()
	require.Len(t, turns, 1)
	require.Equal(t, "You have a quiet afternoon.", turns[0].Clean)
}

func TestVoicePhraseHandledBeforeResolver(t *testing.T) {
	h := newHarness(t, nil)

	h.submit(t, "console", "user_message", "local", "change your voice")
	h.kernel.Tick(context.Background())

	require.Empty(t, h.resolver.commands)
	require.Len(t, h.sender.sent, 1)
	require.Contains(t, h.sender.sent[0], "Available voices:")
}

func TestSlashCommands(t *testing.T) {
	cases := []struct {
		line string
		want func(t *testing.T, reply string)
	}{
		{"/voice", func(t *testing.T, reply string) {
			require.Contains(t, reply, "Available voices:")
			require.Contains(t, reply, `Use "/voice <name or code>" to switch.`)
		}},
		{"/voice list", func(t *testing.T, reply string) {
			require.Contains(t, reply, "Available voices:")
		}},
		{"/voice bella", func(t *testing.T, reply string) {
			require.Equal(t, "Yes, voice is set to Bella. Now I am speaking in that voice.", reply)
		}},
		{"/v am_adam", func(t *testing.T, reply string) {
			require.Equal(t, "Yes, voice is set to Adam. Now I am speaking in that voice.", reply)
		}},
		{"/voice klingon", func(t *testing.T, reply string) {
			require.Contains(t, reply, "Unknown voice. ")
		}},
		{"/help", func(t *testing.T, reply string) {
			require.Equal(t, "Commands: /voice, /voice list, /voice <name or code>, /tasks", reply)
		}},
		{"/teleport", func(t *testing.T, reply string) {
			require.Equal(t, "Unknown command. Type /help", reply)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			h := newHarness(t, nil)
			h.submit(t, "console", "command", "local", tc.line)
			h.kernel.Tick(context.Background())

			require.Len(t, h.sender.sent, 1)
			tc.want(t, h.sender.sent[0])
		})
	}
}

func TestSlashTasksListsPendingTasks(t *testing.T) {
	h := newHarness(t, nil, "list_tasks")
	h.tools["list_tasks"].result = tool.OkData("You have 2 pending tasks", map[string]interface{}{
		"tasks": []map[string]interface{}{
			{"id": 1, "description": "buy milk"},
			{"id": 4, "description": "water the plants"},
		},
	})

	h.submit(t, "console", "command", "local", "/tasks")
	h.kernel.Tick(context.Background())

	require.Len(t, h.tools["list_tasks"].calls, 1)
	require.Len(t, h.sender.sent, 1)
	require.Equal(t,
		"You have 2 pending tasks:\n1. [Task 1] buy milk\n2. [Task 4] water the plants",
		h.sender.sent[0])
	require.Empty(t, h.resolver.commands)
}

func TestSlashTasksFailureIsApologetic(t *testing.T) {
	h := newHarness(t, nil, "list_tasks")
	h.tools["list_tasks"].result = tool.Fail("the task store is unavailable")

	h.submit(t, "console", "command", "local", "/tasks")
	h.kernel.Tick(context.Background())

	require.Len(t, h.sender.sent, 1)
	require.Equal(t, "I apologize, but the task store is unavailable", h.sender.sent[0])
}

type noticingSender struct {
	captureSender
	notices []string
}

func (n *noticingSender) Notice(content string) {
	n.notices = append(n.notices, content)
}

func TestNotifyUsesNoticeChannelWhenAvailable(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	ns := &noticingSender{captureSender: captureSender{name: "console"}}
	h.kernel.senders["console"] = ns

	h.resolver.outcomes = []extract.Outcome{{Kind: extract.NoCalls, Text: "Noted."}}
	h.submit(t, "console", "user_message", "local", "please remember this moment")
	h.kernel.Tick(ctx)
	require.Len(t, ns.sent, 1)

	h.kernel.Notify(ctx, "Reminder: stretch")
	h.kernel.Tick(ctx)

	// Out-of-band lines go through Notice, never mixed into replies.
	require.Equal(t, []string{"Reminder: stretch"}, ns.notices)
	require.Len(t, ns.sent, 1)
}

func TestNotifyReachesActiveLanes(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.resolver.outcomes = []extract.Outcome{{Kind: extract.NoCalls, Text: "Noted."}}
	h.submit(t, "console", "user_message", "local", "please remember this moment")
	h.kernel.Tick(ctx)
	require.Len(t, h.sender.sent, 1)

	h.kernel.Notify(ctx, "Reminder: stand-up in five minutes")
	h.kernel.Tick(ctx)

	require.Len(t, h.sender.sent, 2)
	require.Equal(t, "Reminder: stand-up in five minutes", h.sender.sent[1])
	require.Equal(t, "local", h.sender.ids[1])
}
