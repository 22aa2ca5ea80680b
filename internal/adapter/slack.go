package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/harunnryd/hibiki/internal/errors"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// mentionPattern strips the leading bot mention from app_mention events so
// "@Hibiki open youtube" reaches the pipeline as "open youtube".
var mentionPattern = regexp.MustCompile(`^\s*<@[A-Z0-9]+>\s*`)

// SlackAdapter receives Events API callbacks over HTTP and replies through
// the Web API. Each channel becomes its own session lane.
type SlackAdapter struct {
	signingSecret string
	botToken      string
	eventHandler  EventHandler
	server        *http.Server
	port          int
	client        *slack.Client
}

func NewSlackAdapter(port int, signingSecret, botToken string, eventHandler EventHandler) *SlackAdapter {
	if signingSecret == "" {
		signingSecret = os.Getenv("SLACK_SIGNING_SECRET")
	}
	if botToken == "" {
		botToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	return &SlackAdapter{
		signingSecret: signingSecret,
		botToken:      botToken,
		eventHandler:  eventHandler,
		port:          port,
		client:        slack.New(botToken),
	}
}

func (s *SlackAdapter) Name() string {
	return "slack"
}

func (s *SlackAdapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/events", s.handleEvents)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		slog.Info("Slack adapter listening", "port", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Slack server failed", "error", err)
		}
	}()
	return nil
}

func (s *SlackAdapter) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Send posts a reply to the channel the command came from.
func (s *SlackAdapter) Send(ctx context.Context, sessionID string, content string) error {
	_, _, err := s.client.PostMessageContext(ctx, sessionID, slack.MsgOptionText(content, false))
	if err != nil {
		return errors.Wrap(err, "failed to send Slack message")
	}
	slog.Debug("Slack message sent", "channel", sessionID)
	return nil
}

func (s *SlackAdapter) Health(ctx context.Context) error {
	if s.server == nil {
		return errors.Transient("Slack server not started")
	}
	if s.client == nil {
		return errors.Transient("Slack client not initialized")
	}
	if _, err := s.client.AuthTestContext(ctx); err != nil {
		return errors.Transient("Slack connection failed")
	}
	return nil
}

func (s *SlackAdapter) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := s.verifySignature(r.Header, body); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	apiEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	switch apiEvent.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(challenge.Challenge))
		return
	case slackevents.CallbackEvent:
		s.dispatchCallback(r.Context(), apiEvent.InnerEvent)
	}

	w.WriteHeader(http.StatusOK)
}

func (s *SlackAdapter) verifySignature(header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, s.signingSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

func (s *SlackAdapter) dispatchCallback(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		text := strings.TrimSpace(mentionPattern.ReplaceAllString(ev.Text, ""))
		s.submit(ctx, ev.Channel, text, map[string]string{
			"user_id": ev.User,
			"ts":      ev.TimeStamp,
		})
	case *slackevents.MessageEvent:
		// Edits, joins and our own replies carry a subtype or bot ID.
		if ev.BotID != "" || ev.SubType != "" {
			return
		}
		s.submit(ctx, ev.Channel, ev.Text, map[string]string{
			"user_id": ev.User,
			"ts":      ev.TimeStamp,
		})
	}
}

func (s *SlackAdapter) submit(ctx context.Context, channel, text string, metadata map[string]string) {
	if s.eventHandler == nil || strings.TrimSpace(text) == "" {
		return
	}
	eventType := "user_message"
	if strings.HasPrefix(text, "/") {
		eventType = "command"
	}
	if err := s.eventHandler(ctx, "slack", eventType, channel, text, metadata); err != nil {
		slog.Error("Failed to handle Slack event", "error", err)
	}
}
