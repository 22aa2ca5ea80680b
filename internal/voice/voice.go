// Package voice handles speech output and voice-selection commands.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/harunnryd/hibiki/internal/concurrency"
	"github.com/harunnryd/hibiki/internal/store"
)

// Option is one selectable TTS voice.
type Option struct {
	Name string
	Code string
}

const DefaultVoiceCode = "bm_lewis"

var Options = []Option{
	{"Lewis", "bm_lewis"},
	{"Adam", "am_adam"},
	{"Michael", "am_michael"},
	{"Bella", "af_bella"},
	{"Sarah", "af_sarah"},
}

var aliasToCode = map[string]string{
	"lewis":        "bm_lewis",
	"adam":         "am_adam",
	"michael":      "am_michael",
	"bella":        "af_bella",
	"sarah":        "af_sarah",
	"male british": "bm_lewis",
	"british":      "bm_lewis",
	"male 1":       "am_adam",
	"male 2":       "am_michael",
	"female 1":     "af_bella",
	"female 2":     "af_sarah",
}

func validCode(code string) bool {
	for _, opt := range Options {
		if opt.Code == code {
			return true
		}
	}
	return false
}

// NameFor returns the display name for a voice code, or the code itself when
// it is not a known option.
func NameFor(code string) string {
	for _, opt := range Options {
		if opt.Code == code {
			return opt.Name
		}
	}
	return code
}

// FormatVoiceList renders the selectable voices for the user.
func FormatVoiceList() string {
	entries := make([]string, 0, len(Options))
	for _, opt := range Options {
		entries = append(entries, fmt.Sprintf("%s (%s)", opt.Name, opt.Code))
	}
	return "Available voices: " + strings.Join(entries, ", ") + "."
}

// ExtractVoiceCode resolves a spoken voice reference to a voice code. Codes
// win over aliases, aliases over display names.
func ExtractVoiceCode(commandText string) string {
	c := strings.ToLower(strings.TrimSpace(commandText))
	for _, opt := range Options {
		if strings.Contains(c, opt.Code) {
			return opt.Code
		}
	}
	for alias, code := range aliasToCode {
		if strings.Contains(c, alias) {
			return code
		}
	}
	for _, opt := range Options {
		if strings.Contains(c, strings.ToLower(opt.Name)) {
			return opt.Code
		}
	}
	return ""
}

// Speaker renders text to speech by invoking an external TTS command. Speech
// is fire-and-forget so a slow engine never stalls the dispatch loop.
type Speaker struct {
	command  string
	args     []string
	settings *store.SettingsStore
	code     string
	log      *slog.Logger

	runCommand func(ctx context.Context, name string, args ...string) error
}

// NewSpeaker loads the persisted voice selection. The command receives the
// voice code and text as trailing arguments.
func NewSpeaker(command string, args []string, settings *store.SettingsStore, log *slog.Logger) *Speaker {
	if log == nil {
		log = slog.Default()
	}
	s := &Speaker{
		command:  command,
		args:     args,
		settings: settings,
		code:     DefaultVoiceCode,
		log:      log,
		runCommand: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
	if settings != nil {
		if saved, err := settings.Load(); err == nil && validCode(saved.VoiceCode) {
			s.code = saved.VoiceCode
		}
	}
	return s
}

// Code returns the active voice code.
func (s *Speaker) Code() string { return s.code }

// SetVoice switches the active voice and persists the choice.
func (s *Speaker) SetVoice(code string) error {
	if !validCode(code) {
		return fmt.Errorf("unknown voice code: %s", code)
	}
	s.code = code
	if s.settings != nil {
		return s.settings.SetVoiceCode(code)
	}
	return nil
}

// Speak queues text for speech and returns immediately. Disabled when no TTS
// command is configured.
func (s *Speaker) Speak(ctx context.Context, text string) {
	if s.command == "" || strings.TrimSpace(text) == "" {
		return
	}
	args := append(append([]string(nil), s.args...), s.code, text)
	concurrency.SafeGo(func() {
		if err := s.runCommand(ctx, s.command, args...); err != nil {
			s.log.Warn("TTS command failed", "error", err)
		}
	}, nil)
}

// HandleVoiceCommand intercepts voice-management phrases before they reach
// the resolver. The bool reports whether the command was consumed.
func HandleVoiceCommand(commandText string, speaker *Speaker) (bool, string) {
	if isVoiceListCommand(commandText) {
		return true, FormatVoiceList()
	}

	lowered := strings.ToLower(commandText)
	wantsSwitch := strings.Contains(lowered, "switch to") ||
		strings.Contains(lowered, "set voice to") ||
		strings.Contains(lowered, "change to") ||
		strings.Contains(lowered, "use voice")
	if !wantsSwitch {
		return false, ""
	}

	code := ExtractVoiceCode(commandText)
	if code == "" {
		return true, "Please choose one of these voices. " + FormatVoiceList()
	}

	if speaker != nil {
		if err := speaker.SetVoice(code); err != nil {
			return true, "Please choose one of these voices. " + FormatVoiceList()
		}
	}
	return true, fmt.Sprintf("Voice switched to %s. I will use this voice from now on.", NameFor(code))
}

func isVoiceListCommand(commandText string) bool {
	c := strings.ToLower(commandText)
	hasVoice := strings.Contains(c, "voice")
	return (hasVoice && strings.Contains(c, "available")) ||
		(hasVoice && strings.Contains(c, "list")) ||
		strings.Contains(c, "change your voice") ||
		strings.Contains(c, "change voice") ||
		strings.Contains(c, "what voices")
}
