package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/hibiki/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Models     ModelsConfig     `koanf:"models"`
	Adapters   AdaptersConfig   `koanf:"adapters"`
	Transcript TranscriptConfig `koanf:"transcript"`
	Dispatch   DispatchConfig   `koanf:"dispatch"`
	Brain      BrainConfig      `koanf:"brain"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Store      StoreConfig      `koanf:"store"`
	Voice      VoiceConfig      `koanf:"voice"`
	Memory     MemoryConfig     `koanf:"memory"`
}

type ServerConfig struct {
	LogLevel        string `koanf:"log_level"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

type ModelsConfig struct {
	Default             string          `koanf:"default"`
	Fallback            string          `koanf:"fallback"`
	Embedding           string          `koanf:"embedding"`
	MaxFallbackAttempts int             `koanf:"max_fallback_attempts"`
	Registry            []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name"`
	Provider       string `koanf:"provider"`
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
}

type AdaptersConfig struct {
	Console  ConsoleConfig  `koanf:"console"`
	Telegram TelegramConfig `koanf:"telegram"`
	Slack    SlackConfig    `koanf:"slack"`
}

type ConsoleConfig struct {
	Enabled bool `koanf:"enabled"`
}

type TelegramConfig struct {
	Enabled       bool    `koanf:"enabled"`
	BotToken      string  `koanf:"bot_token"`
	UpdateTimeout int     `koanf:"update_timeout"`
	AllowedChats  []int64 `koanf:"allowed_chats"`
}

type SlackConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Port          int    `koanf:"port"`
	SigningSecret string `koanf:"signing_secret"`
	BotToken      string `koanf:"bot_token"`
}

// TranscriptConfig controls the recordings-directory poller and wake filter.
type TranscriptConfig struct {
	RecordingsDir string   `koanf:"recordings_dir"`
	MetaFilename  string   `koanf:"meta_filename"`
	WakeWords     []string `koanf:"wake_words"`
}

// DispatchConfig controls the main loop and the duplicate suppressors.
type DispatchConfig struct {
	LoopInterval        string `koanf:"loop_interval"`
	DetectionGuardGap   string `koanf:"detection_guard_gap"`
	DispatchGuardGap    string `koanf:"dispatch_guard_gap"`
	HistoryLimit        int    `koanf:"history_limit"`
	ModelHistoryWindow  int    `koanf:"model_history_window"`
	InboundQueueSize    int    `koanf:"inbound_queue_size"`
	InboundSubmitWindow string `koanf:"inbound_submit_window"`
}

type BrainConfig struct {
	Temperature    float64 `koanf:"temperature"`
	MaxTokens      int     `koanf:"max_tokens"`
	RouteMaxTokens int     `koanf:"route_max_tokens"`
	RequestTimeout string  `koanf:"request_timeout"`
}

type SchedulerConfig struct {
	TickInterval string `koanf:"tick_interval"`
}

type StoreConfig struct {
	BasePath     string `koanf:"base_path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

type VoiceConfig struct {
	Enabled bool     `koanf:"enabled"`
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
	Default string   `koanf:"default"`
}

type MemoryConfig struct {
	Enabled     bool `koanf:"enabled"`
	RecallLimit int  `koanf:"recall_limit"`
}

const (
	DefaultServerLogLevel        = "info"
	DefaultServerShutdownTimeout = "5s"

	DefaultModelDefault             = "llama-3.3-70b-versatile"
	DefaultModelFallback            = "claude-3-5-haiku-latest"
	DefaultModelEmbedding           = "text-embedding-3-small"
	DefaultModelMaxFallbackAttempts = 2
	DefaultGroqBaseURL              = "https://api.groq.com/openai/v1"
	DefaultModelRequestTimeout      = "30s"

	DefaultTelegramUpdateTimeout = 25

	DefaultSlackPort = 3000

	DefaultTranscriptMetaFilename = "meta.json"

	DefaultDispatchLoopInterval        = "300ms"
	DefaultDispatchDetectionGuardGap   = "2200ms"
	DefaultDispatchDispatchGuardGap    = "800ms"
	DefaultDispatchHistoryLimit        = 8
	DefaultDispatchModelHistoryWindow  = 3
	DefaultDispatchInboundQueueSize    = 100
	DefaultDispatchInboundSubmitWindow = "500ms"

	DefaultBrainTemperature    = 0.3
	DefaultBrainMaxTokens      = 600
	DefaultBrainRouteMaxTokens = 120
	DefaultBrainRequestTimeout = "25s"

	DefaultSchedulerTickInterval = "1s"

	DefaultStoreLockTimeout  = "30s"
	DefaultStoreLockRetry    = "100ms"
	DefaultStoreLockMaxRetry = 300

	DefaultVoiceCommand = "say"
	DefaultVoiceName    = "bm_lewis"

	DefaultMemoryRecallLimit = 3
)

// DefaultWakeWords includes common transcription misspellings.
var DefaultWakeWords = []string{
	"hibiki", "hibiky", "hibikee", "hibeki", "hebiki", "hibici", "hibikki",
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.log_level":             DefaultServerLogLevel,
		"server.shutdown_timeout":      DefaultServerShutdownTimeout,
		"models.default":               DefaultModelDefault,
		"models.fallback":              DefaultModelFallback,
		"models.embedding":             DefaultModelEmbedding,
		"models.max_fallback_attempts": DefaultModelMaxFallbackAttempts,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: "openai", BaseURL: DefaultGroqBaseURL},
			{Name: DefaultModelFallback, Provider: "anthropic"},
			{Name: DefaultModelEmbedding, Provider: "openai"},
		},
		"adapters.console.enabled":         true,
		"adapters.telegram.update_timeout": DefaultTelegramUpdateTimeout,
		"adapters.slack.port":              DefaultSlackPort,
		"transcript.recordings_dir":        filepath.Join(os.Getenv("HOME"), ".hibiki", "recordings"),
		"transcript.meta_filename":         DefaultTranscriptMetaFilename,
		"transcript.wake_words":            DefaultWakeWords,
		"dispatch.loop_interval":           DefaultDispatchLoopInterval,
		"dispatch.detection_guard_gap":     DefaultDispatchDetectionGuardGap,
		"dispatch.dispatch_guard_gap":      DefaultDispatchDispatchGuardGap,
		"dispatch.history_limit":           DefaultDispatchHistoryLimit,
		"dispatch.model_history_window":    DefaultDispatchModelHistoryWindow,
		"dispatch.inbound_queue_size":      DefaultDispatchInboundQueueSize,
		"dispatch.inbound_submit_window":   DefaultDispatchInboundSubmitWindow,
		"brain.temperature":                DefaultBrainTemperature,
		"brain.max_tokens":                 DefaultBrainMaxTokens,
		"brain.route_max_tokens":           DefaultBrainRouteMaxTokens,
		"brain.request_timeout":            DefaultBrainRequestTimeout,
		"scheduler.tick_interval":          DefaultSchedulerTickInterval,
		"store.base_path":                  filepath.Join(os.Getenv("HOME"), ".hibiki"),
		"store.lock_timeout":               DefaultStoreLockTimeout,
		"store.lock_retry":                 DefaultStoreLockRetry,
		"store.lock_max_retry":             DefaultStoreLockMaxRetry,
		"voice.enabled":                    false,
		"voice.command":                    DefaultVoiceCommand,
		"voice.default":                    DefaultVoiceName,
		"memory.enabled":                   true,
		"memory.recall_limit":              DefaultMemoryRecallLimit,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".hibiki", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("HIBIKI_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "HIBIKI_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "openai"
		}
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	injectAPIKey(&cfg, "openai", os.Getenv("GROQ_API_KEY"))
	injectAPIKey(&cfg, "openai", os.Getenv("OPENAI_API_KEY"))
	injectAPIKey(&cfg, "anthropic", os.Getenv("ANTHROPIC_API_KEY"))
	injectAPIKey(&cfg, "gemini", os.Getenv("GEMINI_API_KEY"))

	return &cfg, nil
}

func injectAPIKey(cfg *Config, provider, key string) {
	if key == "" {
		return
	}
	for i, m := range cfg.Models.Registry {
		if m.Provider == provider && m.APIKey == "" {
			cfg.Models.Registry[i].APIKey = key
		}
	}
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	basePath, err := expandConfiguredPath(cfg.Store.BasePath)
	if err != nil {
		return err
	}
	if basePath != "" {
		cfg.Store.BasePath = basePath
	}

	recordingsDir, err := expandConfiguredPath(cfg.Transcript.RecordingsDir)
	if err != nil {
		return err
	}
	if recordingsDir != "" {
		cfg.Transcript.RecordingsDir = recordingsDir
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}
