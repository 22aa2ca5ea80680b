package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/harunnryd/hibiki/internal/adapter"
	"github.com/harunnryd/hibiki/internal/brain"
	"github.com/harunnryd/hibiki/internal/config"
	"github.com/harunnryd/hibiki/internal/dispatch"
	"github.com/harunnryd/hibiki/internal/ingress"
	"github.com/harunnryd/hibiki/internal/memory"
	"github.com/harunnryd/hibiki/internal/model"
	"github.com/harunnryd/hibiki/internal/scheduler"
	"github.com/harunnryd/hibiki/internal/session"
	"github.com/harunnryd/hibiki/internal/store"
	"github.com/harunnryd/hibiki/internal/tool"
	"github.com/harunnryd/hibiki/internal/tool/builtin"
	"github.com/harunnryd/hibiki/internal/transcript"
	"github.com/harunnryd/hibiki/internal/voice"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the assistant runtime",
	Long:  `Starts the dispatch loop: transcript polling, chat adapters, the reminder scheduler, and the command pipeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}
		return runRuntime(cmd.Context(), cfg)
	},
}

func runRuntime(parent context.Context, cfg *config.Config) error {
	sig := NewSignalHandler(parent)
	sig.Start()
	defer sig.Stop()
	ctx := sig.Context()

	lockTimeout, err := config.DurationOrDefault(cfg.Store.LockTimeout, config.DefaultStoreLockTimeout)
	if err != nil {
		return err
	}
	lockRetry, err := config.DurationOrDefault(cfg.Store.LockRetry, config.DefaultStoreLockRetry)
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Store.BasePath, &store.FileLockConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: cfg.Store.LockMaxRetry,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}

	registry := tool.NewRegistry()
	builtin.RegisterAll(registry, builtin.NewEnv(st, home, nil))
	gateway := tool.NewGateway(registry, slog.Default())

	speakerCommand := ""
	if cfg.Voice.Enabled {
		speakerCommand = cfg.Voice.Command
	}
	speaker := voice.NewSpeaker(speakerCommand, cfg.Voice.Args, st.Settings(), slog.Default())

	var resolver dispatch.Resolver
	var mem *memory.Manager
	var activeModels []string

	modelRouter, err := model.NewModelRouter(cfg.Models)
	if err != nil {
		slog.Warn("Model routing unavailable, running with deterministic routes only", "error", err)
	} else {
		activeModels = modelRouter.ListModels()
		if cfg.Memory.Enabled {
			mem, err = memory.NewManager(cfg.Store.BasePath, st.Memory(), modelRouter, slog.Default())
			if err != nil {
				slog.Warn("Memory disabled", "error", err)
				mem = nil
			}
		}

		brainTimeout, err := config.DurationOrDefault(cfg.Brain.RequestTimeout, config.DefaultBrainRequestTimeout)
		if err != nil {
			return err
		}
		resolver = brain.New(modelRouter, registry, mem, home, brain.Config{
			Model:          cfg.Models.Default,
			Temperature:    cfg.Brain.Temperature,
			MaxTokens:      cfg.Brain.MaxTokens,
			RouteMaxTokens: cfg.Brain.RouteMaxTokens,
			HistoryWindow:  cfg.Dispatch.ModelHistoryWindow,
			RecallLimit:    cfg.Memory.RecallLimit,
			Timeout:        brainTimeout,
		}, slog.Default())
	}

	detectionGap, err := config.DurationOrDefault(cfg.Dispatch.DetectionGuardGap, config.DefaultDispatchDetectionGuardGap)
	if err != nil {
		return err
	}
	dispatchGap, err := config.DurationOrDefault(cfg.Dispatch.DispatchGuardGap, config.DefaultDispatchDispatchGuardGap)
	if err != nil {
		return err
	}
	loopInterval, err := config.DurationOrDefault(cfg.Dispatch.LoopInterval, config.DefaultDispatchLoopInterval)
	if err != nil {
		return err
	}
	submitWindow, err := config.DurationOrDefault(cfg.Dispatch.InboundSubmitWindow, config.DefaultDispatchInboundSubmitWindow)
	if err != nil {
		return err
	}

	sessions := session.NewManager(session.Config{
		HistoryLimit:      cfg.Dispatch.HistoryLimit,
		DetectionGuardGap: detectionGap,
		DispatchGuardGap:  dispatchGap,
	})

	queue := ingress.NewQueue(cfg.Dispatch.InboundQueueSize, submitWindow)
	senders := make(map[string]adapter.OutputAdapter)

	kernel := dispatch.New(dispatch.Deps{
		Queue:    queue,
		Source:   transcript.NewSource(cfg.Transcript.RecordingsDir, cfg.Transcript.MetaFilename),
		Wake:     transcript.NewWakeFilter(cfg.Transcript.WakeWords),
		Sessions: sessions,
		Speaker:  speaker,
		Resolver: resolver,
		Gateway:  gateway,
		Memory:   mem,
		Senders:  senders,
		Log:      slog.Default(),
	}, dispatch.Config{LoopInterval: loopInterval})

	handler := kernel.EventHandler()
	var inputs []adapter.InputAdapter

	if cfg.Adapters.Console.Enabled {
		console := adapter.NewConsoleAdapter(handler)
		senders[console.Name()] = console
		inputs = append(inputs, console)
	}
	if cfg.Adapters.Telegram.Enabled && cfg.Adapters.Telegram.BotToken != "" {
		tg := adapter.NewTelegramAdapter(
			cfg.Adapters.Telegram.BotToken,
			handler,
			cfg.Adapters.Telegram.UpdateTimeout,
			cfg.Adapters.Telegram.AllowedChats,
		)
		senders[tg.Name()] = tg
		inputs = append(inputs, tg)
	}
	if cfg.Adapters.Slack.Enabled && cfg.Adapters.Slack.BotToken != "" {
		sl := adapter.NewSlackAdapter(
			cfg.Adapters.Slack.Port,
			cfg.Adapters.Slack.SigningSecret,
			cfg.Adapters.Slack.BotToken,
			handler,
		)
		senders[sl.Name()] = sl
		inputs = append(inputs, sl)
	}

	for _, in := range inputs {
		if err := in.Start(ctx); err != nil {
			return fmt.Errorf("start %s adapter: %w", in.Name(), err)
		}
	}
	defer func() {
		for _, in := range inputs {
			if err := in.Stop(context.Background()); err != nil {
				slog.Warn("Adapter stop failed", "adapter", in.Name(), "error", err)
			}
		}
	}()

	tickInterval, err := config.DurationOrDefault(cfg.Scheduler.TickInterval, config.DefaultSchedulerTickInterval)
	if err != nil {
		return err
	}
	sched := scheduler.New(st.Reminders(), scheduler.Config{TickInterval: tickInterval}, slog.Default(), kernel)
	sched.Start(ctx)
	defer sched.Stop()

	slog.Info("Hibiki is listening",
		"recordings", cfg.Transcript.RecordingsDir,
		"models", activeModels)

	if err := kernel.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("Hibiki stopped gracefully")
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
