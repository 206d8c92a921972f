package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/frontdesk-labs/frontdesk-core/internal/agent"
	"github.com/frontdesk-labs/frontdesk-core/internal/bus"
	"github.com/frontdesk-labs/frontdesk-core/internal/call"
	"github.com/frontdesk-labs/frontdesk-core/internal/calllog"
	"github.com/frontdesk-labs/frontdesk-core/internal/config"
	"github.com/frontdesk-labs/frontdesk-core/internal/generation"
	"github.com/frontdesk-labs/frontdesk-core/internal/intake"
	"github.com/frontdesk-labs/frontdesk-core/internal/intent"
	"github.com/frontdesk-labs/frontdesk-core/internal/natsserver"
	"github.com/frontdesk-labs/frontdesk-core/internal/runtime"
	"github.com/frontdesk-labs/frontdesk-core/internal/stt"
	"github.com/frontdesk-labs/frontdesk-core/internal/synth"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "frontdesk.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Telemetry.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build call pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	handler := call.NewHandler(deps, logger)
	preview := synth.NewPreviewHandler(deps.Synth, cfg.TTS.SampleRate, cfg.TTS.Channels, logger)
	rt := runtime.New(cfg, runtime.Handlers{Call: handler, Preview: preview}, logger)

	if err := rt.Start(ctx); err != nil {
		logger.Error("runtime exited with error", slog.String("error", err.Error()))
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func buildDeps(ctx context.Context, cfg config.Config, logger *slog.Logger) (call.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (call.Deps, func(), error) {
		cleanup()
		return call.Deps{}, func() {}, err
	}

	extractor, err := newExtractor(ctx, cfg.Intake)
	if err != nil {
		return fail(fmt.Errorf("intake extractor: %w", err))
	}

	classifier, err := newClassifier(ctx, cfg.Intent)
	if err != nil {
		return fail(fmt.Errorf("intent classifier: %w", err))
	}

	kb, err := agent.LoadKnowledgeBase(cfg.Agent.KnowledgeBasePath)
	if err != nil {
		return fail(fmt.Errorf("knowledge base: %w", err))
	}
	calendar := agent.NewCalendar(cfg.Agent.SlotTemplates)

	generator, err := newGenerator(ctx, cfg.Generation)
	if err != nil {
		return fail(fmt.Errorf("generation backend: %w", err))
	}

	synthesizer, err := newSynthesizer(cfg.TTS)
	if err != nil {
		return fail(fmt.Errorf("tts backend: %w", err))
	}

	tracker, err := call.NewTracker()
	if err != nil {
		return fail(fmt.Errorf("call tracker: %w", err))
	}

	deps := call.Deps{
		NewRecognizer: func() stt.Recognizer { return newRecognizer(cfg.STT, logger) },
		NewCache:      func() *intake.Cache { return intake.NewCache(extractor, logger) },
		NewAgents: func(cache *intake.Cache) *agent.Registry {
			return agent.NewRegistry(
				agent.NewBookingAgent(kb, calendar, cache, logger),
				agent.NewEnquiryAgent(kb, logger),
			)
		},
		Router:    intent.NewRouter(classifier, logger),
		Generator: generation.NewRetryingGenerator(generator, logger),
		Synth:     synthesizer,
		Tracker:   tracker,
	}

	if cfg.Bus.Enabled {
		embedded, err := natsserver.Start(cfg.Bus, logger)
		if err != nil {
			return fail(fmt.Errorf("embedded nats: %w", err))
		}
		if embedded != nil {
			closers = append(closers, embedded.Shutdown)
		}
		client, err := bus.Connect(ctx, cfg.Bus, logger)
		if err != nil {
			return fail(fmt.Errorf("nats connect: %w", err))
		}
		closers = append(closers, client.Close)
		deps.Tap = client
	}

	store, err := calllog.Open(ctx, cfg.CallLog, logger)
	if err != nil {
		return fail(fmt.Errorf("call log: %w", err))
	}
	closers = append(closers, func() { _ = store.Close() })
	if cfg.CallLog.Enabled {
		deps.Recorder = store
	}

	return deps, cleanup, nil
}

func newRecognizer(cfg config.STTConfig, logger *slog.Logger) stt.Recognizer {
	if cfg.Mode == "deepgram" {
		return stt.NewDeepgramRecognizer(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.SampleRate, cfg.Channels, logger)
	}
	return stt.NewMockRecognizer()
}

func newExtractor(ctx context.Context, cfg config.IntakeConfig) (intake.Extractor, error) {
	if cfg.Mode == "gemini" {
		return intake.NewGeminiExtractor(ctx, cfg.APIKey, cfg.Model, float32(cfg.Temperature))
	}
	return intake.NewMockExtractor(), nil
}

func newClassifier(ctx context.Context, cfg config.IntentConfig) (intent.Classifier, error) {
	if cfg.Mode == "gemini" {
		return intent.NewGeminiClassifier(ctx, cfg.APIKey, cfg.Model)
	}
	return intent.NewMockClassifier(), nil
}

func newGenerator(ctx context.Context, cfg config.GenConfig) (generation.Generator, error) {
	switch cfg.Mode {
	case "gemini":
		return generation.NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	case "exec":
		return generation.NewExecGenerator(cfg.Command)
	default:
		return generation.NewMockGenerator(), nil
	}
}

func newSynthesizer(cfg config.TTSConfig) (synth.Synthesizer, error) {
	switch cfg.Mode {
	case "deepgram":
		return synth.NewDeepgramSynth(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.SampleRate, cfg.Channels), nil
	case "exec":
		return synth.NewExecSynth(cfg.Command, cfg.SampleRate, cfg.Channels)
	default:
		return synth.NewMockSynth(cfg.SampleRate, cfg.Channels), nil
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
