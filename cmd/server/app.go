package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/vilisasu/bibleai-api/internal/audio"
	"github.com/vilisasu/bibleai-api/internal/chat"
	"github.com/vilisasu/bibleai-api/internal/config"
	"github.com/vilisasu/bibleai-api/internal/devotional"
	"github.com/vilisasu/bibleai-api/internal/generation"
	"github.com/vilisasu/bibleai-api/internal/observe"
	"github.com/vilisasu/bibleai-api/internal/platform/elevenlabs"
	"github.com/vilisasu/bibleai-api/internal/platform/gemini"
	"github.com/vilisasu/bibleai-api/internal/platform/natsstore"
	"github.com/vilisasu/bibleai-api/internal/platform/openai"
	"github.com/vilisasu/bibleai-api/internal/speech"
	"github.com/vilisasu/bibleai-api/internal/task"
)

// backends holds the external AI adapters and the audio store. Transcriber
// and synthesizer are nil when their API keys are not configured.
type backends struct {
	provider    string
	completer   generation.Completer
	transcriber generation.Transcriber
	synthesizer generation.Synthesizer
	store       audio.Store

	closers []func() error
}

// newBackends connects the adapters selected by cfg.
func newBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{provider: cfg.LLM.Provider}

	var openaiClient *openai.Client
	if cfg.LLM.OpenAIAPIKey != "" {
		opts := []openai.Option{
			openai.WithTimeout(cfg.LLM.RequestTimeout),
			openai.WithTranscriptionModel(cfg.Speech.Model),
		}
		if cfg.LLM.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLM.OpenAIBaseURL))
		}

		var err error
		openaiClient, err = openai.New(cfg.LLM.OpenAIAPIKey, cfg.LLM.Model, logger, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		b.transcriber = openaiClient
	}

	switch cfg.LLM.Provider {
	case "gemini":
		g, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini generator: %w", err)
		}
		b.completer = g
	default:
		if openaiClient == nil {
			return nil, fmt.Errorf("%w: openai provider requires an API key", generation.ErrInvalidConfig)
		}
		b.completer = openaiClient
	}
	logger.Info("LLM backend initialized", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	if cfg.Audio.ElevenLabsAPIKey == "" {
		logger.Warn("ElevenLabs API key not set, audio endpoints disabled")
		return b, nil
	}

	synth, err := elevenlabs.New(cfg.Audio.ElevenLabsAPIKey, logger,
		elevenlabs.WithVoice(cfg.Audio.VoiceID),
		elevenlabs.WithModel(cfg.Audio.ModelID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ElevenLabs synthesizer: %w", err)
	}
	b.synthesizer = synth

	switch cfg.Audio.Store {
	case "nats":
		ns, err := natsstore.Connect(ctx, cfg.Audio.NATSURL, cfg.Audio.NATSBucket, cfg.Audio.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio store: %w", err)
		}
		b.store = ns
		b.closers = append(b.closers, ns.Close)
	default:
		b.store = audio.NewMemoryStore(cfg.Audio.TTL)
	}
	logger.Info("Audio generation enabled", "store", b.store.Name(), "ttl", cfg.Audio.TTL.String())

	return b, nil
}

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *observe.Metrics

	taskRunner *task.TaskRunner

	devotional *devotional.Aggregator
	chat       *chat.Service
	speech     *speech.Service // nil when transcription is not configured
	audio      *audio.Service  // nil when synthesis is not configured

	closers           []func() error
	shutdownTelemetry func(context.Context) error
}

// newApplication sets up telemetry, connects the backends and builds the
// services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "bibleai-api",
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	b, err := newBackends(ctx, cfg, logger)
	if err != nil {
		return nil, errors.Join(err, shutdownTelemetry(context.Background()))
	}

	app, err := assembleApplication(cfg, logger, metrics, b)
	if err != nil {
		for _, c := range b.closers {
			_ = c()
		}
		return nil, errors.Join(err, shutdownTelemetry(context.Background()))
	}
	app.shutdownTelemetry = shutdownTelemetry
	return app, nil
}

// assembleApplication wires services on top of already connected backends
// and starts the worker pool.
func assembleApplication(
	cfg *config.Config,
	logger *slog.Logger,
	metrics *observe.Metrics,
	b *backends,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		closers: b.closers,
	}

	completer := observe.InstrumentCompleter(b.completer, b.provider, metrics)

	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Generation.WorkerCount,
		QueueSize:   cfg.Generation.QueueSize,
	}, logger)

	var err error
	app.devotional, err = devotional.NewAggregator(
		completer,
		app.taskRunner,
		devotional.Config{
			BatchTimeout: cfg.Generation.BatchTimeout,
			MergeOrder:   devotional.MergeOrder(cfg.Generation.MergeOrder),
		},
		logger,
		devotional.WithRecorder(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create devotional aggregator: %w", err)
	}

	app.chat, err = chat.NewService(completer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat service: %w", err)
	}

	if b.transcriber != nil {
		app.speech, err = speech.NewService(
			observe.InstrumentTranscriber(b.transcriber, "openai", metrics),
			app.chat,
			speech.Config{Model: cfg.Speech.Model, MaxSizeMB: cfg.Speech.MaxUploadMB},
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create speech service: %w", err)
		}
	} else {
		logger.Warn("OpenAI API key not set, speech to text disabled")
	}

	if b.synthesizer != nil {
		app.audio, err = audio.NewService(
			observe.InstrumentSynthesizer(b.synthesizer, "elevenlabs", metrics),
			b.store,
			logger,
			audio.WithClipRecorder(metrics),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create audio service: %w", err)
		}
	}

	app.taskRunner.Start()
	logger.Info("Application initialized successfully",
		"workers", cfg.Generation.WorkerCount,
		"queue_size", cfg.Generation.QueueSize)
	return app, nil
}

// Run serves HTTP until ctx is canceled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the worker pool and releases backend resources.
func (app *application) cleanup(ctx context.Context) {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	for _, c := range app.closers {
		if err := c(); err != nil {
			app.logger.Error("Error closing backend resource", "error", err)
		}
	}

	if app.shutdownTelemetry != nil {
		if err := app.shutdownTelemetry(ctx); err != nil {
			app.logger.Error("Error shutting down telemetry", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
