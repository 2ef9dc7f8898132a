// Command sonara is the entry point for the Sonara voice assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/sonara-voice/sonara/internal/app"
	"github.com/sonara-voice/sonara/internal/auth"
	"github.com/sonara-voice/sonara/internal/config"
	"github.com/sonara-voice/sonara/internal/health"
	"github.com/sonara-voice/sonara/internal/history"
	historypg "github.com/sonara-voice/sonara/internal/history/postgres"
	historysqlite "github.com/sonara-voice/sonara/internal/history/sqlite"
	"github.com/sonara-voice/sonara/internal/observe"
	"github.com/sonara-voice/sonara/pkg/device/native"
	chatanyllm "github.com/sonara-voice/sonara/pkg/provider/chat/anyllm"
	chatgemini "github.com/sonara-voice/sonara/pkg/provider/chat/gemini"
	chatopenai "github.com/sonara-voice/sonara/pkg/provider/chat/openai"
	livegemini "github.com/sonara-voice/sonara/pkg/provider/live/gemini"
	ttsgemini "github.com/sonara-voice/sonara/pkg/provider/tts/gemini"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "sonara: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "sonara: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("sonara starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "sonara",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	providers, err := buildProviders(cfg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		slog.Error("failed to open history store", "err", err)
		return 1
	}

	application := app.New(
		app.Config{
			ListenAddr:     cfg.Server.ListenAddr,
			InputLanguage:  cfg.Session.InputLanguage,
			OutputLanguage: cfg.Session.OutputLanguage,
			Voice:          cfg.Providers.Live.Voice,
			TTSVoice:       cfg.Providers.TTS.Voice,
			Vocabulary:     cfg.Session.Vocabulary,
		},
		providers,
		auth.NewMemory(),
		store,
		app.WithLogger(logger),
		app.WithChecker(health.HistoryChecker(store)),
		app.WithChecker(health.DeviceChecker(providers.Devices)),
	)

	slog.Info("sonara ready", "listen_addr", cfg.Server.ListenAddr)

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		slog.Warn("close error", "err", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildProviders instantiates the configured remote surfaces and the native
// audio device platform.
func buildProviders(cfg *config.Config) (app.Providers, error) {
	ps := app.Providers{}

	liveEntry := cfg.Providers.Live
	switch liveEntry.Name {
	case "gemini":
		var opts []livegemini.Option
		if liveEntry.Model != "" {
			opts = append(opts, livegemini.WithModel(liveEntry.Model))
		}
		if liveEntry.BaseURL != "" {
			opts = append(opts, livegemini.WithBaseURL(liveEntry.BaseURL))
		}
		ps.Live = livegemini.New(liveEntry.APIKey, opts...)
	default:
		return ps, fmt.Errorf("unknown live provider %q", liveEntry.Name)
	}

	chatEntry := cfg.Providers.Chat
	switch chatEntry.Name {
	case "gemini":
		var opts []chatgemini.Option
		if chatEntry.Model != "" {
			opts = append(opts, chatgemini.WithModel(chatEntry.Model))
		}
		if chatEntry.BaseURL != "" {
			opts = append(opts, chatgemini.WithBaseURL(chatEntry.BaseURL))
		}
		p, err := chatgemini.New(chatEntry.APIKey, opts...)
		if err != nil {
			return ps, fmt.Errorf("create chat provider: %w", err)
		}
		ps.Chat = p
	case "openai":
		var opts []chatopenai.Option
		if chatEntry.BaseURL != "" {
			opts = append(opts, chatopenai.WithBaseURL(chatEntry.BaseURL))
		}
		p, err := chatopenai.New(chatEntry.APIKey, chatEntry.Model, opts...)
		if err != nil {
			return ps, fmt.Errorf("create chat provider: %w", err)
		}
		ps.Chat = p
	case "anyllm":
		var opts []anyllmlib.Option
		if chatEntry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(chatEntry.APIKey))
		}
		if chatEntry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(chatEntry.BaseURL))
		}
		p, err := chatanyllm.New(chatEntry.Backend, chatEntry.Model, opts...)
		if err != nil {
			return ps, fmt.Errorf("create chat provider: %w", err)
		}
		ps.Chat = p
	default:
		return ps, fmt.Errorf("unknown chat provider %q", chatEntry.Name)
	}

	ttsEntry := cfg.Providers.TTS
	switch ttsEntry.Name {
	case "gemini":
		var opts []ttsgemini.Option
		if ttsEntry.Model != "" {
			opts = append(opts, ttsgemini.WithModel(ttsEntry.Model))
		}
		if ttsEntry.BaseURL != "" {
			opts = append(opts, ttsgemini.WithBaseURL(ttsEntry.BaseURL))
		}
		p, err := ttsgemini.New(ttsEntry.APIKey, opts...)
		if err != nil {
			return ps, fmt.Errorf("create tts provider: %w", err)
		}
		ps.TTS = p
	default:
		return ps, fmt.Errorf("unknown tts provider %q", ttsEntry.Name)
	}

	platform, err := native.New()
	if err != nil {
		return ps, fmt.Errorf("initialise audio devices: %w", err)
	}
	ps.Devices = platform

	slog.Info("providers created",
		"live", liveEntry.Name,
		"chat", chatEntry.Name,
		"tts", ttsEntry.Name,
	)
	return ps, nil
}

// openHistory opens the configured conversation store.
func openHistory(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Backend {
	case config.HistoryPostgres:
		return historypg.Open(ctx, cfg.History.PostgresDSN)
	default:
		return historysqlite.Open(ctx, cfg.History.Path)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
