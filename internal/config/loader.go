package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/sonara-voice/sonara/internal/session"
)

// ValidProviderNames lists known provider names per provider kind. Used by
// [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"live": {"gemini"},
	"chat": {"gemini", "openai", "anyllm"},
	"tts":  {"gemini"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("live", cfg.Providers.Live.Name)
	validateProviderName("chat", cfg.Providers.Chat.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	if cfg.Providers.Chat.Name == "anyllm" && cfg.Providers.Chat.Backend == "" {
		errs = append(errs, fmt.Errorf("providers.chat.backend is required when providers.chat.name is anyllm"))
	}

	if cfg.History.Backend != "" && !cfg.History.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("history.backend %q is invalid; valid values: sqlite, postgres", cfg.History.Backend))
	}
	if cfg.History.Backend == HistoryPostgres && cfg.History.PostgresDSN == "" {
		errs = append(errs, fmt.Errorf("history.postgres_dsn is required when history.backend is postgres"))
	}

	if cfg.Session.InputLanguage != "" && !knownLanguage(cfg.Session.InputLanguage) {
		slog.Warn("unknown input language code", "code", cfg.Session.InputLanguage)
	}
	if cfg.Session.OutputLanguage != "" && !knownLanguage(cfg.Session.OutputLanguage) {
		slog.Warn("unknown output language code", "code", cfg.Session.OutputLanguage)
	}

	return errors.Join(errs...)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Providers.Live.Name == "" {
		cfg.Providers.Live.Name = "gemini"
	}
	if cfg.Providers.Chat.Name == "" {
		cfg.Providers.Chat.Name = "gemini"
	}
	if cfg.Providers.TTS.Name == "" {
		cfg.Providers.TTS.Name = "gemini"
	}
	if cfg.Session.InputLanguage == "" {
		cfg.Session.InputLanguage = "en-US"
	}
	if cfg.Session.OutputLanguage == "" {
		cfg.Session.OutputLanguage = "en-US"
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = HistorySQLite
	}
	if cfg.History.Backend == HistorySQLite && cfg.History.Path == "" {
		cfg.History.Path = "sonara.db"
	}
}

// knownLanguage reports whether code is one of the selectable conversation
// languages.
func knownLanguage(code string) bool {
	return slices.ContainsFunc(session.Languages(), func(l session.Language) bool {
		return l.Code == code
	})
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
