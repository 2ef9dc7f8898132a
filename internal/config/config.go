// Package config provides the configuration schema and loader for the
// Sonara voice assistant.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// HistoryBackend selects the conversation history store.
type HistoryBackend string

const (
	HistorySQLite   HistoryBackend = "sqlite"
	HistoryPostgres HistoryBackend = "postgres"
)

// IsValid reports whether b is a recognised history backend.
func (b HistoryBackend) IsValid() bool {
	return b == HistorySQLite || b == HistoryPostgres
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Session   SessionConfig   `yaml:"session"`
	History   HistoryConfig   `yaml:"history"`
}

// ServerConfig holds network and logging settings for the operational HTTP
// endpoints (health and metrics).
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for each
// remote surface.
type ProvidersConfig struct {
	// Live configures the realtime voice backend.
	Live ProviderEntry `yaml:"live"`

	// Chat configures the text-mode fallback backend.
	Chat ProviderEntry `yaml:"chat"`

	// TTS configures on-demand speech synthesis.
	TTS ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "gemini", "openai",
	// "anyllm").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Leave empty to
	// use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Backend names the underlying service for multi-backend providers
	// (the "anyllm" chat provider: "ollama", "anthropic", ...).
	Backend string `yaml:"backend"`

	// Voice is the synthesis voice name for speech-producing providers.
	Voice string `yaml:"voice"`
}

// SessionConfig holds conversation defaults.
type SessionConfig struct {
	// InputLanguage is the language code the user speaks (default "en-US").
	InputLanguage string `yaml:"input_language"`

	// OutputLanguage is the language code the model replies in (default
	// "en-US").
	OutputLanguage string `yaml:"output_language"`

	// Vocabulary lists domain terms for transcript correction.
	Vocabulary []string `yaml:"vocabulary"`
}

// HistoryConfig selects and configures conversation persistence.
type HistoryConfig struct {
	// Backend is "sqlite" (default) or "postgres".
	Backend HistoryBackend `yaml:"backend"`

	// Path is the SQLite database file path.
	Path string `yaml:"path"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`
}
