package config_test

import (
	"strings"
	"testing"

	"github.com/sonara-voice/sonara/internal/config"
)

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	const doc = `
server:
  listen_addr: ":9090"
  log_level: debug
providers:
  live:
    name: gemini
    api_key: live-key
  chat:
    name: anyllm
    backend: ollama
    model: llama3.2
  tts:
    name: gemini
    api_key: tts-key
    voice: Puck
session:
  input_language: de-DE
  output_language: en-US
  vocabulary: [Sonara, Kubernetes]
history:
  backend: sqlite
  path: /tmp/test.db
`
	cfg, err := config.LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Providers.Chat.Backend != "ollama" {
		t.Errorf("chat backend = %q", cfg.Providers.Chat.Backend)
	}
	if cfg.Providers.TTS.Voice != "Puck" {
		t.Errorf("tts voice = %q", cfg.Providers.TTS.Voice)
	}
	if len(cfg.Session.Vocabulary) != 2 {
		t.Errorf("vocabulary = %v", cfg.Session.Vocabulary)
	}
	if cfg.History.Path != "/tmp/test.db" {
		t.Errorf("history path = %q", cfg.History.Path)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("default listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("default log_level = %q", cfg.Server.LogLevel)
	}
	if cfg.Providers.Live.Name != "gemini" {
		t.Errorf("default live provider = %q", cfg.Providers.Live.Name)
	}
	if cfg.Session.InputLanguage != "en-US" || cfg.Session.OutputLanguage != "en-US" {
		t.Errorf("default languages = %q/%q", cfg.Session.InputLanguage, cfg.Session.OutputLanguage)
	}
	if cfg.History.Backend != config.HistorySQLite || cfg.History.Path != "sonara.db" {
		t.Errorf("default history = %+v", cfg.History)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("serverr:\n  listen_addr: ':1'\n"))
	if err == nil {
		t.Fatal("unknown top-level field accepted")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	const doc = `
server:
  log_level: loud
providers:
  chat:
    name: anyllm
history:
  backend: postgres
`
	_, err := config.LoadFromReader(strings.NewReader(doc))
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	for _, want := range []string{"server.log_level", "providers.chat.backend", "history.postgres_dsn"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidate_InvalidHistoryBackend(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("history:\n  backend: cassette\n"))
	if err == nil || !strings.Contains(err.Error(), "history.backend") {
		t.Errorf("err = %v, want history.backend error", err)
	}
}
