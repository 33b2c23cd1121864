package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "ollama" || cfg.Sessions.MaxSessions != 10 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `llm:
  provider: openai
  model: gpt-4o
  turn_timeout: 90s
sessions:
  max_sessions: 3
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.TurnTimeout.Std() != 90*time.Second {
		t.Errorf("turn_timeout = %v", cfg.LLM.TurnTimeout)
	}
	if cfg.Sessions.MaxSessions != 3 {
		t.Errorf("max_sessions = %d", cfg.Sessions.MaxSessions)
	}
	// Untouched sections keep their defaults.
	if cfg.Sessions.IdleTimeout.Std() != time.Hour {
		t.Errorf("idle_timeout = %v", cfg.Sessions.IdleTimeout)
	}
}

func TestLoadMalformed(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("llm: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed YAML accepted")
	}
}
