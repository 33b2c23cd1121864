// Package config provides the YAML configuration schema and loader for
// netscout.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("90s", "1h") or plain integers (seconds).
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := node.Decode(&n); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return fmt.Errorf("config: invalid duration value")
}

// Config is the root configuration, typically loaded from config.yaml with
// [Load]. Every field has a working default so the binary runs with no file
// at all.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	LLM          LLMConfig          `yaml:"llm"`
	Sessions     SessionConfig      `yaml:"sessions"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

// ServerConfig holds logging and protocol-server settings.
type ServerConfig struct {
	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// LLMConfig selects the chat backend.
type LLMConfig struct {
	// Provider selects the backend: "ollama" (default), "openai",
	// "anthropic", "gemini", "mistral".
	Provider string `yaml:"provider"`

	// Model is the model identifier (default "qwen3:14b" for ollama).
	Model string `yaml:"model"`

	// BaseURL overrides the backend's default endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates hosted backends. Local backends ignore it.
	APIKey string `yaml:"api_key"`

	// TurnTimeout bounds a whole conversational turn.
	TurnTimeout Duration `yaml:"turn_timeout"`
}

// SessionConfig tunes the session manager.
type SessionConfig struct {
	// MaxSessions caps concurrent sessions (default 10).
	MaxSessions int `yaml:"max_sessions"`

	// IdleTimeout evicts sessions inactive this long (default 1h).
	IdleTimeout Duration `yaml:"idle_timeout"`
}

// OrchestratorConfig tunes the LLM tool path.
type OrchestratorConfig struct {
	// NetworkKeywords overrides the protocol-violation keyword list.
	NetworkKeywords []string `yaml:"network_keywords"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{LogLevel: "info"},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "qwen3:14b",
			TurnTimeout: Duration(60 * time.Second),
		},
		Sessions: SessionConfig{
			MaxSessions: 10,
			IdleTimeout: Duration(time.Hour),
		},
	}
}

// Load reads path and merges it over the defaults. A missing file returns
// the defaults without error; a malformed file is a hard error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "qwen3:14b"
	}
	if cfg.LLM.TurnTimeout <= 0 {
		cfg.LLM.TurnTimeout = Duration(60 * time.Second)
	}
	if cfg.Sessions.MaxSessions <= 0 {
		cfg.Sessions.MaxSessions = 10
	}
	if cfg.Sessions.IdleTimeout <= 0 {
		cfg.Sessions.IdleTimeout = Duration(time.Hour)
	}
	return cfg, nil
}
