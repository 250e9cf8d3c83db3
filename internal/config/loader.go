package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"tts":        {"gemini", "openai"},
	"analysis":   {"gemini"},
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"embeddings": {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
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
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("analysis", cfg.Providers.Analysis.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)

	// Provider availability warnings
	if cfg.Providers.Analysis.Name == "" {
		slog.Warn("providers.analysis is not configured; answers will receive fallback feedback only")
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("providers.tts is not configured; speech playback will use the local synthesizer only")
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("providers.llm is not configured; smart analysis will return canned insights")
	}

	// Embeddings ↔ question index
	if cfg.Providers.Embeddings.Name != "" && cfg.Storage.PostgresDSN == "" {
		slog.Warn("providers.embeddings is configured but storage.postgres_dsn is empty; the semantic question index will not be available")
	}
	if cfg.Providers.Embeddings.Name != "" && cfg.Storage.EmbeddingDimensions <= 0 {
		slog.Warn("providers.embeddings is configured but storage.embedding_dimensions is not set; defaulting to 1536")
	}

	// Storage availability
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; reports will be kept in local files and accounts will not be available")
	}

	// Session defaults
	if cfg.Session.Personality != "" && !cfg.Session.Personality.IsValid() {
		errs = append(errs, fmt.Errorf("session.personality %q is not a recognised interviewer persona", cfg.Session.Personality))
	}
	if cfg.Session.Difficulty != "" && !cfg.Session.Difficulty.IsValid() {
		errs = append(errs, fmt.Errorf("session.difficulty %q is not a recognised difficulty", cfg.Session.Difficulty))
	}
	if cfg.Session.FeedbackPauseMS < 0 {
		errs = append(errs, fmt.Errorf("session.feedback_pause_ms %d must not be negative", cfg.Session.FeedbackPauseMS))
	}
	if cfg.Session.VAD.Threshold < 0 || cfg.Session.VAD.Threshold > 255 {
		errs = append(errs, fmt.Errorf("session.vad.threshold %.2f is out of range [0, 255]", cfg.Session.VAD.Threshold))
	}
	if cfg.Session.VAD.SilenceWindowMS < 0 {
		errs = append(errs, fmt.Errorf("session.vad.silence_window_ms %d must not be negative", cfg.Session.VAD.SilenceWindowMS))
	}

	return errors.Join(errs...)
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
