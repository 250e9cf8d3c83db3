package config_test

import (
	"testing"

	"github.com/talentecho/talentecho/internal/config"
	"github.com/talentecho/talentecho/pkg/interview"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   config.LogInfo,
		},
		Session: config.SessionConfig{
			Personality:     interview.PersonalityFriendlyHR,
			Difficulty:      interview.DifficultyIntermediate,
			FeedbackPauseMS: 2000,
			VAD: config.VADConfig{
				Threshold:       15,
				SilenceWindowMS: 4000,
			},
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()

	d := config.Diff(old, new)
	if d.LogLevelChanged {
		t.Error("LogLevelChanged should be false for identical configs")
	}
	if d.SessionChanged {
		t.Error("SessionChanged should be false for identical configs")
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Fatal("LogLevelChanged should be true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel: got %q, want %q", d.NewLogLevel, config.LogDebug)
	}
	if d.SessionChanged {
		t.Error("SessionChanged should be false when only the log level changed")
	}
}

func TestDiff_PersonalityChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Session.Personality = interview.PersonalityStrictManager

	d := config.Diff(old, new)
	if !d.SessionChanged {
		t.Fatal("SessionChanged should be true")
	}
	if !d.Session.PersonalityChanged {
		t.Error("PersonalityChanged should be true")
	}
	if d.Session.DifficultyChanged || d.Session.FeedbackPauseChanged || d.Session.VADChanged {
		t.Error("only the personality should be flagged")
	}
}

func TestDiff_VADChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Session.VAD.SilenceWindowMS = 6000

	d := config.Diff(old, new)
	if !d.SessionChanged || !d.Session.VADChanged {
		t.Error("VAD change should flag SessionChanged and VADChanged")
	}
}

func TestDiff_ProviderChangeIsNotTracked(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Providers.TTS.Name = "openai"

	// Provider swaps require a restart and must not show up as hot-reloadable.
	d := config.Diff(old, new)
	if d.LogLevelChanged || d.SessionChanged {
		t.Error("provider change should not produce a hot-reload diff")
	}
}
