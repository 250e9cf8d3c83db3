package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked: provider and
// storage changes always require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// SessionChanged is true if any session default changed.
	SessionChanged bool
	Session        SessionDiff
}

// SessionDiff describes which session defaults changed between two configs.
// New sessions pick the changed values up; a session already in progress
// keeps the settings it started with.
type SessionDiff struct {
	PersonalityChanged   bool
	DifficultyChanged    bool
	FeedbackPauseChanged bool
	VADChanged           bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Session.Personality != new.Session.Personality {
		d.Session.PersonalityChanged = true
	}
	if old.Session.Difficulty != new.Session.Difficulty {
		d.Session.DifficultyChanged = true
	}
	if old.Session.FeedbackPauseMS != new.Session.FeedbackPauseMS {
		d.Session.FeedbackPauseChanged = true
	}
	if old.Session.VAD != new.Session.VAD {
		d.Session.VADChanged = true
	}

	sd := d.Session
	d.SessionChanged = sd.PersonalityChanged || sd.DifficultyChanged ||
		sd.FeedbackPauseChanged || sd.VADChanged

	return d
}
