package config

import (
	"reflect"
	"slices"
)

// ConfigDiff describes what changed between two configs. Only fields that
// can be safely hot-reloaded are tracked; listen address and TLS changes
// require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// MatcherChanged is true if the matcher name or its options changed.
	MatcherChanged bool

	// EngineChanged is true if any engine tuning value changed.
	EngineChanged bool

	// IngestChanged is true if the filler words or the inaudible text changed.
	IngestChanged bool
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.MatcherChanged || d.EngineChanged || d.IngestChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Matcher.Name != new.Matcher.Name || !reflect.DeepEqual(old.Matcher.Options, new.Matcher.Options) {
		d.MatcherChanged = true
	}

	if old.Engine != new.Engine {
		d.EngineChanged = true
	}

	if !slices.Equal(old.Ingest.FillerWords, new.Ingest.FillerWords) ||
		old.Ingest.InaudibleText != new.Ingest.InaudibleText {
		d.IngestChanged = true
	}

	return d
}
