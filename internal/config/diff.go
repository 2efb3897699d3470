package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; everything else
// (providers, store, server addresses) requires a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// OrderChanged is true when currency, locale, owner filter, buyer id, or
	// initial status changed.
	OrderChanged bool

	// ExtractionChanged is true when temperature or max tokens changed.
	ExtractionChanged bool

	// MatcherChanged is true when matching thresholds changed.
	MatcherChanged bool

	// EventsChanged is true when brokers or topic changed.
	EventsChanged bool
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.OrderChanged || d.ExtractionChanged || d.MatcherChanged || d.EventsChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Logging.Level != new.Logging.Level {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Logging.Level
	}
	if old.Order != new.Order {
		d.OrderChanged = true
	}
	if old.Extraction != new.Extraction {
		d.ExtractionChanged = true
	}
	if old.Matcher != new.Matcher {
		d.MatcherChanged = true
	}
	if !slices.Equal(old.Events.Brokers, new.Events.Brokers) || old.Events.Topic != new.Events.Topic {
		d.EventsChanged = true
	}

	return d
}
