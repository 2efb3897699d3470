package config_test

import (
	"testing"

	"github.com/barriocredito/voxpedido/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Logging: config.LoggingConfig{Level: config.LogInfo},
		Order: config.OrderConfig{
			BuyerID:  "buyer-1",
			Currency: "MXN",
			Locale:   "es-MX",
			Status:   "pendiente",
		},
		Extraction: config.ExtractionConfig{Temperature: 0.2, MaxTokens: 1024},
		Matcher:    config.MatcherConfig{MinSharedTokens: 2, SuggestionThreshold: 0.6},
		Events:     config.EventsConfig{Brokers: []string{"localhost:9092"}, Topic: "orders"},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	if d := config.Diff(old, new); d.Any() {
		t.Errorf("Diff reported changes for identical configs: %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	new.Logging.Level = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("LogLevelChanged not set")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
	if d.OrderChanged || d.ExtractionChanged || d.MatcherChanged || d.EventsChanged {
		t.Errorf("unrelated fields flagged: %+v", d)
	}
}

func TestDiff_SectionChanges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		check  func(config.ConfigDiff) bool
	}{
		{
			name:   "order owner filter",
			mutate: func(c *config.Config) { c.Order.OwnerFilter = "own-2" },
			check:  func(d config.ConfigDiff) bool { return d.OrderChanged },
		},
		{
			name:   "extraction temperature",
			mutate: func(c *config.Config) { c.Extraction.Temperature = 0.5 },
			check:  func(d config.ConfigDiff) bool { return d.ExtractionChanged },
		},
		{
			name:   "matcher threshold",
			mutate: func(c *config.Config) { c.Matcher.SuggestionThreshold = 0.8 },
			check:  func(d config.ConfigDiff) bool { return d.MatcherChanged },
		},
		{
			name:   "events topic",
			mutate: func(c *config.Config) { c.Events.Topic = "orders.v2" },
			check:  func(d config.ConfigDiff) bool { return d.EventsChanged },
		},
		{
			name:   "events brokers",
			mutate: func(c *config.Config) { c.Events.Brokers = []string{"other:9092"} },
			check:  func(d config.ConfigDiff) bool { return d.EventsChanged },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			old, new := baseConfig(), baseConfig()
			tc.mutate(new)
			d := config.Diff(old, new)
			if !tc.check(d) {
				t.Errorf("change not detected: %+v", d)
			}
			if !d.Any() {
				t.Error("Any() = false after a change")
			}
		})
	}
}
