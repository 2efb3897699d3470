package logging

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/barriocredito/voxpedido/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   config.LogLevel
		want slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetup_LevelVarControlsThreshold(t *testing.T) {
	log, level := Setup(Options{Level: config.LogWarn, NoColor: true})
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	if log.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info enabled at warn threshold")
	}
	level.Set(slog.LevelDebug)
	if !log.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("debug not enabled after lowering threshold")
	}
}

func TestSetup_FileFanout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxpedido.json")

	log, _ := Setup(Options{Level: config.LogInfo, File: path, NoColor: true})
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	log.Info("order committed", "order_id", 7)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatal("log file is empty")
	}
	var rec map[string]any
	if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "order committed" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["order_id"] != float64(7) {
		t.Errorf("order_id = %v", rec["order_id"])
	}
}

func TestFromConfig(t *testing.T) {
	opts := FromConfig(config.LoggingConfig{
		Level:      config.LogDebug,
		File:       "/tmp/x.json",
		MaxSizeMB:  10,
		MaxBackups: 2,
		MaxAgeDays: 7,
	})
	if opts.Level != config.LogDebug || opts.File != "/tmp/x.json" || opts.MaxSizeMB != 10 {
		t.Errorf("FromConfig = %+v", opts)
	}
}
