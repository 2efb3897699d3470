package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/barriocredito/voxpedido/internal/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, minimalYAML)

	w, err := config.NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	cfg := w.Current()
	if cfg == nil {
		t.Fatal("Current returned nil")
	}
	if cfg.Order.BuyerID != "buyer-1" {
		t.Errorf("buyer id = %q, want buyer-1", cfg.Order.BuyerID)
	}
}

func TestWatcher_InitialLoadFailure(t *testing.T) {
	if _, err := config.NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("NewWatcher accepted missing file")
	}
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, minimalYAML)

	changed := make(chan *config.Config, 1)
	w, err := config.NewWatcher(path,
		func(old, new *config.Config) { changed <- new },
		config.WithDebounce(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	updated := strings.Replace(minimalYAML, "buyer_id: buyer-1", "buyer_id: buyer-2", 1)
	writeConfig(t, path, updated)

	select {
	case cfg := <-changed:
		if cfg.Order.BuyerID != "buyer-2" {
			t.Errorf("reloaded buyer id = %q, want buyer-2", cfg.Order.BuyerID)
		}
		if w.Current().Order.BuyerID != "buyer-2" {
			t.Error("Current not updated after reload")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}

func TestWatcher_KeepsPreviousOnInvalidEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, minimalYAML)

	changed := make(chan *config.Config, 1)
	w, err := config.NewWatcher(path,
		func(old, new *config.Config) { changed <- new },
		config.WithDebounce(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, "logging:\n  level: loud\n")

	select {
	case <-changed:
		t.Fatal("callback fired for invalid config")
	case <-time.After(500 * time.Millisecond):
	}

	if w.Current().Order.BuyerID != "buyer-1" {
		t.Error("previous config lost after invalid edit")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, minimalYAML)

	w, err := config.NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Stop()
	w.Stop()
}
