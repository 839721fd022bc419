package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	reloaded := make(chan *Config, 1)
	loader := NewLoader().WithConfigFile(configPath)
	w := NewWatcher(loader, configPath, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register before we touch the file.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configPath, []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Log.Level != "debug" {
			t.Errorf("log.level = %q, want debug", cfg.Log.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Watch() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatcher_IgnoresInvalidReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	called := make(chan struct{}, 1)
	loader := NewLoader().WithConfigFile(configPath)
	w := NewWatcher(loader, configPath, func(*Config) {
		select {
		case called <- struct{}{}:
		default:
		}
	})

	// Broken YAML must not reach the callback.
	if err := os.WriteFile(configPath, []byte("log: [unclosed"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	w.reload()

	select {
	case <-called:
		t.Fatal("callback fired for invalid config")
	default:
	}
}
