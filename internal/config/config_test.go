package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Timeouts.Notification != 2*time.Second {
		t.Errorf("Timeouts.Notification = %s, want 2s", cfg.Timeouts.Notification)
	}
	if cfg.Timeouts.ParcelFrame != 5*time.Second {
		t.Errorf("Timeouts.ParcelFrame = %s, want 5s", cfg.Timeouts.ParcelFrame)
	}
	if cfg.Reconnect.MaxAttempts != 5 {
		t.Errorf("Reconnect.MaxAttempts = %d, want 5", cfg.Reconnect.MaxAttempts)
	}
	if cfg.Attrs.BatteryCellVoltages != 0x1B {
		t.Errorf("Attrs.BatteryCellVoltages = %#x, want 0x1b", cfg.Attrs.BatteryCellVoltages)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %s, want text", cfg.Log.Format)
	}
}

func TestParseOverridesOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
adapter:
  name: hci1
timeouts:
  notification: 3s
token:
  path: /etc/scootlink/token
log:
  level: debug
  format: json
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Adapter.Name != "hci1" {
		t.Errorf("Adapter.Name = %q, want hci1", cfg.Adapter.Name)
	}
	if cfg.Timeouts.Notification != 3*time.Second {
		t.Errorf("Timeouts.Notification = %s, want 3s", cfg.Timeouts.Notification)
	}
	// Untouched field keeps its default.
	if cfg.Timeouts.ParcelFrame != 5*time.Second {
		t.Errorf("Timeouts.ParcelFrame = %s, want 5s (untouched default)", cfg.Timeouts.ParcelFrame)
	}
	if cfg.Token.Path != "/etc/scootlink/token" {
		t.Errorf("Token.Path = %q, want /etc/scootlink/token", cfg.Token.Path)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want debug/json", cfg.Log)
	}
}

func TestParseRejectsInvalidTimeouts(t *testing.T) {
	_, err := Parse([]byte(`
timeouts:
  notification: 0s
`))
	if err == nil {
		t.Fatal("expected validation error for zero notification timeout")
	}
}

func TestParseRejectsInvalidLogFormat(t *testing.T) {
	_, err := Parse([]byte(`
log:
  format: xml
`))
	if err == nil {
		t.Fatal("expected validation error for unsupported log format")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error loading a nonexistent config file")
	}
}
