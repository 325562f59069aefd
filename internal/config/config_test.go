package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultButtonTimings(t *testing.T) {
	b := Default().Button()
	if b.Debounce != 50*time.Millisecond {
		t.Errorf("Debounce: got %v, want 50ms", b.Debounce)
	}
	if b.LongPress != 250*time.Millisecond {
		t.Errorf("LongPress: got %v, want 250ms", b.LongPress)
	}
	if b.LongPressRepeat != 250*time.Millisecond {
		t.Errorf("LongPressRepeat: got %v, want 250ms", b.LongPressRepeat)
	}
	if b.MultiClick != 300*time.Millisecond {
		t.Errorf("MultiClick: got %v, want 300ms", b.MultiClick)
	}
	if !b.ActiveLow {
		t.Error("expected active-low default")
	}
}

func TestLoadWithoutFile(t *testing.T) {
	l, cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Path() != "" {
		t.Errorf("Path: got %q, want empty", l.Path())
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "button.yaml", `
debounce: 20ms
multiclick: 400ms
pin: 27
pull: down
active-low: false
name: doorbell
backend: rpio
`)

	_, cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Debounce != 20*time.Millisecond {
		t.Errorf("Debounce: got %v, want 20ms", cfg.Debounce)
	}
	if cfg.MultiClick != 400*time.Millisecond {
		t.Errorf("MultiClick: got %v, want 400ms", cfg.MultiClick)
	}
	if cfg.Pin != 27 {
		t.Errorf("Pin: got %d, want 27", cfg.Pin)
	}
	if cfg.Pull != "down" {
		t.Errorf("Pull: got %q, want down", cfg.Pull)
	}
	if cfg.ActiveLow {
		t.Error("expected ActiveLow=false")
	}
	if cfg.Name != "doorbell" {
		t.Errorf("Name: got %q, want doorbell", cfg.Name)
	}
	if cfg.Backend != "rpio" {
		t.Errorf("Backend: got %q, want rpio", cfg.Backend)
	}
	// Unset keys keep their defaults
	if cfg.LongPress != 250*time.Millisecond {
		t.Errorf("LongPress: got %v, want default 250ms", cfg.LongPress)
	}
	if cfg.Poll != 10*time.Millisecond {
		t.Errorf("Poll: got %v, want default 10ms", cfg.Poll)
	}
}

func TestOverridesBeatFile(t *testing.T) {
	path := writeConfig(t, "button.yaml", "debounce: 20ms\npin: 27\n")

	_, cfg, err := Load(path, map[string]any{
		KeyDebounce: 75 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Debounce != 75*time.Millisecond {
		t.Errorf("Debounce: got %v, want override 75ms", cfg.Debounce)
	}
	if cfg.Pin != 27 {
		t.Errorf("Pin: got %d, want 27 from file", cfg.Pin)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero poll", "poll: 0s\n"},
		{"negative debounce", "debounce: -5ms\n"},
		{"bad pull", "pull: sideways\n"},
		{"bad backend", "backend: spi\n"},
		{"empty name", "name: \"\"\n"},
		{"negative pin", "pin: -1\n"},
		{"rpio pin out of range", "backend: rpio\npin: 300\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "button.yaml", tt.body)
			if _, _, err := Load(path, nil); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestValidatePinRange(t *testing.T) {
	tests := []struct {
		backend string
		pin     int
		wantErr bool
	}{
		{"rpio", 0, false},
		{"rpio", 53, false},
		{"rpio", 54, true},
		{"rpio", 273, true}, // would wrap to 17 as a byte
		{"cdev", 54, false},
		{"cdev", -1, true},
	}

	for _, tt := range tests {
		c := Default()
		c.Backend = tt.backend
		c.Pin = tt.pin
		if err := c.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s pin %d: err=%v, wantErr=%v", tt.backend, tt.pin, err, tt.wantErr)
		}
	}
}

func TestLiveChanges(t *testing.T) {
	prev := Default()

	next := prev
	next.Debounce = 80 * time.Millisecond
	debounce, restart := LiveChanges(prev, next)
	if !debounce {
		t.Error("expected debounce change")
	}
	if len(restart) != 0 {
		t.Errorf("expected no restart keys, got %v", restart)
	}

	next = prev
	next.Pin = 4
	next.MultiClick = time.Second
	debounce, restart = LiveChanges(prev, next)
	if debounce {
		t.Error("debounce did not change")
	}
	if len(restart) != 2 || restart[0] != KeyMultiClick || restart[1] != KeyPin {
		t.Errorf("restart keys: got %v, want [multiclick pin]", restart)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "button.yaml", "debounce: 20ms\n")

	l, _, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	changes := make(chan Config, 16)
	l.Watch(func(cfg Config) { changes <- cfg })

	if err := os.WriteFile(path, []byte("debounce: 80ms\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Debounce == 80*time.Millisecond {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for config reload")
		}
	}
}
