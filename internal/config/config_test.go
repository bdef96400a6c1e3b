package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/splice/internal/transition"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "splice.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(transition.Builtin()); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splice.yaml")
	contents := `frame_rate: 30
drag:
  threshold: 2
  snapping: false
transition:
  kind: wipe
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	want := Default()
	want.FrameRate = 30
	want.Drag.Threshold = 2
	want.Drag.Snapping = boolPtr(false)
	want.Transition.Kind = "wipe"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.SnappingEnabled() {
		t.Error("expected snapping to be off")
	}
	if got := cfg.Scale(); got != 100.0/30 {
		t.Errorf("unexpected scale %g", got)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splice.yaml")
	if err := os.WriteFile(path, []byte("frame_rate: [fast"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for invalid yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splice.yaml")
	cfg := Default()
	cfg.Export.Width = 1920
	cfg.Export.Height = 1080
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "frame rate", mutate: func(c *Config) { c.FrameRate = 0 }, want: "frame_rate"},
		{name: "zoom", mutate: func(c *Config) { c.Zoom = -1 }, want: "zoom"},
		{name: "transition kind", mutate: func(c *Config) { c.Transition.Kind = "spin" }, want: "unknown transition kind"},
		{name: "transition length", mutate: func(c *Config) { c.Transition.Length = 0 }, want: "transition length"},
		{name: "odd export size", mutate: func(c *Config) { c.Export.Width = 641 }, want: "export size"},
		{name: "negative drag", mutate: func(c *Config) { c.Drag.Threshold = -1 }, want: "drag distances"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate(transition.Builtin())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected an error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
