package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mgpai22/splice/internal/transition"
)

// editor settings read from splice.yaml
type Config struct {
	FrameRate   int64            `yaml:"frame_rate"` // pts per second
	Zoom        float64          `yaml:"zoom"`       // pixels per second
	TrackHeight int              `yaml:"track_height"`
	UndoLevels  int              `yaml:"undo_levels"`
	Drag        DragConfig       `yaml:"drag"`
	Transition  TransitionConfig `yaml:"transition"`
	Export      ExportConfig     `yaml:"export"`
}

// pointer behavior of the drag engine
type DragConfig struct {
	Threshold    int   `yaml:"threshold"`     // pixels before a press becomes a drag
	SnapDistance int   `yaml:"snap_distance"` // pixels
	Snapping     *bool `yaml:"snapping,omitempty"`
	Shift        bool  `yaml:"shift"`
}

// defaults for new transitions
type TransitionConfig struct {
	Kind   string `yaml:"kind"`
	Length int64  `yaml:"length"` // pts, split evenly over in-out transitions
}

type ExportConfig struct {
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
	SampleRate int `yaml:"sample_rate"`
}

func Default() Config {
	return Config{
		FrameRate:   25,
		Zoom:        100,
		TrackHeight: 40,
		UndoLevels:  100,
		Drag: DragConfig{
			Threshold:    4,
			SnapDistance: 8,
			Snapping:     boolPtr(true),
		},
		Transition: TransitionConfig{
			Kind:   "crossfade",
			Length: 20,
		},
		Export: ExportConfig{
			Width:      1280,
			Height:     720,
			SampleRate: 48000,
		},
	}
}

// reads the YAML file at path on top of the defaults. A missing file yields
// the defaults.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// writes the config as YAML
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// fills zero values the YAML left out
func (c *Config) ApplyDefaults() {
	defaults := Default()
	if c.FrameRate == 0 {
		c.FrameRate = defaults.FrameRate
	}
	if c.Zoom == 0 {
		c.Zoom = defaults.Zoom
	}
	if c.TrackHeight == 0 {
		c.TrackHeight = defaults.TrackHeight
	}
	if c.Drag.Snapping == nil {
		c.Drag.Snapping = boolPtr(true)
	}
	if c.Transition.Kind == "" {
		c.Transition.Kind = defaults.Transition.Kind
	}
	if c.Transition.Length == 0 {
		c.Transition.Length = defaults.Transition.Length
	}
	if c.Export.Width == 0 {
		c.Export.Width = defaults.Export.Width
	}
	if c.Export.Height == 0 {
		c.Export.Height = defaults.Export.Height
	}
	if c.Export.SampleRate == 0 {
		c.Export.SampleRate = defaults.Export.SampleRate
	}
}

// checks the settings against the available transition kinds
func (c Config) Validate(registry *transition.Registry) error {
	var errs []error
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame_rate must be positive, got %d", c.FrameRate))
	}
	if c.Zoom <= 0 {
		errs = append(errs, fmt.Errorf("zoom must be positive, got %g", c.Zoom))
	}
	if c.TrackHeight <= 0 {
		errs = append(errs, fmt.Errorf("track_height must be positive, got %d", c.TrackHeight))
	}
	if c.UndoLevels < 0 {
		errs = append(errs, fmt.Errorf("undo_levels must not be negative, got %d", c.UndoLevels))
	}
	if c.Drag.Threshold < 0 || c.Drag.SnapDistance < 0 {
		errs = append(errs, fmt.Errorf("drag distances must not be negative"))
	}
	if c.Transition.Length < 1 {
		errs = append(errs, fmt.Errorf("transition length must be at least 1, got %d", c.Transition.Length))
	}
	if registry != nil {
		if _, err := registry.Lookup(c.Transition.Kind); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 || c.Export.Width%2 != 0 || c.Export.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("export size must be positive and even, got %dx%d", c.Export.Width, c.Export.Height))
	}
	return errors.Join(errs...)
}

// pixels per pts tick
func (c Config) Scale() float64 {
	return c.Zoom / float64(c.FrameRate)
}

func (c Config) SnappingEnabled() bool {
	return c.Drag.Snapping == nil || *c.Drag.Snapping
}

func boolPtr(v bool) *bool {
	return &v
}
