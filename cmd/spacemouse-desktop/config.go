package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"spacemouse-desktop/internal/device"
	"spacemouse-desktop/internal/logging"
	"spacemouse-desktop/internal/output"
	"spacemouse-desktop/internal/runtimepath"
)

// Config is the daemon's own settings file. It says where the device,
// outputs, control socket and profile document are; the profiles
// themselves live in a separate document that can be reloaded at runtime.
//
// Keep defaults and validation centralized so the rest of the code can
// assume a well-formed config.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Output   OutputConfig   `yaml:"output"`
	Control  ControlConfig  `yaml:"control"`
	Profiles ProfilesConfig `yaml:"profiles"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DeviceConfig struct {
	Source      string `yaml:"source"` // "spnav" or "evdev"
	SpnavSocket string `yaml:"spnav_socket"`
	EvdevPath   string `yaml:"evdev_path,omitempty"`
}

type OutputConfig struct {
	Uinput  bool   `yaml:"uinput"`
	Desktop string `yaml:"desktop"` // "kwin", "ewmh" or "none"
}

type ControlConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SocketPath string `yaml:"socket_path,omitempty"` // empty: per-user runtime dir
}

type ProfilesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{
			Source:      device.SourceSpnav,
			SpnavSocket: device.DefaultSpnavSocket,
		},
		Output: OutputConfig{
			Uinput:  true,
			Desktop: output.DesktopKWin,
		},
		Control: ControlConfig{
			Enabled: true,
		},
		Profiles: ProfilesConfig{
			Path: runtimepath.DefaultProfilesPath(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		// An empty file keeps the defaults.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// loadConfig resolves the settings file: an explicitly named file must
// exist, the default one may be missing.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg, err := LoadConfigFile(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return Config{}, err
}

// FlagOverrides holds flag values to apply on top of the file. Each
// override is only applied if its pointer is non-nil, even when the value
// is a zero value.
type FlagOverrides struct {
	DeviceSource *string
	SpnavSocket  *string
	EvdevPath    *string

	NoUinput *bool
	Desktop  *string

	SocketPath *string

	ProfilesPath *string
	Watch        *bool

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.DeviceSource != nil {
		cfg.Device.Source = *o.DeviceSource
	}
	if o.SpnavSocket != nil {
		cfg.Device.SpnavSocket = *o.SpnavSocket
	}
	if o.EvdevPath != nil {
		cfg.Device.EvdevPath = *o.EvdevPath
		// Naming a node implies reading it.
		if o.DeviceSource == nil {
			cfg.Device.Source = device.SourceEvdev
		}
	}

	if o.NoUinput != nil {
		cfg.Output.Uinput = !*o.NoUinput
	}
	if o.Desktop != nil {
		cfg.Output.Desktop = *o.Desktop
	}

	if o.SocketPath != nil {
		cfg.Control.SocketPath = *o.SocketPath
	}

	if o.ProfilesPath != nil {
		cfg.Profiles.Path = *o.ProfilesPath
	}
	if o.Watch != nil {
		cfg.Profiles.Watch = *o.Watch
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	switch c.Device.Source {
	case device.SourceSpnav:
		if c.Device.SpnavSocket == "" {
			return errors.New("device.spnav_socket must not be empty")
		}
	case device.SourceEvdev:
		if c.Device.EvdevPath == "" {
			return errors.New("device.evdev_path must be set when device.source is \"evdev\"")
		}
	default:
		return fmt.Errorf("device.source must be %q or %q", device.SourceSpnav, device.SourceEvdev)
	}

	switch c.Output.Desktop {
	case output.DesktopKWin, output.DesktopEWMH, output.DesktopNone:
	default:
		return fmt.Errorf("output.desktop must be one of %q, %q, %q", output.DesktopKWin, output.DesktopEWMH, output.DesktopNone)
	}

	if c.Profiles.Path == "" {
		return errors.New("profiles.path must not be empty")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
// If expansion fails, the original path is returned.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
