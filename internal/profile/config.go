// Package profile holds the per-application configuration model: the
// Configuration value object, named Profiles, and the ordered Store with its
// active index. Profiles are loaded from a JSON, YAML or TOML document with
// single-level inheritance from the "default" profile.
package profile

import (
	"strings"
	"time"
)

// Fixed limits of the data model. Inputs beyond them are truncated, never
// rejected.
const (
	NumAxes          = 6
	NumButtons       = 16
	MaxProfiles      = 32
	MaxWindowClasses = 8
	MaxNameLen       = 63

	// MaxScale bounds scroll_speed, zoom_speed and sensitivity.
	MaxScale = 1000.0

	// DefaultName is the name of profile 0, which always exists.
	DefaultName = "default"
)

// Built-in defaults used when the document does not provide a value.
const (
	DefaultDeadzone                = 15
	DefaultScrollSpeed             = 3.0
	DefaultScrollExponent          = 2.0
	DefaultZoomSpeed               = 2.0
	DefaultDesktopSwitchThreshold  = 200
	DefaultDesktopSwitchCooldownMS = 500
	DefaultSensitivity             = 1.0
)

// Axis slot indices, in device order.
const (
	AxisTX = iota
	AxisTY
	AxisTZ
	AxisRX
	AxisRY
	AxisRZ
)

// axisKeys are the document keys of the axis_mapping object, indexed by slot.
var axisKeys = [NumAxes]string{"tx", "ty", "tz", "rx", "ry", "rz"}

// AxisAction is what a motion axis drives.
type AxisAction int

const (
	AxisNone AxisAction = iota
	AxisScrollH
	AxisScrollV
	AxisZoom
	AxisDesktopSwitch
)

var axisActionNames = map[AxisAction]string{
	AxisNone:          "none",
	AxisScrollH:       "scroll_h",
	AxisScrollV:       "scroll_v",
	AxisZoom:          "zoom",
	AxisDesktopSwitch: "desktop_switch",
}

func (a AxisAction) String() string {
	if s, ok := axisActionNames[a]; ok {
		return s
	}
	return "none"
}

// ParseAxisAction maps a document action name to an AxisAction.
// ok is false for names that are not recognised.
func ParseAxisAction(s string) (AxisAction, bool) {
	s = strings.TrimSpace(s)
	for a, name := range axisActionNames {
		if name == s {
			return a, true
		}
	}
	return AxisNone, false
}

// ButtonAction is what a button press triggers.
type ButtonAction int

const (
	ButtonNone ButtonAction = iota
	ButtonOverview
	ButtonShowDesktop
)

var buttonActionNames = map[ButtonAction]string{
	ButtonNone:        "none",
	ButtonOverview:    "overview",
	ButtonShowDesktop: "show_desktop",
}

func (b ButtonAction) String() string {
	if s, ok := buttonActionNames[b]; ok {
		return s
	}
	return "none"
}

// ParseButtonAction maps a document action name to a ButtonAction.
// ok is false for names that are not recognised.
func ParseButtonAction(s string) (ButtonAction, bool) {
	s = strings.TrimSpace(s)
	for b, name := range buttonActionNames {
		if name == s {
			return b, true
		}
	}
	return ButtonNone, false
}

// Config is the full routing configuration of one profile. It is a plain
// value: copying it copies the axis and button maps too.
type Config struct {
	Deadzone       int
	ScrollSpeed    float64
	ScrollExponent float64
	ZoomSpeed      float64
	Sensitivity    float64

	DesktopSwitchThreshold  int
	DesktopSwitchCooldownMS int

	AxisMap   [NumAxes]AxisAction
	ButtonMap [NumButtons]ButtonAction

	InvertScrollX bool
	InvertScrollY bool
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	cfg := Config{
		Deadzone:                DefaultDeadzone,
		ScrollSpeed:             DefaultScrollSpeed,
		ScrollExponent:          DefaultScrollExponent,
		ZoomSpeed:               DefaultZoomSpeed,
		Sensitivity:             DefaultSensitivity,
		DesktopSwitchThreshold:  DefaultDesktopSwitchThreshold,
		DesktopSwitchCooldownMS: DefaultDesktopSwitchCooldownMS,
	}
	cfg.AxisMap[AxisTX] = AxisScrollH
	cfg.AxisMap[AxisTY] = AxisScrollV
	cfg.AxisMap[AxisTZ] = AxisZoom
	cfg.AxisMap[AxisRY] = AxisDesktopSwitch
	cfg.ButtonMap[0] = ButtonOverview
	cfg.ButtonMap[1] = ButtonShowDesktop
	return cfg
}

// AxisActionFor returns the action bound to slot; out-of-range slots map to AxisNone.
func (c *Config) AxisActionFor(slot int) AxisAction {
	if slot < 0 || slot >= NumAxes {
		return AxisNone
	}
	return c.AxisMap[slot]
}

// ButtonActionFor returns the action bound to a button; out-of-range indices map to ButtonNone.
func (c *Config) ButtonActionFor(index int) ButtonAction {
	if index < 0 || index >= NumButtons {
		return ButtonNone
	}
	return c.ButtonMap[index]
}

// DesktopSwitchCooldown is the cooldown as a duration.
func (c *Config) DesktopSwitchCooldown() time.Duration {
	return time.Duration(c.DesktopSwitchCooldownMS) * time.Millisecond
}

// Profile is a named configuration plus the window classes it is meant for.
type Profile struct {
	Name          string
	WindowClasses []string
	Config        Config
}
