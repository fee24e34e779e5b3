package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"spacemouse-desktop/internal/device"
	"spacemouse-desktop/internal/logging"
	"spacemouse-desktop/internal/motion"
	"spacemouse-desktop/internal/profile"
)

func writeProfiles(t *testing.T, path, doc string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write profiles: %v", err)
	}
}

const threeProfiles = `{
  "profiles": {
    "default": {"scroll_speed": 3.0},
    "Blender": {"match_wm_class": ["blender"]},
    "Web": {"scroll_speed": 5.0}
  }
}`

func newTestEngine(t *testing.T, doc string) (*EngineState, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	writeProfiles(t, path, doc)
	return NewEngineState(path, &Flags{}, logging.Discard()), path
}

func TestEngine_ReloadKeepsActiveByName(t *testing.T) {
	e, path := newTestEngine(t, threeProfiles)

	if name, ok := e.ActivateProfile("web"); !ok || name != "Web" {
		t.Fatalf("expected Web, got %q %v", name, ok)
	}

	writeProfiles(t, path, `{"profiles": {"Web": {"scroll_speed": 9.0}, "Other": {}}}`)
	e.Reload()
	if got := e.ActiveProfileName(); got != "Web" {
		t.Errorf("expected Web to stay active, got %q", got)
	}
	if got := e.Store().ActiveProfile().Config.ScrollSpeed; got != 9.0 {
		t.Errorf("expected reloaded scroll speed 9, got %v", got)
	}

	writeProfiles(t, path, `{"profiles": {"Other": {}}}`)
	e.Reload()
	if e.Store().Active() != 0 || e.ActiveProfileName() != profile.DefaultName {
		t.Errorf("expected reset to default, got %q", e.ActiveProfileName())
	}
}

func TestEngine_ReloadOfBrokenDocumentFallsBack(t *testing.T) {
	e, path := newTestEngine(t, threeProfiles)
	e.ActivateProfile("Blender")

	writeProfiles(t, path, `{"profiles": `)
	e.Reload()
	if e.Store().Len() != 1 || e.ActiveProfileName() != profile.DefaultName {
		t.Errorf("expected built-in default store, got %v", e.ProfileNames())
	}
}

func TestEngine_ActivateResetsAccumulators(t *testing.T) {
	e, _ := newTestEngine(t, threeProfiles)

	// Small motion leaves a fraction behind.
	e.Route(device.Sample{Kind: device.KindMotion, Axes: [6]int{100}}, time.Now())
	if e.Accumulator() == (motion.Accumulator{}) {
		t.Fatal("expected a carried fraction")
	}

	if _, ok := e.ActivateProfile("nope"); ok {
		t.Fatal("expected unknown profile to fail")
	}
	if e.Accumulator() == (motion.Accumulator{}) {
		t.Error("expected a failed switch to leave the accumulator alone")
	}

	e.ActivateProfile("Web")
	if e.Accumulator() != (motion.Accumulator{}) {
		t.Errorf("expected reset accumulator, got %+v", e.Accumulator())
	}
}

func TestEngine_RouteUsesActiveProfile(t *testing.T) {
	e, _ := newTestEngine(t, `{"profiles": {"Zoomy": {"axis_mapping": {"tx": "zoom"}, "deadzone": 0, "scroll_exponent": 1, "zoom_speed": 2}}}`)
	sample := device.Sample{Kind: device.KindMotion, Axes: [6]int{motion.MaxRaw}}

	cmds := e.Route(sample, time.Now())
	if len(cmds) != 1 || cmds[0].(motion.CmdEmit).DX != 3 {
		t.Errorf("expected default profile to scroll, got %v", cmds)
	}

	e.ActivateProfile("zoomy")
	cmds = e.Route(sample, time.Now())
	if len(cmds) != 1 || cmds[0] != (motion.CmdEmit{DZ: 2}) {
		t.Errorf("expected zoom from Zoomy, got %v", cmds)
	}

	cmds = e.Route(device.Sample{Kind: device.KindButton, Button: 0, Pressed: true}, time.Now())
	if len(cmds) != 1 || cmds[0] != (motion.CmdOverview{}) {
		t.Errorf("expected overview, got %v", cmds)
	}
}

func TestEngine_StatusAndReloadRequest(t *testing.T) {
	flags := &Flags{}
	path := filepath.Join(t.TempDir(), "config.json")
	writeProfiles(t, path, threeProfiles)
	e := NewEngineState(path, flags, logging.Discard())

	names := e.ProfileNames()
	if len(names) != 3 || names[0] != "default" || names[1] != "Blender" || names[2] != "Web" {
		t.Errorf("unexpected names %v", names)
	}

	e.RequestReload()
	if flags.State() != ReloadPending {
		t.Errorf("expected reload pending, got %s", flags.State())
	}
}
