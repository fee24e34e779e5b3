package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"spacemouse-desktop/internal/control"
	"spacemouse-desktop/internal/device"
	"spacemouse-desktop/internal/logging"
	"spacemouse-desktop/internal/motion"
)

// pipeSource is a test double for device.Source. Samples are queued in
// memory; a byte on the pipe makes the source readable and closing the
// write end makes it hang up.
type pipeSource struct {
	r, w    int
	mu      sync.Mutex
	samples []device.Sample
}

func newPipeSource(t *testing.T) *pipeSource {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	s := &pipeSource{r: fds[0], w: fds[1]}
	t.Cleanup(func() {
		_ = unix.Close(s.r)
		s.hangup()
	})
	return s
}

func (s *pipeSource) push(samples ...device.Sample) {
	s.mu.Lock()
	s.samples = append(s.samples, samples...)
	s.mu.Unlock()
	_, _ = unix.Write(s.w, []byte{1})
}

func (s *pipeSource) hangup() {
	if s.w >= 0 {
		_ = unix.Close(s.w)
		s.w = -1
	}
}

func (s *pipeSource) Fd() int      { return s.r }
func (s *pipeSource) Name() string { return "pipe" }
func (s *pipeSource) Close() error { return nil }

func (s *pipeSource) ReadSamples(dst []device.Sample) ([]device.Sample, error) {
	buf := make([]byte, 64)
	var err error
	for {
		n, rerr := unix.Read(s.r, buf)
		if rerr == unix.EAGAIN {
			break
		}
		if rerr != nil || n == 0 {
			err = device.ErrLost
			break
		}
	}

	s.mu.Lock()
	dst = append(dst, s.samples...)
	s.samples = nil
	s.mu.Unlock()
	return dst, err
}

// recordingEmitter is a test double for output.Emitter
type recordingEmitter struct {
	emits [][3]int
}

func (r *recordingEmitter) Emit(dx, dy, dz int) error {
	r.emits = append(r.emits, [3]int{dx, dy, dz})
	return nil
}
func (r *recordingEmitter) Close() error { return nil }

// recordingDesktop is a test double for output.Desktop
type recordingDesktop struct {
	calls []string
}

func (r *recordingDesktop) SwitchDesktop(dir motion.Direction) error {
	r.calls = append(r.calls, "switch:"+dir.String())
	return nil
}
func (r *recordingDesktop) Overview() error {
	r.calls = append(r.calls, "overview")
	return nil
}
func (r *recordingDesktop) ShowDesktop(shown bool) error {
	if shown {
		r.calls = append(r.calls, "show")
	} else {
		r.calls = append(r.calls, "hide")
	}
	return nil
}
func (r *recordingDesktop) Close() error { return nil }

func newTestLoop(t *testing.T, src device.Source) (*Loop, *recordingEmitter, *recordingDesktop) {
	t.Helper()
	flags := &Flags{}
	engine, _ := newTestEngine(t, threeProfiles)
	engine.flags = flags

	em, dt := &recordingEmitter{}, &recordingDesktop{}
	return &Loop{
		Engine:      engine,
		Source:      src,
		Emitter:     em,
		Desktop:     dt,
		Flags:       flags,
		Logger:      logging.Discard(),
		PollTimeout: 10 * time.Millisecond,
	}, em, dt
}

func TestLoop_RoutesSamplesThenStopsOnHangup(t *testing.T) {
	src := newPipeSource(t)
	loop, em, dt := newTestLoop(t, src)

	src.push(
		device.Sample{Kind: device.KindMotion, Axes: [6]int{motion.MaxRaw}},
		device.Sample{Kind: device.KindMotion, Axes: [6]int{0, 0, 0, 0, 300, 0}},
		device.Sample{Kind: device.KindButton, Button: 1, Pressed: true},
		device.Sample{Kind: device.KindButton, Button: 1, Pressed: false},
		device.Sample{Kind: device.KindButton, Button: 0, Pressed: true},
	)
	src.hangup()

	err := loop.Run(context.Background())
	if !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost, got %v", err)
	}

	if len(em.emits) != 1 || em.emits[0] != [3]int{3, 0, 0} {
		t.Errorf("unexpected emits %v", em.emits)
	}
	want := []string{"switch:next", "show", "overview"}
	if len(dt.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, dt.calls)
	}
	for i := range want {
		if dt.calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], dt.calls[i])
		}
	}
}

func TestLoop_ShutdownBeforeSamples(t *testing.T) {
	src := newPipeSource(t)
	loop, em, _ := newTestLoop(t, src)

	src.push(device.Sample{Kind: device.KindMotion, Axes: [6]int{motion.MaxRaw}})
	loop.Flags.RequestShutdown()

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	if len(em.emits) != 0 {
		t.Errorf("expected no samples processed after shutdown, got %v", em.emits)
	}
}

func TestLoop_ContextCancelStops(t *testing.T) {
	src := newPipeSource(t)
	loop, _, _ := newTestLoop(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoop_ReloadHappensBeforeRouting(t *testing.T) {
	src := newPipeSource(t)
	loop, em, _ := newTestLoop(t, src)
	loop.Engine.ActivateProfile("Web")

	writeProfiles(t, loop.Engine.profilesPath, `{"profiles": {"Web": {"axis_mapping": {"tx": "none"}}}}`)
	loop.Flags.RequestReload()

	src.push(device.Sample{Kind: device.KindMotion, Axes: [6]int{motion.MaxRaw}})
	src.hangup()

	if err := loop.Run(context.Background()); !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost, got %v", err)
	}
	if loop.Engine.ActiveProfileName() != "Web" {
		t.Errorf("expected Web active after reload, got %q", loop.Engine.ActiveProfileName())
	}
	if len(em.emits) != 0 {
		t.Errorf("expected reloaded mapping to suppress scrolling, got %v", em.emits)
	}
	if loop.Flags.State() != Running {
		t.Errorf("expected reload flag cleared, got %s", loop.Flags.State())
	}
}

func TestLoop_ServesControlClients(t *testing.T) {
	src := newPipeSource(t)
	loop, _, _ := newTestLoop(t, src)

	srv, err := control.Listen(filepath.Join(t.TempDir(), "c.sock"), logging.Discard())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer srv.Close()
	loop.Control = srv

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	client := control.NewClient(srv.Path())
	name, err := client.Profile("BLENDER")
	if err != nil || name != "Blender" {
		t.Fatalf("PROFILE: %q %v", name, err)
	}
	st, err := client.Status()
	if err != nil || st.Active != "Blender" {
		t.Fatalf("STATUS: %+v %v", st, err)
	}
	if err := client.Reload(); err != nil {
		t.Fatalf("RELOAD: %v", err)
	}

	loop.Flags.RequestShutdown()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}

	if loop.Engine.ActiveProfileName() != "Blender" {
		t.Errorf("expected Blender to survive the reload, got %q", loop.Engine.ActiveProfileName())
	}
}
