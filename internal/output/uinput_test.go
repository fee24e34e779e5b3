package output

import (
	"errors"
	"testing"

	evdev "github.com/holoplot/go-evdev"
)

// recordingWriter is a test double for the uinput device
type recordingWriter struct {
	events []evdev.InputEvent
	failAt int
	closed bool
}

func (r *recordingWriter) WriteOne(ev *evdev.InputEvent) error {
	if r.failAt > 0 && len(r.events)+1 == r.failAt {
		r.failAt = 0
		return errors.New("write failed")
	}
	r.events = append(r.events, *ev)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

type wantEvent struct {
	typ   evdev.EvType
	code  evdev.EvCode
	value int32
}

func checkEvents(t *testing.T, got []evdev.InputEvent, want []wantEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Type != w.typ || got[i].Code != w.code || got[i].Value != w.value {
			t.Errorf("event %d: expected %+v, got type=%d code=%d value=%d", i, w, got[i].Type, got[i].Code, got[i].Value)
		}
	}
}

func TestUinput_Scroll(t *testing.T) {
	w := &recordingWriter{}
	u := &Uinput{dev: w}

	if err := u.Emit(-2, 3, 0); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	checkEvents(t, w.events, []wantEvent{
		{evdev.EV_REL, evdev.REL_WHEEL, 3},
		{evdev.EV_REL, evdev.REL_WHEEL_HI_RES, 360},
		{evdev.EV_REL, evdev.REL_HWHEEL, -2},
		{evdev.EV_REL, evdev.REL_HWHEEL_HI_RES, -240},
		{evdev.EV_SYN, evdev.SYN_REPORT, 0},
	})
}

func TestUinput_ZoomHoldsCtrl(t *testing.T) {
	w := &recordingWriter{}
	u := &Uinput{dev: w}

	if err := u.Emit(0, 0, -1); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	checkEvents(t, w.events, []wantEvent{
		{evdev.EV_KEY, evdev.KEY_LEFTCTRL, 1},
		{evdev.EV_SYN, evdev.SYN_REPORT, 0},
		{evdev.EV_REL, evdev.REL_WHEEL, -1},
		{evdev.EV_REL, evdev.REL_WHEEL_HI_RES, -120},
		{evdev.EV_SYN, evdev.SYN_REPORT, 0},
		{evdev.EV_KEY, evdev.KEY_LEFTCTRL, 0},
		{evdev.EV_SYN, evdev.SYN_REPORT, 0},
	})
}

func TestUinput_ZoomReleasesCtrlOnFailure(t *testing.T) {
	// Fail the wheel event after Ctrl went down.
	w := &recordingWriter{failAt: 3}
	u := &Uinput{dev: w}

	if err := u.Emit(0, 0, 2); err == nil {
		t.Fatal("expected error")
	}
	last := w.events[len(w.events)-2]
	if last.Code != evdev.KEY_LEFTCTRL || last.Value != 0 {
		t.Errorf("expected Ctrl release, got %+v", last)
	}
}

func TestUinput_NothingToEmit(t *testing.T) {
	w := &recordingWriter{}
	u := &Uinput{dev: w}
	if err := u.Emit(0, 0, 0); err != nil || len(w.events) != 0 {
		t.Errorf("expected no events, got %d (%v)", len(w.events), err)
	}
	_ = u.Close()
	if !w.closed {
		t.Error("expected Close to close the device")
	}
}

func TestUinput_HugeStepsDoNotWrap(t *testing.T) {
	w := &recordingWriter{}
	u := &Uinput{dev: w}

	if err := u.Emit(0, 1<<40, 0); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.events) < 2 {
		t.Fatalf("expected wheel events, got %+v", w.events)
	}
	if w.events[0].Value <= 0 || w.events[1].Value <= 0 {
		t.Errorf("expected positive wheel values, got %d and %d", w.events[0].Value, w.events[1].Value)
	}
	if w.events[1].Value != maxDetents*hiResPerDetent {
		t.Errorf("expected hi-res value %d, got %d", maxDetents*hiResPerDetent, w.events[1].Value)
	}
}
