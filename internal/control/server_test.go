package control

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spacemouse-desktop/internal/logging"
)

func listenTemp(t *testing.T) *Server {
	t.Helper()
	// Unix socket paths are short; keep the name small.
	path := filepath.Join(t.TempDir(), "c.sock")
	srv, err := Listen(path, logging.Discard())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

// roundTrip runs one client request against ServeOne.
func roundTrip(t *testing.T, srv *Server, target Target, cmd string) (string, error) {
	t.Helper()
	type result struct {
		resp string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := NewClient(srv.Path()).Send(cmd)
		done <- result{resp, err}
	}()

	if err := srv.ServeOne(target); err != nil {
		t.Fatalf("ServeOne: %v", err)
	}

	select {
	case r := <-done:
		return r.resp, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("client did not finish")
		return "", nil
	}
}

func TestServer_SocketPermissions(t *testing.T) {
	srv := listenTemp(t)

	info, err := os.Stat(srv.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}
	if srv.Fd() < 0 {
		t.Errorf("expected a valid fd, got %d", srv.Fd())
	}
}

func TestServer_ReplacesStaleSocketAndRemovesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.sock")
	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv, err := Listen(path, logging.Discard())
	if err != nil {
		t.Fatalf("Listen over stale file: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected socket removed on close, stat err=%v", err)
	}
}

func TestServer_ClientCommands(t *testing.T) {
	srv := listenTemp(t)
	target := &fakeTarget{names: []string{"default", "Blender", "Web"}}

	resp, err := roundTrip(t, srv, target, "PROFILE web")
	if err != nil || resp != "OK Web\n" {
		t.Fatalf("PROFILE: %q %v", resp, err)
	}

	resp, err = roundTrip(t, srv, target, "STATUS")
	if err != nil {
		t.Fatalf("STATUS: %v", err)
	}
	st, err := ParseStatus(resp)
	if err != nil || st.Active != "Web" || len(st.Profiles) != 3 {
		t.Errorf("unexpected status %+v %v", st, err)
	}

	resp, err = roundTrip(t, srv, target, "RELOAD")
	if err != nil || resp != "OK reloading\n" || target.reloads != 1 {
		t.Errorf("RELOAD: %q %v reloads=%d", resp, err, target.reloads)
	}

	resp, err = roundTrip(t, srv, target, "PROFILE Nope")
	if err != nil || resp != "ERR unknown profile 'Nope'\n" {
		t.Errorf("PROFILE Nope: %q %v", resp, err)
	}
}

func TestServer_ClientHelpers(t *testing.T) {
	srv := listenTemp(t)
	target := &fakeTarget{names: []string{"default", "Blender"}}
	client := NewClient(srv.Path())

	done := make(chan error, 1)
	go func() {
		name, err := client.Profile("BLENDER")
		if err == nil && name != "Blender" {
			t.Errorf("expected Blender, got %q", name)
		}
		done <- err
	}()
	if err := srv.ServeOne(target); err != nil {
		t.Fatalf("ServeOne: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Profile: %v", err)
	}

	go func() {
		_, err := client.Profile("missing")
		done <- err
	}()
	if err := srv.ServeOne(target); err != nil {
		t.Fatalf("ServeOne: %v", err)
	}
	if err := <-done; err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestServer_SilentClientDoesNotFail(t *testing.T) {
	srv := listenTemp(t)
	target := &fakeTarget{names: []string{"default"}}

	conn, err := net.Dial("unix", srv.Path())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.Close()

	if err := srv.ServeOne(target); err != nil {
		t.Errorf("expected silent client to be ignored, got %v", err)
	}
	if target.reloads != 0 || target.active != 0 {
		t.Error("expected no state change")
	}
}

func TestServer_CommandWithoutNewline(t *testing.T) {
	srv := listenTemp(t)
	target := &fakeTarget{names: []string{"default"}}

	done := make(chan string, 1)
	go func() {
		conn, err := net.Dial("unix", srv.Path())
		if err != nil {
			done <- ""
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("STATUS"))
		_ = conn.(*net.UnixConn).CloseWrite()
		buf := make([]byte, MaxResponseLen)
		n, _ := conn.Read(buf)
		done <- string(buf[:n])
	}()

	if err := srv.ServeOne(target); err != nil {
		t.Fatalf("ServeOne: %v", err)
	}
	if resp := <-done; resp != "ACTIVE default\nPROFILES default\n" {
		t.Errorf("unexpected response %q", resp)
	}
}
