package control

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"
)

// clientTimeout bounds how long one client may hold the loop.
const clientTimeout = 2 * time.Second

// Server is the control endpoint. It never spawns goroutines: the daemon
// loop polls Fd for readiness and calls ServeOne, which handles exactly one
// client to completion.
type Server struct {
	path     string
	listener *net.UnixListener
	fd       int
	logger   *slog.Logger
}

// Listen creates the control socket at path, replacing a stale one, and
// restricts it to the owning user.
func Listen(path string, logger *slog.Logger) (*Server, error) {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	// Close removes the socket file.
	listener.SetUnlinkOnClose(true)

	if err := os.Chmod(path, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	fd, err := listenerFd(listener)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	logger.Info("control socket listening", "socket", path)

	return &Server{path: path, listener: listener, fd: fd, logger: logger}, nil
}

func listenerFd(l *net.UnixListener) (int, error) {
	raw, err := l.SyscallConn()
	if err != nil {
		return -1, fmt.Errorf("control socket fd: %w", err)
	}
	fd := -1
	if err := raw.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return -1, fmt.Errorf("control socket fd: %w", err)
	}
	return fd, nil
}

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// Fd returns the listening descriptor for readiness polling. It stays
// valid until Close.
func (s *Server) Fd() int { return s.fd }

// ServeOne accepts one client, reads one command, executes it against
// target, writes the response and closes the connection.
//
// Client-side failures (a client that hangs up early or sends nothing) are
// logged and swallowed; only listener failures are returned.
func (s *Server) ServeOne(target Target) error {
	_ = s.listener.SetDeadline(time.Now().Add(clientTimeout))
	conn, err := s.listener.AcceptUnix()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil
		}
		return fmt.Errorf("accept control client: %w", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(clientTimeout))

	line, err := readCommand(conn)
	if err != nil {
		s.logger.Debug("control client read failed", "error", err)
		return nil
	}
	if line == "" {
		return nil
	}

	resp := Execute(line, target)
	s.logger.Debug("control command", "command", line, "response", resp)

	if _, err := conn.Write([]byte(resp)); err != nil {
		s.logger.Debug("control client write failed", "error", err)
	}
	return nil
}

// readCommand reads until the first newline, end of stream, or
// MaxCommandLen-1 bytes, whichever comes first. Anything after the first
// line is ignored.
func readCommand(conn net.Conn) (string, error) {
	buf := make([]byte, MaxCommandLen-1)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if i := bytes.IndexByte(buf[:n], '\n'); i >= 0 {
			return string(buf[:i+1]), nil
		}
		if err != nil {
			if n > 0 && errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
	}
	return string(buf[:n]), nil
}

// Close stops listening and removes the socket file.
func (s *Server) Close() error {
	return s.listener.Close()
}
