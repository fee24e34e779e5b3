package control

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"spacemouse-desktop/internal/runtimepath"
)

// Client sends control commands to a running daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the socket at path. An empty path selects
// the per-user default.
func NewClient(path string) *Client {
	if path == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			// Keep constructor non-failing; Send surfaces connection errors.
			p = ""
		}
		path = p
	}
	return &Client{
		socketPath: path,
		timeout:    5 * time.Second,
	}
}

// SocketPath returns the socket the client connects to.
func (c *Client) SocketPath() string { return c.socketPath }

// Send writes one command and returns the raw response, newline included.
func (c *Client) Send(cmd string) (string, error) {
	if c.socketPath == "" {
		return "", errors.New("no control socket path")
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return "", fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := io.WriteString(conn, strings.TrimRight(cmd, "\r\n")+"\n"); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}

	// The daemon closes the connection after one response.
	resp, err := io.ReadAll(io.LimitReader(conn, MaxResponseLen))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if len(resp) == 0 {
		return "", errors.New("empty response from daemon")
	}
	return string(resp), nil
}

// Profile switches the active profile and returns its canonical name.
func (c *Client) Profile(name string) (string, error) {
	resp, err := c.Send(CmdProfile + " " + name)
	if err != nil {
		return "", err
	}
	return parseOK(resp)
}

// Reload asks the daemon to reload its profile document.
func (c *Client) Reload() error {
	resp, err := c.Send(CmdReload)
	if err != nil {
		return err
	}
	_, err = parseOK(resp)
	return err
}

// Status queries the active profile and the profile list.
func (c *Client) Status() (Status, error) {
	resp, err := c.Send(CmdStatus)
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(resp)
}

// Status is a parsed STATUS response.
type Status struct {
	Active   string
	Profiles []string
}

// ParseStatus parses a STATUS response.
func ParseStatus(resp string) (Status, error) {
	var st Status
	lines := strings.Split(strings.TrimRight(resp, "\n"), "\n")
	if len(lines) < 2 {
		return st, responseError(resp)
	}

	active, ok := strings.CutPrefix(lines[0], "ACTIVE ")
	if !ok {
		return st, responseError(resp)
	}
	list, ok := strings.CutPrefix(lines[1], "PROFILES")
	if !ok {
		return st, responseError(resp)
	}

	st.Active = active
	st.Profiles = strings.Fields(list)
	return st, nil
}

func parseOK(resp string) (string, error) {
	line := strings.TrimRight(resp, "\r\n")
	if rest, ok := strings.CutPrefix(line, "OK "); ok {
		return rest, nil
	}
	return "", responseError(resp)
}

func responseError(resp string) error {
	msg := strings.TrimSpace(resp)
	if rest, ok := strings.CutPrefix(msg, "ERR "); ok {
		return fmt.Errorf("daemon error: %s", rest)
	}
	return fmt.Errorf("unexpected response: %q", msg)
}
