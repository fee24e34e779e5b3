// Package runtimepath resolves the per-user paths shared by the daemon and
// its clients: the control socket and the configuration files.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SocketName is the control socket file name inside the runtime directory.
const SocketName = "spacemouse-cmd.sock"

// SocketEnv overrides the control socket path for both daemon and clients.
const SocketEnv = "SPACEMOUSE_SOCKET"

// runDirs lists the runtime directories to try, best first. The session's
// XDG_RUNTIME_DIR normally equals /run/user/<uid>, which is also where
// existing controllers look for the socket.
func runDirs(getenv func(string) string, uid int) []string {
	var dirs []string
	if d := getenv("XDG_RUNTIME_DIR"); d != "" {
		dirs = append(dirs, d)
	}
	return append(dirs, filepath.Join("/run/user", strconv.Itoa(uid)))
}

// Dir returns the first usable runtime directory. Without one it creates a
// private directory under the system temp dir.
func Dir() (string, error) {
	uid := os.Getuid()
	for _, d := range runDirs(os.Getenv, uid) {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			return d, nil
		}
	}

	fallback := filepath.Join(os.TempDir(), fmt.Sprintf("spacemouse-runtime-%d", uid))
	if err := os.MkdirAll(fallback, 0o700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return fallback, nil
}

// SocketPath returns the control socket path: $SPACEMOUSE_SOCKET when set,
// otherwise SocketName inside Dir.
func SocketPath() (string, error) {
	if p := os.Getenv(SocketEnv); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SocketName), nil
}

// ConfigHome returns XDG_CONFIG_HOME, falling back to ~/.config.
func ConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultProfilesPath is where the profile document lives unless overridden.
func DefaultProfilesPath() string {
	return filepath.Join(ConfigHome(), "spacemouse", "config.json")
}

// DefaultDaemonConfigPath is the daemon settings file location.
func DefaultDaemonConfigPath() string {
	return filepath.Join(ConfigHome(), "spacemouse", "daemon.yaml")
}
