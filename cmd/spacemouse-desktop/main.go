package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"spacemouse-desktop/internal/control"
	"spacemouse-desktop/internal/daemon"
	"spacemouse-desktop/internal/device"
	"spacemouse-desktop/internal/logging"
	"spacemouse-desktop/internal/output"
	"spacemouse-desktop/internal/runtimepath"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("spacemouse-desktop v%s\n", version)
	fmt.Println("SpaceMouse desktop navigation daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  spacemouse-desktop [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Routes 6-DOF motion and button events from a SpaceMouse into scrolling,")
	fmt.Println("  zooming, virtual-desktop switching and window-overview actions, using a")
	fmt.Println("  per-application profile that can be switched at runtime over a control")
	fmt.Println("  socket (see spacemouse-ctl).")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Printf("        Daemon settings file (YAML) (default %q)\n", runtimepath.DefaultDaemonConfigPath())
	fmt.Println()
	fmt.Println("  -c string")
	fmt.Printf("        Profile document (JSON, YAML or TOML) (default %q)\n", runtimepath.DefaultProfilesPath())
	fmt.Println()
	fmt.Println("  -device-source string")
	fmt.Println("        Device source: spnav|evdev (default \"spnav\")")
	fmt.Println()
	fmt.Println("  -spnav-socket string")
	fmt.Printf("        spacenavd socket (default %q)\n", device.DefaultSpnavSocket)
	fmt.Println()
	fmt.Println("  -evdev string")
	fmt.Println("        Read an input event node directly (implies -device-source evdev)")
	fmt.Println()
	fmt.Println("  -desktop string")
	fmt.Println("        Desktop backend: kwin|ewmh|none (default \"kwin\")")
	fmt.Println()
	fmt.Println("  -no-uinput")
	fmt.Println("        Disable the virtual scroll wheel")
	fmt.Println()
	fmt.Println("  -socket string")
	fmt.Println("        Control socket path (default \"$SPACEMOUSE_SOCKET\" or \"$XDG_RUNTIME_DIR/spacemouse-cmd.sock\")")
	fmt.Println()
	fmt.Println("  -watch")
	fmt.Println("        Reload automatically when the profile document changes")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("SIGNALS:")
	fmt.Println("  SIGHUP          reload the profile document")
	fmt.Println("  SIGINT/SIGTERM  shut down")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with spacenavd and KWin")
	fmt.Println("  spacemouse-desktop")
	fmt.Println()
	fmt.Println("  # Read the device node directly on a non-KDE desktop")
	fmt.Println("  spacemouse-desktop -evdev /dev/input/event12 -desktop ewmh")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - The virtual wheel needs write access to /dev/uinput")
	fmt.Println("  - Exits with status 1 when the device cannot be reached")
	fmt.Println()
}

func main() {
	os.Exit(run())
}

func run() int {
	// Check for version/help flags early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return 0
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return 0
		}
	}

	fs := flag.NewFlagSet("spacemouse-desktop", flag.ContinueOnError)
	fs.Usage = printUsage
	var (
		configPath   = fs.String("config", runtimepath.DefaultDaemonConfigPath(), "Daemon settings file (YAML)")
		profilesPath = fs.String("c", "", "Profile document (JSON, YAML or TOML)")
		deviceSource = fs.String("device-source", "", "Device source: spnav|evdev")
		spnavSocket  = fs.String("spnav-socket", "", "spacenavd socket path")
		evdevPath    = fs.String("evdev", "", "Input event node to read directly")
		desktop      = fs.String("desktop", "", "Desktop backend: kwin|ewmh|none")
		noUinput     = fs.Bool("no-uinput", false, "Disable the virtual scroll wheel")
		socketPath   = fs.String("socket", "", "Control socket path")
		watch        = fs.Bool("watch", false, "Reload when the profile document changes")
		logLevelStr  = fs.String("log-level", "", "Log level: error, warn, info, debug")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}

	// Only flags given on the command line override the settings file.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadConfig(*configPath, set["config"])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	var o FlagOverrides
	if set["c"] {
		o.ProfilesPath = profilesPath
	}
	if set["device-source"] {
		o.DeviceSource = deviceSource
	}
	if set["spnav-socket"] {
		o.SpnavSocket = spnavSocket
	}
	if set["evdev"] {
		o.EvdevPath = evdevPath
	}
	if set["desktop"] {
		o.Desktop = desktop
	}
	if set["no-uinput"] {
		o.NoUinput = noUinput
	}
	if set["socket"] {
		o.SocketPath = socketPath
	}
	if set["watch"] {
		o.Watch = watch
	}
	if set["log-level"] {
		o.LogLevel = logLevelStr
	}
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	// Validate() already checked the level.
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.Setup(level)

	return runDaemon(cfg, logger)
}

// runDaemon wires the collaborators and runs the main loop. Only an
// unreachable or lost device is fatal; every other collaborator degrades
// to a warning.
func runDaemon(cfg Config, logger *slog.Logger) int {
	logger.Debug("starting spacemouse-desktop", "version", version)

	src, err := device.Open(cfg.Device.Source, ExpandPath(cfg.Device.SpnavSocket), ExpandPath(cfg.Device.EvdevPath))
	if err != nil {
		logger.Error("failed to open device", "source", cfg.Device.Source, "error", err)
		return 1
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flags := &daemon.Flags{}
	stopSignals := daemon.NotifySignals(ctx, flags)
	defer stopSignals()

	profilesPath := ExpandPath(cfg.Profiles.Path)
	engine := daemon.NewEngineState(profilesPath, flags, logger)

	loop := &daemon.Loop{
		Engine: engine,
		Source: src,
		Flags:  flags,
		Logger: logger,
	}

	if cfg.Output.Uinput {
		if u, err := output.OpenUinput(); err != nil {
			logger.Warn("uinput unavailable, scroll/zoom disabled", "error", err)
		} else {
			loop.Emitter = u
			defer u.Close()
		}
	} else {
		logger.Info("uinput disabled, scroll/zoom disabled")
	}

	if d, err := output.OpenDesktop(cfg.Output.Desktop); err != nil {
		logger.Warn("desktop backend unavailable, desktop actions disabled", "backend", cfg.Output.Desktop, "error", err)
	} else if d != nil {
		loop.Desktop = d
		defer d.Close()
	}

	if cfg.Control.Enabled {
		if srv, err := listenControl(cfg.Control.SocketPath, logger); err != nil {
			logger.Warn("control socket unavailable, profile switching disabled", "error", err)
		} else {
			loop.Control = srv
			defer srv.Close()
		}
	}

	if cfg.Profiles.Watch {
		if w, err := daemon.WatchProfiles(profilesPath, flags, logger); err != nil {
			logger.Warn("profile watch unavailable", "error", err)
		} else {
			defer w.Close()
		}
	}

	logger.Info("listening",
		"device", src.Name(),
		"profile", engine.ActiveProfileName(),
		"profiles", engine.Store().Len(),
		"desktop", cfg.Output.Desktop,
		"uinput", loop.Emitter != nil)

	if err := loop.Run(ctx); err != nil {
		if errors.Is(err, daemon.ErrDeviceLost) {
			logger.Error("device lost", "error", err)
		} else {
			logger.Error("main loop failed", "error", err)
		}
		return 1
	}

	logger.Info("shut down")
	return 0
}

func listenControl(path string, logger *slog.Logger) (*control.Server, error) {
	if path == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return control.Listen(ExpandPath(path), logger)
}
