package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and layout checks")
	flagWorkers    = flag.Int("workers", 0, "Extraction worker count (0 = from config)")
	flagSerial     = flag.Bool("serial", false, "Run extraction on the calling goroutine")
	flagMesh       = flag.String("mesh", "", "OBJ file or primitive (cube, grid, points)")
	flagOpen       = flag.Bool("open", false, "Choose the mesh with a file dialog")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// OpenDialog reports whether the mesh should be picked interactively.
func OpenDialog() bool {
	return *flagOpen
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Cache.DebugChecks = true
	}
	if *flagWorkers > 0 {
		cfg.Cache.Workers = *flagWorkers
	}
	if *flagSerial {
		cfg.Cache.Serial = true
	}
	if *flagMesh != "" {
		cfg.Viewer.Mesh = *flagMesh
	}
	if *flagWindowed {
		cfg.Viewer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
}
