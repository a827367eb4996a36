package config

import (
	"flag"
	"strings"
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagCatalog    = flag.String("catalog", "", "Material catalog path or URL")
	flagPreset     = flag.String("preset", "", "Initial material preset")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagKiosk      = flag.Bool("kiosk", false, "Run without the control panel (keyboard only)")
	flagNoPostFX   = flag.Bool("no-postfx", false, "Disable the post-processing compositor")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagModels     stringList
	flagExclude    stringList
)

func init() {
	flag.Var(&flagModels, "model", "Model file to load (repeatable, replaces the configured queue)")
	flag.Var(&flagExclude, "exclude", "Mesh name kept out of preset swaps (repeatable)")
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagCatalog != "" {
		cfg.Viewer.Catalog = *flagCatalog
	}
	if *flagPreset != "" {
		cfg.Viewer.DefaultPreset = *flagPreset
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagKiosk {
		cfg.Window.Kiosk = true
	}
	if *flagNoPostFX {
		cfg.PostFX.Enabled = false
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if len(flagModels) > 0 {
		cfg.Viewer.Models = append([]string(nil), flagModels...)
	}
	if len(flagExclude) > 0 {
		cfg.Viewer.ExceptionMeshes = append(cfg.Viewer.ExceptionMeshes, flagExclude...)
	}
}
