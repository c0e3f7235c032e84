package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

var (
	flagConfig           = flag.String("config", "", "Path to config file")
	flagDebug            = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile          = flag.String("log-file", "", "Also write logs to this file")
	flagAuthor           = flag.String("author", "", "Author written into exported models")
	flagLOD              = flag.String("lod", "", "Model LOD range as min,max")
	flagInlineGroups     = flag.Bool("inline-groups", false, "Write group pairs inside the normal sub-array")
	flagSkipPaletteCheck = flag.Bool("skip-palette-check", false, "Accept objects whose palettes differ")
	flagFormat           = flag.String("format", "", "Import output format: obj, gltf, glb or yaml")
	flagOut              = flag.String("out", "", "Import output directory")
	flagHighestOnly      = flag.Bool("highest-only", false, "Import only the highest LOD")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the flags: the command and its operands.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagAuthor != "" {
		cfg.Export.Author = *flagAuthor
	}
	if *flagLOD != "" {
		lod, err := parseLOD(*flagLOD)
		if err != nil {
			return err
		}
		cfg.Export.LOD = lod
	}
	if *flagInlineGroups {
		cfg.Export.InlineGroups = true
	}
	if *flagSkipPaletteCheck {
		cfg.Export.SkipPaletteCheck = true
	}
	if *flagFormat != "" {
		cfg.Import.Format = strings.ToLower(*flagFormat)
	}
	if *flagOut != "" {
		cfg.Import.OutDir = *flagOut
	}
	if *flagHighestOnly {
		cfg.Import.AllLODs = false
	}
	return nil
}

// parseLOD parses "min,max".
func parseLOD(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("-lod wants min,max, got %q", s)
	}
	out := make([]int, 2)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("-lod wants integers, got %q", s)
		}
		out[i] = v
	}
	return out, nil
}
