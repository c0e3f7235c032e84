// Package config handles egmtool configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/egm-tools/pkg/egm"
)

// Import output formats.
const (
	FormatOBJ  = "obj"
	FormatGLTF = "gltf"
	FormatGLB  = "glb"
	FormatYAML = "yaml"
)

// Config holds all egmtool settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds settings for writing EGM files.
type ExportConfig struct {
	Author           string `yaml:"author"`
	LOD              []int  `yaml:"lod,flow"`          // [min, max]; empty derives it from the scene
	InlineGroups     bool   `yaml:"inline_groups"`     // group pair inside the normal sub-array
	SkipPaletteCheck bool   `yaml:"skip_palette_check"` // accept objects with differing palettes
}

// ImportConfig holds settings for reading EGM files back into meshes.
type ImportConfig struct {
	Format  string `yaml:"format"`   // obj, gltf, glb or yaml
	OutDir  string `yaml:"out_dir"`  // defaults to the input file's directory
	AllLODs bool   `yaml:"all_lods"` // false writes only the highest LOD
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Author: "",
		},
		Import: ImportConfig{
			Format:  FormatOBJ,
			OutDir:  "",
			AllLODs: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks the values that cannot be checked while parsing.
func (c *Config) Validate() error {
	switch c.Import.Format {
	case FormatOBJ, FormatGLTF, FormatGLB, FormatYAML:
	default:
		return fmt.Errorf("unknown import format %q", c.Import.Format)
	}
	if _, err := c.Export.LODRange(); err != nil {
		return err
	}
	return nil
}

// LODRange returns the configured model range, or nil when it is derived
// from the scene.
func (e ExportConfig) LODRange() (*egm.LODRange, error) {
	switch len(e.LOD) {
	case 0:
		return nil, nil
	case 2:
		r := egm.LODRange{Min: e.LOD[0], Max: e.LOD[1]}
		if !r.Valid() {
			return nil, fmt.Errorf("export LOD range %s is inverted", r)
		}
		return &r, nil
	default:
		return nil, fmt.Errorf("export LOD range needs 2 values, got %d", len(e.LOD))
	}
}
