// egmtool is a CLI utility for working with EgomModel (.egm) files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/egm-tools/internal/config"
	"github.com/Faultbox/egm-tools/internal/convert"
	"github.com/Faultbox/egm-tools/internal/logger"
	"github.com/Faultbox/egm-tools/pkg/egm"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)

	conv := convert.New(cfg)
	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(conv, args)
	case "export":
		err = cmdExport(conv, args)
	case "import":
		err = cmdImport(conv, args)
	case "lods":
		err = cmdLODs(conv, args)
	case "validate":
		err = cmdValidate(conv, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		err = errUsage
	}

	logger.Sync()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// errUsage reports a usage message that has already been printed.
var errUsage = errors.New("usage")

func usage(line string) error {
	fmt.Fprintln(os.Stderr, "Usage: egmtool "+line)
	return errUsage
}

func printUsage() {
	fmt.Println(`egmtool - EgomModel (.egm) mesh utility

Usage:
  egmtool [flags] <command> [args]

Commands:
  info <file.egm>                  Show header, palette and counts per LOD
  export <scene.yaml> [out.egm]    Build a model from a scene description
  import <file.egm> [out dir]      Write each LOD as OBJ, glTF or a scene
  lods <file.egm> <lod>...         Show what one or more LODs contain
  validate <file.egm>              Check that re-encoding reproduces the file
  config [path]                    Write the current settings as a config file

Flags:
  -config <path>         Config file (default ./egmtool.yaml, then the user config dir)
  -debug                 Enable debug logging
  -log-file <path>       Also write logs to this file
  -author <name>         Author written into exported models
  -lod <min,max>         Model LOD range (default derived from the scene)
  -inline-groups         Write group pairs inside the normal sub-array
  -skip-palette-check    Accept objects whose palettes differ
  -format <fmt>          Import format: obj, gltf, glb or yaml (default obj)
  -out <dir>             Import output directory
  -highest-only          Import only the highest LOD

Examples:
  egmtool info crate.egm
  egmtool -author "Crate Works" export crate.yaml
  egmtool -format glb import crate.egm ./meshes
  egmtool lods crate.egm 0 4`)
}

func cmdInfo(conv *convert.Converter, args []string) error {
	if len(args) < 1 {
		return usage("info <file.egm>")
	}

	m, err := conv.Open(args[0])
	if err != nil {
		return err
	}
	s := m.Stats()

	fmt.Printf("Model:    %s\n", args[0])
	fmt.Printf("Name:     %s\n", m.Name)
	fmt.Printf("Author:   %s\n", m.Author)
	fmt.Printf("Scale:    %s\n", egm.FormatFloat(m.Scale, egm.ScalePlaces))
	fmt.Printf("LOD:      %s\n", m.LOD)
	fmt.Printf("Vertices: %d\n", s.Vertices)
	fmt.Printf("Polygons: %d opaque, %d transparent\n", s.Opaque, s.Transparent)
	fmt.Printf("Shapes:   %d triangles, %d quads, %d n-gons, %d with split normals\n",
		s.Triangles, s.Quads, s.NGons, s.SplitNormal)
	fmt.Println()

	fmt.Println("Palette:")
	for i, c := range m.Palette {
		mark := ""
		if c.Transparent() {
			mark = " (transparent)"
		}
		fmt.Printf("  %-3d %s %s %s %s%s\n", i,
			egm.FormatFloat(c[0], egm.ColorPlaces), egm.FormatFloat(c[1], egm.ColorPlaces),
			egm.FormatFloat(c[2], egm.ColorPlaces), egm.FormatFloat(c[3], egm.ColorPlaces), mark)
	}
	fmt.Println()

	fmt.Println("Per LOD:")
	lods := make([]int, 0, len(s.PerLOD))
	for lod := range s.PerLOD {
		lods = append(lods, lod)
	}
	sort.Ints(lods)
	for _, lod := range lods {
		ls := s.PerLOD[lod]
		fmt.Printf("  %-3d %6d vertices %6d polygons\n", lod, ls.Vertices, ls.Polygons)
	}
	return nil
}

func cmdExport(conv *convert.Converter, args []string) error {
	if len(args) < 1 {
		return usage("export <scene.yaml> [out.egm]")
	}

	out := ""
	if len(args) > 1 {
		out = config.ExpandPath(args[1])
	}
	m, path, err := conv.Export(config.ExpandPath(args[0]), out)
	if err != nil {
		return err
	}

	for _, name := range m.Skipped {
		fmt.Printf("Skipped %s (outside LOD %s)\n", name, m.LOD)
	}
	fmt.Printf("Wrote %s: %d vertices, %d opaque, %d transparent polygons, LOD %s\n",
		path, len(m.Vertices), len(m.Opaque), len(m.Transparent), m.LOD)
	return nil
}

func cmdImport(conv *convert.Converter, args []string) error {
	if len(args) < 1 {
		return usage("import <file.egm> [out dir]")
	}

	outDir := ""
	if len(args) > 1 {
		outDir = config.ExpandPath(args[1])
	}
	files, err := conv.Import(config.ExpandPath(args[0]), outDir)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Printf("Wrote %s\n", f)
	}
	return nil
}

func cmdLODs(conv *convert.Converter, args []string) error {
	if len(args) < 2 {
		return usage("lods <file.egm> <lod>...")
	}

	path := config.ExpandPath(args[0])
	for _, arg := range args[1:] {
		lod, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid LOD %q", arg)
		}
		mesh, err := conv.LOD(path, lod)
		if err != nil {
			return err
		}

		state := "visible"
		if mesh.Hidden {
			state = "hidden"
		}
		fmt.Printf("%s: %d vertices, %d faces, %s\n",
			mesh.Name, len(mesh.UsedVertices()), len(mesh.Faces), state)
	}

	hits, misses := conv.Cache().Stats()
	logger.Debug("model cache", zap.Int("hits", hits), zap.Int("misses", misses))
	return nil
}

func cmdValidate(conv *convert.Converter, args []string) error {
	if len(args) < 1 {
		return usage("validate <file.egm>")
	}

	r, err := conv.Validate(config.ExpandPath(args[0]))
	if err != nil {
		return err
	}

	fmt.Printf("%s: valid, %d vertices, %d polygons\n",
		args[0], r.Stats.Vertices, r.Stats.Opaque+r.Stats.Transparent)
	switch {
	case !r.Identical:
		fmt.Println("Re-encoding differs from the file (not written by a canonical encoder)")
	case r.Inline:
		fmt.Println("Re-encoding is byte-identical (inline group pairs)")
	default:
		fmt.Println("Re-encoding is byte-identical")
	}
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		path := config.ExpandPath(args[0])
		if err := cfg.SaveTo(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}

	path, err := cfg.Save()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
