// Package convert runs egmtool's conversions: scene descriptions to EGM
// files and EGM files back to per-LOD meshes.
package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/egm-tools/internal/config"
	"github.com/Faultbox/egm-tools/internal/logger"
	"github.com/Faultbox/egm-tools/pkg/egm"
	"github.com/Faultbox/egm-tools/pkg/encoding"
	"github.com/Faultbox/egm-tools/pkg/export"
	"github.com/Faultbox/egm-tools/pkg/scene"
)

// Extension is the file extension of EGM models.
const Extension = ".egm"

// Converter performs conversions using one configuration.
type Converter struct {
	cfg   *config.Config
	cache *Cache
	log   *zap.Logger
}

// New creates a converter. A nil cfg uses config.Default.
func New(cfg *config.Config) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Converter{
		cfg:   cfg,
		cache: NewCache(),
		log:   logger.Named("convert"),
	}
}

// Cache returns the converter's model cache.
func (c *Converter) Cache() *Cache {
	return c.cache
}

// Open decodes an EGM file, reusing an earlier decode of the same path.
func (c *Converter) Open(path string) (*egm.Model, error) {
	if m, ok := c.cache.Get(path); ok {
		return m, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer f.Close()

	m, err := egm.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	c.log.Debug("model decoded",
		zap.String("path", path),
		zap.String("name", m.Name),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("opaque", len(m.Opaque)),
		zap.Int("transparent", len(m.Transparent)),
	)

	c.cache.Set(path, m)
	return m, nil
}

// Export builds a model from the scene at scenePath and writes it to
// outPath, or next to the scene with the .egm extension when outPath is
// empty. It returns the model and the path written.
func (c *Converter) Export(scenePath, outPath string) (*egm.Model, string, error) {
	sc, err := scene.Load(scenePath)
	if err != nil {
		return nil, "", err
	}
	opts, err := sc.BuildOptions()
	if err != nil {
		return nil, "", err
	}
	sources, err := sc.Sources()
	if err != nil {
		return nil, "", err
	}

	if c.cfg.Export.Author != "" {
		opts.Author = encoding.NormalizeText(c.cfg.Export.Author)
	}
	lod, err := c.cfg.Export.LODRange()
	if err != nil {
		return nil, "", err
	}
	if lod != nil {
		opts.LOD = lod
	}
	opts.SkipPaletteCheck = c.cfg.Export.SkipPaletteCheck

	model, err := egm.Build(sources, opts)
	if err != nil {
		return nil, "", fmt.Errorf("building %s: %w", scenePath, err)
	}
	for _, name := range model.Skipped {
		c.log.Warn("source outside model LOD range, skipped",
			zap.String("source", name),
			zap.Stringer("lod", model.LOD),
		)
	}

	data, err := egm.Marshal(model, egm.EncodeOptions{InlineGroups: c.cfg.Export.InlineGroups})
	if err != nil {
		return nil, "", fmt.Errorf("encoding %s: %w", model.Name, err)
	}

	if outPath == "" {
		outPath = strings.TrimSuffix(scenePath, filepath.Ext(scenePath)) + Extension
	}
	if err := writeFile(outPath, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return nil, "", err
	}
	c.cache.Forget(outPath)

	c.log.Info("model exported",
		zap.String("scene", scenePath),
		zap.String("output", outPath),
		zap.Int("sources", len(sources)),
		zap.Int("skipped", len(model.Skipped)),
		zap.Int("vertices", len(model.Vertices)),
		zap.Int("opaque", len(model.Opaque)),
		zap.Int("transparent", len(model.Transparent)),
		zap.Stringer("lod", model.LOD),
		zap.Int("bytes", len(data)),
	)
	return model, outPath, nil
}

// Meshes reconstructs the LODs selected by the import settings: all of
// them, or only the highest.
func (c *Converter) Meshes(m *egm.Model) ([]*egm.Mesh, error) {
	if c.cfg.Import.AllLODs {
		return egm.ReconstructAll(m)
	}
	mesh, err := egm.Reconstruct(m, m.LOD.Max)
	if err != nil {
		return nil, err
	}
	mesh.Hidden = false
	return []*egm.Mesh{mesh}, nil
}

// Import reconstructs the model at path and writes it in the configured
// format to outDir, or to the model's directory when outDir and the
// configured output directory are empty. It returns the files written.
func (c *Converter) Import(path, outDir string) ([]string, error) {
	m, err := c.Open(path)
	if err != nil {
		return nil, err
	}
	meshes, err := c.Meshes(m)
	if err != nil {
		return nil, err
	}

	if outDir == "" {
		outDir = c.cfg.Import.OutDir
	}
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	base := encoding.SanitizeName(m.Name)
	var written []string
	switch c.cfg.Import.Format {
	case config.FormatOBJ:
		written, err = c.importOBJ(m, meshes, outDir, base)
	case config.FormatGLTF, config.FormatGLB:
		written, err = c.importGLTF(m, meshes, outDir, base)
	case config.FormatYAML:
		written, err = c.importScene(m, meshes, outDir, base)
	default:
		err = fmt.Errorf("unknown import format %q", c.cfg.Import.Format)
	}
	if err != nil {
		return nil, err
	}

	c.log.Info("model imported",
		zap.String("model", path),
		zap.String("format", c.cfg.Import.Format),
		zap.Int("lods", len(meshes)),
		zap.Strings("files", written),
	)
	return written, nil
}

func (c *Converter) importOBJ(m *egm.Model, meshes []*egm.Mesh, outDir, base string) ([]string, error) {
	mtlName := base + ".mtl"
	mtlPath := filepath.Join(outDir, mtlName)
	if err := writeFile(mtlPath, func(w io.Writer) error {
		return export.WriteMTL(w, m.Palette)
	}); err != nil {
		return nil, err
	}
	written := []string{mtlPath}

	for _, mesh := range meshes {
		objPath := filepath.Join(outDir, encoding.SanitizeName(mesh.Name)+".obj")
		if err := writeFile(objPath, func(w io.Writer) error {
			return export.WriteOBJ(w, mesh, mtlName)
		}); err != nil {
			return nil, err
		}
		c.log.Debug("LOD written",
			zap.Int("lod", mesh.LOD),
			zap.Int("faces", len(mesh.Faces)),
			zap.String("path", objPath),
		)
		written = append(written, objPath)
	}
	return written, nil
}

func (c *Converter) importGLTF(m *egm.Model, meshes []*egm.Mesh, outDir, base string) ([]string, error) {
	doc, err := export.GLTF(meshes, m.Name)
	if err != nil {
		return nil, err
	}
	binary := c.cfg.Import.Format == config.FormatGLB
	outPath := filepath.Join(outDir, base+"."+c.cfg.Import.Format)
	if err := writeFile(outPath, func(w io.Writer) error {
		return export.WriteGLTF(w, doc, binary)
	}); err != nil {
		return nil, err
	}
	return []string{outPath}, nil
}

func (c *Converter) importScene(m *egm.Model, meshes []*egm.Mesh, outDir, base string) ([]string, error) {
	sc := scene.FromMeshes(meshes, m.Name, m.Author)
	outPath := filepath.Join(outDir, base+".yaml")
	if err := writeFile(outPath, sc.Write); err != nil {
		return nil, err
	}
	return []string{outPath}, nil
}

// Report is the outcome of Validate.
type Report struct {
	Model *egm.Model
	Stats egm.Stats

	// Identical is true when re-encoding the decoded model reproduces the
	// file byte for byte. Inline tells which group pair form did.
	Identical bool
	Inline    bool
}

// Validate decodes the model at path and re-encodes it in both group pair
// forms, reporting whether either reproduces the file.
func (c *Converter) Validate(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	m, err := egm.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	c.cache.Set(path, m)

	r := &Report{Model: m, Stats: m.Stats()}
	for _, inline := range []bool{false, true} {
		out, err := egm.Marshal(m, egm.EncodeOptions{InlineGroups: inline})
		if err != nil {
			return nil, fmt.Errorf("re-encoding %s: %w", path, err)
		}
		if bytes.Equal(out, bytes.TrimSpace(data)) {
			r.Identical = true
			r.Inline = inline
			break
		}
	}

	c.log.Debug("model validated",
		zap.String("path", path),
		zap.Bool("identical", r.Identical),
	)
	return r, nil
}

// LOD reconstructs a single LOD of the model at path.
func (c *Converter) LOD(path string, lod int) (*egm.Mesh, error) {
	m, err := c.Open(path)
	if err != nil {
		return nil, err
	}
	return egm.Reconstruct(m, lod)
}

// writeFile writes through a temporary file in the destination directory
// and renames it into place, so a failed write leaves no output.
func writeFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".egmtool-*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
