// Package scene reads and writes scene descriptions: the source objects an
// EGM model is built from, in YAML (or JSON, which YAML accepts).
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/egm-tools/pkg/egm"
	"github.com/Faultbox/egm-tools/pkg/encoding"
	"github.com/Faultbox/egm-tools/pkg/math"
)

// ErrInvalidScene is returned for scene files that cannot be turned into sources.
var ErrInvalidScene = errors.New("invalid scene")

// Scene is a model description made of one object per LOD variant.
type Scene struct {
	Name    string   `yaml:"name,omitempty"`
	Author  string   `yaml:"author,omitempty"`
	LOD     Tuple    `yaml:"lod,omitempty"`     // [min, max]; derived from the objects when empty
	Palette []Tuple  `yaml:"palette,omitempty"` // RGB or RGBA; overrides the first object's palette
	Objects []Object `yaml:"objects"`
}

// Object is one source object.
type Object struct {
	Name     string           `yaml:"name"`
	LOD      Tuple            `yaml:"lod,omitempty"`
	Scale    float64          `yaml:"scale,omitempty"`
	Palette  []Tuple          `yaml:"palette,omitempty"`
	Vertices []Tuple          `yaml:"vertices"`
	Groups   map[string]Tuple `yaml:"groups,omitempty"` // one weight per vertex
	Polygons []Polygon        `yaml:"polygons"`
}

// Polygon is one face of an object.
type Polygon struct {
	Vertices []int   `yaml:"vertices,flow"`
	Material int     `yaml:"material,omitempty"`
	UV       []Tuple `yaml:"uv,omitempty"`
	Normals  []Tuple `yaml:"normals,omitempty"` // one per corner
	Normal   Tuple   `yaml:"normal,omitempty"`  // face normal; computed when empty
}

// Tuple is a short list of numbers, written on a single line.
type Tuple []float64

// MarshalYAML writes the tuple in flow style.
func (t Tuple) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range t {
		n.Content = append(n.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(v, 'f', -1, 64),
		})
	}
	return n, nil
}

// Load reads a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = encoding.ModelName(path)
	}
	return s, nil
}

// Parse decodes a scene. Unknown keys are rejected.
func Parse(data []byte) (*Scene, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scene
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScene)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if len(s.Objects) == 0 {
		return nil, fmt.Errorf("%w: no objects", ErrInvalidScene)
	}
	return &s, nil
}

// Write encodes s as YAML.
func (s *Scene) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	return enc.Close()
}

// Save writes s to path.
func (s *Scene) Save(path string) error {
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing scene: %w", err)
	}
	return nil
}

// BuildOptions returns the model-level settings of the scene.
func (s *Scene) BuildOptions() (egm.BuildOptions, error) {
	opts := egm.BuildOptions{
		Name:   encoding.NormalizeText(s.Name),
		Author: encoding.NormalizeText(s.Author),
	}
	if len(s.LOD) > 0 {
		r, err := toRange(s.LOD, "scene lod")
		if err != nil {
			return opts, err
		}
		opts.LOD = &r
	}
	if len(s.Palette) > 0 {
		p, err := toPalette(s.Palette, "scene palette")
		if err != nil {
			return opts, err
		}
		opts.Palette = p
	}
	return opts, nil
}

// Sources converts the scene objects into encoder sources.
func (s *Scene) Sources() ([]egm.Source, error) {
	out := make([]egm.Source, 0, len(s.Objects))
	for i := range s.Objects {
		src, err := s.Objects[i].source()
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (o *Object) source() (egm.Source, error) {
	where := fmt.Sprintf("object %q", o.Name)
	src := egm.Source{
		Name:      o.Name,
		Scale:     o.Scale,
		Positions: make([]math.Vec3, len(o.Vertices)),
		Polygons:  make([]egm.SourcePolygon, len(o.Polygons)),
	}

	if len(o.Groups) > 0 {
		src.Groups = make(map[string][]float64, len(o.Groups))
		for name, weights := range o.Groups {
			src.Groups[name] = weights
		}
	}
	if len(o.LOD) > 0 {
		r, err := toRange(o.LOD, where+" lod")
		if err != nil {
			return src, err
		}
		src.LOD = &r
	}
	if len(o.Palette) > 0 {
		p, err := toPalette(o.Palette, where+" palette")
		if err != nil {
			return src, err
		}
		src.Palette = p
	}

	for i, v := range o.Vertices {
		p, err := toVec3(v, fmt.Sprintf("%s vertex %d", where, i))
		if err != nil {
			return src, err
		}
		src.Positions[i] = p
	}

	for i := range o.Polygons {
		p := &o.Polygons[i]
		pw := fmt.Sprintf("%s polygon %d", where, i)
		sp := egm.SourcePolygon{Vertices: p.Vertices, Material: p.Material}
		if len(p.UV) > 0 {
			sp.UV = make([]math.Vec2, len(p.UV))
			for j, uv := range p.UV {
				if len(uv) != 2 {
					return src, fmt.Errorf("%w: %s: uv %d has %d values, want 2", ErrInvalidScene, pw, j, len(uv))
				}
				sp.UV[j] = math.Vec2{X: uv[0], Y: uv[1]}
			}
		}
		if len(p.Normals) > 0 {
			sp.Normals = make([]math.Vec3, len(p.Normals))
			for j, n := range p.Normals {
				v, err := toVec3(n, fmt.Sprintf("%s normal %d", pw, j))
				if err != nil {
					return src, err
				}
				sp.Normals[j] = v
			}
		}
		if len(p.Normal) > 0 {
			v, err := toVec3(p.Normal, pw+" face normal")
			if err != nil {
				return src, err
			}
			sp.FaceNormal = &v
		}
		src.Polygons[i] = sp
	}
	return src, nil
}

func toVec3(t Tuple, where string) (math.Vec3, error) {
	if len(t) != 3 {
		return math.Vec3{}, fmt.Errorf("%w: %s has %d values, want 3", ErrInvalidScene, where, len(t))
	}
	return math.Vec3{X: t[0], Y: t[1], Z: t[2]}, nil
}

func toRange(t Tuple, where string) (egm.LODRange, error) {
	if len(t) != 2 {
		return egm.LODRange{}, fmt.Errorf("%w: %s has %d values, want 2", ErrInvalidScene, where, len(t))
	}
	for _, v := range t {
		if v != float64(int(v)) {
			return egm.LODRange{}, fmt.Errorf("%w: %s must hold integers", ErrInvalidScene, where)
		}
	}
	return egm.LODRange{Min: int(t[0]), Max: int(t[1])}, nil
}

func toPalette(ts []Tuple, where string) ([]egm.Color, error) {
	out := make([]egm.Color, len(ts))
	for i, t := range ts {
		switch len(t) {
		case 3:
			out[i] = egm.Color{t[0], t[1], t[2], 1}
		case 4:
			out[i] = egm.Color{t[0], t[1], t[2], t[3]}
		default:
			return nil, fmt.Errorf("%w: %s entry %d has %d values, want 3 or 4", ErrInvalidScene, where, i, len(t))
		}
	}
	return out, nil
}
