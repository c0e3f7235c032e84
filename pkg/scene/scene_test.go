package scene

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Faultbox/egm-tools/pkg/egm"
	"github.com/Faultbox/egm-tools/pkg/math"
)

const crateYAML = `
name: crate
author: tests
objects:
  - name: crate_low
    lod: [0, 1]
    palette:
      - [0.8, 0.5, 0.2]
      - [0.2, 0.6, 1, 0.5]
    vertices:
      - [0, 0, 0]
      - [1, 0, 0]
      - [1, 1, 0]
      - [0, 1, 0]
    groups:
      transform: [0.737, 0.737, 0.737, 0.737]
    polygons:
      - vertices: [0, 1, 2, 3]
        uv: [[0, 0], [1, 0], [1, 1], [0, 1]]
  - name: crate_high
    lod: [2, 4]
    palette:
      - [0.8, 0.5, 0.2]
      - [0.2, 0.6, 1, 0.5]
    vertices:
      - [1, 0, 0]
      - [1, 1, 0]
      - [0, 1, 0]
      - [0, 0, 0]
      - [0.5, 0.5, 1]
    groups:
      transform: [0.737, 0.737, 0.737, 0.737, 0]
    polygons:
      - vertices: [3, 0, 4]
      - vertices: [0, 1, 4]
      - vertices: [1, 2, 4]
      - vertices: [2, 3, 4]
      - vertices: [3, 0, 1, 2]
        uv: [[0, 0], [1, 0], [1, 1], [0, 1]]
      - vertices: [3, 0, 4]
        material: 1
        normals: [[0, 0, 1], [0, 0, 1], [1, 0, 0]]
`

func buildCrate(t *testing.T) *egm.Model {
	t.Helper()
	s, err := Parse([]byte(crateYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sources, err := s.Sources()
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	opts, err := s.BuildOptions()
	if err != nil {
		t.Fatalf("BuildOptions failed: %v", err)
	}
	m, err := egm.Build(sources, opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

func TestParseCrate(t *testing.T) {
	s, err := Parse([]byte(crateYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(s.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(s.Objects))
	}

	sources, err := s.Sources()
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	low := sources[0]
	if low.LOD == nil || *low.LOD != (egm.LODRange{Min: 0, Max: 1}) {
		t.Errorf("expected LOD [0,1], got %v", low.LOD)
	}
	if low.Palette[0] != (egm.Color{0.8, 0.5, 0.2, 1}) {
		t.Errorf("expected RGB entry to get alpha 1, got %v", low.Palette[0])
	}
	if got := low.Groups[egm.GroupTransform]; len(got) != 4 || got[0] != 0.737 {
		t.Errorf("unexpected transform weights %v", got)
	}

	high := sources[1]
	if high.Positions[4] != (math.Vec3{X: 0.5, Y: 0.5, Z: 1}) {
		t.Errorf("unexpected apex %v", high.Positions[4])
	}
	if len(high.Polygons[4].UV) != 4 || high.Polygons[4].UV[1] != (math.Vec2{X: 1, Y: 0}) {
		t.Errorf("unexpected UVs %v", high.Polygons[4].UV)
	}
	if high.Polygons[5].Material != 1 || len(high.Polygons[5].Normals) != 3 {
		t.Errorf("unexpected transparent polygon %+v", high.Polygons[5])
	}
}

func TestBuildFromScene(t *testing.T) {
	m := buildCrate(t)
	if m.Name != "crate" || m.Author != "tests" {
		t.Errorf("unexpected header %q %q", m.Name, m.Author)
	}
	if len(m.Vertices) != 5 || len(m.Opaque) != 5 || len(m.Transparent) != 1 {
		t.Errorf("expected 5 vertices, 5 opaque and 1 transparent polygons, got %d, %d and %d",
			len(m.Vertices), len(m.Opaque), len(m.Transparent))
	}
	if m.Opaque[0].LOD != (egm.LODRange{Min: 0, Max: 4}) {
		t.Errorf("expected the lid to span [0,4], got %v", m.Opaque[0].LOD)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no objects", "name: x\n"},
		{"unknown key", "objects:\n  - name: a\n    colour: red\n"},
		{"not yaml", "objects: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); !errors.Is(err, ErrInvalidScene) {
				t.Errorf("expected ErrInvalidScene, got %v", err)
			}
		})
	}
}

func TestSourcesErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"vertex arity", "objects:\n  - name: a\n    vertices: [[0, 0]]\n"},
		{"lod arity", "objects:\n  - name: a\n    lod: [0, 1, 2]\n"},
		{"fractional lod", "objects:\n  - name: a\n    lod: [0, 1.5]\n"},
		{"palette arity", "objects:\n  - name: a\n    palette: [[1, 1]]\n"},
		{"uv arity", "objects:\n  - name: a\n    polygons:\n      - vertices: [0, 1, 2]\n        uv: [[0], [0], [0]]\n"},
		{"normal arity", "objects:\n  - name: a\n    polygons:\n      - vertices: [0, 1, 2]\n        normal: [0, 1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if _, err := s.Sources(); !errors.Is(err, ErrInvalidScene) {
				t.Errorf("expected ErrInvalidScene, got %v", err)
			}
		})
	}

	s := &Scene{LOD: Tuple{4}, Objects: []Object{{Name: "a"}}}
	if _, err := s.BuildOptions(); !errors.Is(err, ErrInvalidScene) {
		t.Errorf("expected ErrInvalidScene for scene lod, got %v", err)
	}
}

func TestLoadDefaultsName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Wooden Crate.yaml")
	body := strings.Replace(crateYAML, "name: crate\n", "", 1)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Name != "wooden_crate" {
		t.Errorf("expected name from file, got %q", s.Name)
	}
}

func TestWriteFlowTuples(t *testing.T) {
	s := &Scene{
		Name: "tri",
		Objects: []Object{{
			Name:     "tri",
			Vertices: []Tuple{{0, 0, 0}, {1.5, 0, 0}, {0, 1, 0}},
			Polygons: []Polygon{{Vertices: []int{0, 1, 2}}},
		}},
	}
	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"- [1.5, 0, 0]", "vertices: [0, 1, 2]"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFromMeshesRoundTrip(t *testing.T) {
	m := buildCrate(t)
	meshes, err := egm.ReconstructAll(m)
	if err != nil {
		t.Fatalf("ReconstructAll failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "crate.yaml")
	if err := FromMeshes(meshes, m.Name, m.Author).Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s.Objects) != 5 {
		t.Fatalf("expected one object per LOD, got %d", len(s.Objects))
	}
	if got := len(s.Objects[0].Vertices); got != 4 {
		t.Errorf("expected LOD 0 to keep its 4 used vertices, got %d", got)
	}

	sources, err := s.Sources()
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	opts, err := s.BuildOptions()
	if err != nil {
		t.Fatalf("BuildOptions failed: %v", err)
	}
	rebuilt, err := egm.Build(sources, opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if rebuilt.LOD != m.LOD {
		t.Errorf("expected range %v, got %v", m.LOD, rebuilt.LOD)
	}
	if !reflect.DeepEqual(rebuilt.Palette, m.Palette) {
		t.Errorf("expected palette %v, got %v", m.Palette, rebuilt.Palette)
	}
	if !reflect.DeepEqual(rebuilt.Vertices, m.Vertices) {
		t.Errorf("vertices differ\n got: %+v\nwant: %+v", rebuilt.Vertices, m.Vertices)
	}
	if !reflect.DeepEqual(rebuilt.Opaque, m.Opaque) {
		t.Errorf("opaque polygons differ\n got: %+v\nwant: %+v", rebuilt.Opaque, m.Opaque)
	}
	if !reflect.DeepEqual(rebuilt.Transparent, m.Transparent) {
		t.Errorf("transparent polygons differ\n got: %+v\nwant: %+v", rebuilt.Transparent, m.Transparent)
	}
}
