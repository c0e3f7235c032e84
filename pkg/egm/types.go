package egm

import (
	"fmt"

	"github.com/Faultbox/egm-tools/pkg/math"
)

// LODRange is an inclusive range of levels of detail.
type LODRange struct {
	Min, Max int
}

// DefaultLODRange returns the range used when nothing else specifies one.
func DefaultLODRange() LODRange {
	return LODRange{Min: DefaultMinLOD, Max: DefaultMaxLOD}
}

// Valid returns true if the range is not inverted.
func (r LODRange) Valid() bool {
	return r.Min <= r.Max
}

// Contains returns true if lod lies inside the range.
func (r LODRange) Contains(lod int) bool {
	return r.Min <= lod && lod <= r.Max
}

// Covers returns true if other lies entirely inside r.
func (r LODRange) Covers(other LODRange) bool {
	return r.Min <= other.Min && other.Max <= r.Max
}

// Union returns the smallest range holding both r and other.
func (r LODRange) Union(other LODRange) LODRange {
	return LODRange{Min: min(r.Min, other.Min), Max: max(r.Max, other.Max)}
}

// Clip narrows r to outer. The result is inverted when they do not overlap.
func (r LODRange) Clip(outer LODRange) LODRange {
	return LODRange{Min: max(r.Min, outer.Min), Max: min(r.Max, outer.Max)}
}

// String returns the range as "[min,max]".
func (r LODRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// Color is an RGBA palette entry with components in 0..1.
type Color [4]float64

// Transparent returns true if the color's alpha is below one.
func (c Color) Transparent() bool {
	return c[3] < 1
}

// Vertex is a canonical vertex.
type Vertex struct {
	Position math.Vec3
	LOD      LODRange
}

// Polygon is a resolved polygon record as stored in a model.
//
// Vertices start at the smallest canonical index of the loop. UV holds one
// pair per corner in file convention (v already flipped). Normals holds
// either one shared normal or one normal per corner.
type Polygon struct {
	Vertices   []int
	Material   int
	UV         []math.Vec2
	Normals    []math.Vec3
	Transform  int
	Luminosity int
	LOD        LODRange
}

// SplitNormals returns true if the polygon carries one normal per corner.
func (p *Polygon) SplitNormals() bool {
	return len(p.Normals) > 1
}

// Groups returns the (transform, luminosity) group index pair.
func (p *Polygon) Groups() [2]int {
	return [2]int{p.Transform, p.Luminosity}
}

// Model is a complete EGM model.
type Model struct {
	Name        string
	Author      string
	Scale       float64
	LOD         LODRange
	Palette     []Color
	Vertices    []Vertex
	Opaque      []Polygon
	Transparent []Polygon

	// Skipped lists sources left out by Build because their LOD range does
	// not overlap the model range. It is not part of the document.
	Skipped []string
}

// Polygons returns the opaque polygons followed by the transparent ones.
func (m *Model) Polygons() []Polygon {
	out := make([]Polygon, 0, len(m.Opaque)+len(m.Transparent))
	out = append(out, m.Opaque...)
	return append(out, m.Transparent...)
}

// IsTransparent returns true if the polygon's palette color has alpha below one.
func (m *Model) IsTransparent(p *Polygon) bool {
	if p.Material < 0 || p.Material >= len(m.Palette) {
		return false
	}
	return m.Palette[p.Material].Transparent()
}

// Stats summarizes a model.
type Stats struct {
	Vertices    int
	Opaque      int
	Transparent int
	Triangles   int
	Quads       int
	NGons       int
	SplitNormal int
	PerLOD      map[int]LODStats
}

// LODStats counts the records valid at one LOD.
type LODStats struct {
	Vertices int
	Polygons int
}

// Stats counts vertices and polygons, overall and per LOD.
func (m *Model) Stats() Stats {
	s := Stats{
		Vertices:    len(m.Vertices),
		Opaque:      len(m.Opaque),
		Transparent: len(m.Transparent),
		PerLOD:      make(map[int]LODStats),
	}
	for lod := m.LOD.Min; lod <= m.LOD.Max; lod++ {
		var ls LODStats
		for _, v := range m.Vertices {
			if v.LOD.Contains(lod) {
				ls.Vertices++
			}
		}
		for _, p := range m.Polygons() {
			if p.LOD.Contains(lod) {
				ls.Polygons++
			}
		}
		s.PerLOD[lod] = ls
	}
	for _, p := range m.Polygons() {
		switch len(p.Vertices) {
		case 3:
			s.Triangles++
		case 4:
			s.Quads++
		default:
			s.NGons++
		}
		if p.SplitNormals() {
			s.SplitNormal++
		}
	}
	return s
}
