package egm

import "fmt"

// Validate checks the invariants a model must hold before it can be encoded:
// valid and nested LOD ranges, finite values, polygons of at least three
// in-range vertices starting at their smallest index, matching attribute
// counts, palette-backed materials and correctly split streams.
func (m *Model) Validate() error {
	if err := checkRange("info.LOD", m.LOD, nil); err != nil {
		return err
	}
	if !finite(m.Scale) {
		return formatErrorf("info.scale", "non-finite scale %v", m.Scale)
	}
	for i, c := range m.Palette {
		for _, v := range c {
			if !finite(v) {
				return formatErrorf(fmt.Sprintf("info.colorPalette[%d]", i), "non-finite color component")
			}
		}
	}
	for i := range m.Vertices {
		v := &m.Vertices[i]
		where := fmt.Sprintf("vertices[%d]", i)
		if !finite(v.Position.X) || !finite(v.Position.Y) || !finite(v.Position.Z) {
			return formatErrorf(where, "non-finite position")
		}
		if err := checkRange(where, v.LOD, &m.LOD); err != nil {
			return err
		}
	}

	for i := range m.Opaque {
		p := &m.Opaque[i]
		where := fmt.Sprintf("opaque[%d]", i)
		if err := m.validatePolygon(p, where); err != nil {
			return err
		}
		if m.IsTransparent(p) {
			return formatErrorf(where, "material %d is transparent", p.Material)
		}
	}
	for i := range m.Transparent {
		p := &m.Transparent[i]
		where := fmt.Sprintf("transparent[%d]", i)
		if err := m.validatePolygon(p, where); err != nil {
			return err
		}
		if i == 0 && !m.IsTransparent(p) {
			return formatErrorf(where, "transparent stream must start with a transparent material")
		}
	}
	return nil
}

func (m *Model) validatePolygon(p *Polygon, where string) error {
	n := len(p.Vertices)
	if n < 3 {
		return formatErrorf(where, "%d vertices, need at least 3", n)
	}
	for _, v := range p.Vertices {
		if v < 0 || v >= len(m.Vertices) {
			return formatErrorf(where, "vertex index %d out of range [0,%d)", v, len(m.Vertices))
		}
	}
	if MinCorner(p.Vertices) != 0 {
		return formatErrorf(where, "vertex loop does not start at its smallest index")
	}
	if p.Material < 0 || p.Material >= len(m.Palette) {
		return formatErrorf(where, "material %d has no palette entry", p.Material)
	}
	if len(p.UV) != n {
		return formatErrorf(where, "%d texture coordinates for %d vertices", len(p.UV), n)
	}
	if len(p.Normals) != 1 && len(p.Normals) != n {
		return formatErrorf(where, "%d normals for %d vertices", len(p.Normals), n)
	}
	for _, uv := range p.UV {
		if !finite(uv.X) || !finite(uv.Y) {
			return formatErrorf(where, "non-finite texture coordinate")
		}
	}
	for _, nv := range p.Normals {
		if !finite(nv.X) || !finite(nv.Y) || !finite(nv.Z) {
			return formatErrorf(where, "non-finite normal")
		}
	}
	if p.Transform < 0 || p.Luminosity < 0 {
		return formatErrorf(where, "negative group index")
	}
	return checkRange(where, p.LOD, &m.LOD)
}
