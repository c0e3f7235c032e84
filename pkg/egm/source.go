package egm

import "github.com/Faultbox/egm-tools/pkg/math"

// Source is one contributing object handed over by a host application or a
// scene description: typically one LOD variant of the model.
type Source struct {
	Name      string
	Positions []math.Vec3
	Polygons  []SourcePolygon

	// Groups maps a vertex group name to one weight per vertex. Missing
	// groups and vertices past the end of a slice weigh zero.
	Groups map[string][]float64

	// LOD overrides the object's validity range. Nil means the whole model range.
	LOD *LODRange

	// Palette holds one color per material slot. Only the first source's
	// palette is written; the others must match it or be empty.
	Palette []Color

	Scale float64 // zero means 1
}

// SourcePolygon is a polygon as extracted from the host, in its own winding
// order and texture convention.
type SourcePolygon struct {
	Vertices []int // indices into Source.Positions
	Material int
	UV       []math.Vec2 // per corner; nil means all zero
	Normals  []math.Vec3 // per corner; nil means flat shaded

	// FaceNormal is the geometric normal reported by the host. When nil it
	// is computed from the positions.
	FaceNormal *math.Vec3
}

// weight returns the group weight of vertex i, or zero.
func (s *Source) weight(group string, i int) float64 {
	w := s.Groups[group]
	if i < 0 || i >= len(w) {
		return 0
	}
	return w[i]
}

func (s *Source) faceNormal(p *SourcePolygon) math.Vec3 {
	if p.FaceNormal != nil {
		return *p.FaceNormal
	}
	points := make([]math.Vec3, len(p.Vertices))
	for i, v := range p.Vertices {
		points[i] = s.Positions[v]
	}
	return math.FaceNormal(points)
}

// validate checks the structural consistency of the source.
func (s *Source) validate() error {
	for i, pos := range s.Positions {
		if !finite(pos.X) || !finite(pos.Y) || !finite(pos.Z) {
			return preconditionf("source %q: vertex %d has a non-finite position", s.Name, i)
		}
	}
	for i := range s.Polygons {
		p := &s.Polygons[i]
		n := len(p.Vertices)
		if n < 3 {
			return preconditionf("source %q: polygon %d has %d corners, need at least 3", s.Name, i, n)
		}
		for _, v := range p.Vertices {
			if v < 0 || v >= len(s.Positions) {
				return preconditionf("source %q: polygon %d references vertex %d of %d", s.Name, i, v, len(s.Positions))
			}
		}
		if p.UV != nil && len(p.UV) != n {
			return preconditionf("source %q: polygon %d has %d UVs for %d corners", s.Name, i, len(p.UV), n)
		}
		if p.Normals != nil && len(p.Normals) != n {
			return preconditionf("source %q: polygon %d has %d normals for %d corners", s.Name, i, len(p.Normals), n)
		}
		if p.Material < 0 {
			return preconditionf("source %q: polygon %d has negative material %d", s.Name, i, p.Material)
		}
	}
	return nil
}
