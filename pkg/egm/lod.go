package egm

import (
	"fmt"

	"github.com/Faultbox/egm-tools/pkg/math"
)

// Face is one polygon of a reconstructed mesh.
type Face struct {
	Vertices    []int
	Material    int
	UV          []math.Vec2 // per corner, source convention
	Normals     []math.Vec3 // per corner
	Transform   int
	Luminosity  int
	Transparent bool
}

// Mesh is the geometry of a model at a single LOD. Positions keeps the
// model's vertex indexing; vertices outside the LOD sit at the origin.
type Mesh struct {
	Name      string
	LOD       int
	Scale     float64
	Palette   []Color
	Positions []math.Vec3
	Faces     []Face
	Hidden    bool // every LOD but the highest starts hidden
}

// Reconstruct assembles the mesh of m at the given LOD.
func Reconstruct(m *Model, lod int) (*Mesh, error) {
	if !m.LOD.Contains(lod) {
		return nil, &RangeError{Where: fmt.Sprintf("LOD %d", lod), Range: m.LOD, Msg: "does not contain the requested LOD"}
	}

	mesh := &Mesh{
		Name:      fmt.Sprintf("%s_lod%d", m.Name, lod),
		LOD:       lod,
		Scale:     m.Scale,
		Palette:   m.Palette,
		Positions: make([]math.Vec3, len(m.Vertices)),
		Hidden:    lod < m.LOD.Max,
	}
	for i, v := range m.Vertices {
		if v.LOD.Contains(lod) {
			mesh.Positions[i] = v.Position
		}
	}

	for _, p := range m.Polygons() {
		if !p.LOD.Contains(lod) {
			continue
		}
		n := len(p.Vertices)
		f := Face{
			Vertices:    append([]int(nil), p.Vertices...),
			Material:    p.Material,
			UV:          make([]math.Vec2, n),
			Normals:     make([]math.Vec3, n),
			Transform:   p.Transform,
			Luminosity:  p.Luminosity,
			Transparent: m.IsTransparent(&p),
		}
		for i := range f.UV {
			f.UV[i] = p.UV[i].FlipV()
		}
		for i := range f.Normals {
			if p.SplitNormals() {
				f.Normals[i] = p.Normals[i]
			} else {
				f.Normals[i] = p.Normals[0]
			}
		}
		mesh.Faces = append(mesh.Faces, f)
	}
	return mesh, nil
}

// ReconstructAll returns one mesh per LOD of m, lowest first.
func ReconstructAll(m *Model) ([]*Mesh, error) {
	if err := checkRange("info.LOD", m.LOD, nil); err != nil {
		return nil, err
	}
	meshes := make([]*Mesh, 0, m.LOD.Max-m.LOD.Min+1)
	for lod := m.LOD.Min; lod <= m.LOD.Max; lod++ {
		mesh, err := Reconstruct(m, lod)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// GroupWeights returns one weight per mesh vertex for the named group,
// derived from the group indices of the faces using it. A vertex shared by
// faces with different indices takes the last one.
func (m *Mesh) GroupWeights(group string) []float64 {
	weights := make([]float64, len(m.Positions))
	if group != GroupTransform && group != GroupLuminosity {
		return weights
	}
	for _, f := range m.Faces {
		idx := f.Transform
		if group == GroupLuminosity {
			idx = f.Luminosity
		}
		if idx <= 0 {
			continue
		}
		for _, v := range f.Vertices {
			weights[v] = float64(idx) / WeightFactor
		}
	}
	return weights
}

// UsedVertices returns the indices of the vertices referenced by faces, in
// ascending order.
func (m *Mesh) UsedVertices() []int {
	used := make([]bool, len(m.Positions))
	for _, f := range m.Faces {
		for _, v := range f.Vertices {
			used[v] = true
		}
	}
	var out []int
	for i, u := range used {
		if u {
			out = append(out, i)
		}
	}
	return out
}
