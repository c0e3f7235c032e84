package scene

import (
	"github.com/Faultbox/egm-tools/pkg/egm"
	"github.com/Faultbox/egm-tools/pkg/math"
)

// FromMeshes describes reconstructed LOD meshes as a scene with one object
// per mesh, valid for that mesh's LOD only. Building the scene again merges
// the objects back into an equivalent model. Each object keeps only the
// vertices its faces use.
func FromMeshes(meshes []*egm.Mesh, name, author string) *Scene {
	s := &Scene{Name: name, Author: author}
	if len(meshes) > 0 {
		for _, c := range meshes[0].Palette {
			s.Palette = append(s.Palette, Tuple{c[0], c[1], c[2], c[3]})
		}
	}
	for _, mesh := range meshes {
		s.Objects = append(s.Objects, fromMesh(mesh))
	}
	return s
}

func fromMesh(mesh *egm.Mesh) Object {
	o := Object{
		Name:  mesh.Name,
		LOD:   Tuple{float64(mesh.LOD), float64(mesh.LOD)},
		Scale: mesh.Scale,
	}

	used := mesh.UsedVertices()
	local := make(map[int]int, len(used))
	for i, v := range used {
		local[v] = i
		p := mesh.Positions[v]
		o.Vertices = append(o.Vertices, Tuple{p.X, p.Y, p.Z})
	}

	for _, group := range []string{egm.GroupTransform, egm.GroupLuminosity} {
		weights := mesh.GroupWeights(group)
		compact := make(Tuple, len(used))
		nonZero := false
		for i, v := range used {
			compact[i] = weights[v]
			if weights[v] != 0 {
				nonZero = true
			}
		}
		if nonZero {
			if o.Groups == nil {
				o.Groups = make(map[string]Tuple)
			}
			o.Groups[group] = compact
		}
	}

	for _, f := range mesh.Faces {
		p := Polygon{
			Vertices: make([]int, len(f.Vertices)),
			Material: f.Material,
			UV:       make([]Tuple, len(f.UV)),
		}
		for i, v := range f.Vertices {
			p.Vertices[i] = local[v]
		}
		for i, uv := range f.UV {
			p.UV[i] = Tuple{uv.X, uv.Y}
		}
		if shared(f.Normals) {
			n := f.Normals[0]
			p.Normal = Tuple{n.X, n.Y, n.Z}
		} else {
			for _, n := range f.Normals {
				p.Normals = append(p.Normals, Tuple{n.X, n.Y, n.Z})
			}
		}
		o.Polygons = append(o.Polygons, p)
	}
	return o
}

// shared returns true if every corner carries the same normal.
func shared(normals []math.Vec3) bool {
	for _, n := range normals[1:] {
		if n != normals[0] {
			return false
		}
	}
	return true
}
