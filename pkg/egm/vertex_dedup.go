package egm

import "github.com/Faultbox/egm-tools/pkg/math"

// VertexInput is one vertex of one source, with that source's LOD range.
type VertexInput struct {
	Position math.Vec3
	LOD      LODRange
}

// DedupVertices merges inputs whose positions are equal after rounding to
// PositionPlaces. The canonical list keeps first-occurrence order and stores
// the rounded position; every later match only widens the LOD range.
// remap[i] is the canonical index of inputs[i].
func DedupVertices(inputs []VertexInput) (vertices []Vertex, remap []int) {
	remap = make([]int, len(inputs))
	seen := make(map[math.Vec3]int, len(inputs))

	for i, in := range inputs {
		key := roundPosition(in.Position)
		if idx, ok := seen[key]; ok {
			vertices[idx].LOD = vertices[idx].LOD.Union(in.LOD)
			remap[i] = idx
			continue
		}
		seen[key] = len(vertices)
		remap[i] = len(vertices)
		vertices = append(vertices, Vertex{Position: key, LOD: in.LOD})
	}
	return vertices, remap
}

func roundPosition(p math.Vec3) math.Vec3 {
	return math.Vec3{
		X: Round(p.X, PositionPlaces),
		Y: Round(p.Y, PositionPlaces),
		Z: Round(p.Z, PositionPlaces),
	}
}
