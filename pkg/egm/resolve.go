package egm

import "github.com/Faultbox/egm-tools/pkg/math"

// GroupIndex derives a polygon's group index from the group weights of its
// vertices in winding order. The index is round(weight*WeightFactor) when
// every vertex agrees on it; disagreement or a zero first vertex gives 0.
func GroupIndex(weights []float64) int {
	if len(weights) == 0 {
		return 0
	}
	first := weightIndex(weights[0])
	if first == 0 {
		return 0
	}
	for _, w := range weights[1:] {
		if weightIndex(w) != first {
			return 0
		}
	}
	return first
}

func weightIndex(w float64) int {
	return int(Round(w*WeightFactor, 0))
}

// ResolvePolygon turns a source polygon into a model polygon: it maps the
// loop through remap (source vertex -> canonical vertex), rotates it to its
// canonical start and resolves UVs, normals and group indices. lod is the
// source's effective range.
func ResolvePolygon(src *Source, p *SourcePolygon, remap []int, lod LODRange) Polygon {
	n := len(p.Vertices)
	loop := make([]int, n)
	for i, v := range p.Vertices {
		loop[i] = remap[v]
	}
	_, _, rot := Canonicalize(loop)

	out := Polygon{
		Vertices: Rotate(loop, rot),
		Material: p.Material,
		LOD:      lod,
	}

	uv := make([]math.Vec2, n)
	for i := range uv {
		if p.UV != nil {
			uv[i] = p.UV[i].FlipV()
		} else {
			uv[i] = math.Vec2{X: 0, Y: 1}
		}
		uv[i] = math.Vec2{X: Round(uv[i].X, UVPlaces), Y: Round(uv[i].Y, UVPlaces)}
	}
	out.UV = Rotate(uv, rot)

	face := roundNormal(src.faceNormal(p))
	out.Normals = []math.Vec3{face}
	if p.Normals != nil {
		corners := make([]math.Vec3, n)
		split := false
		for i, nv := range p.Normals {
			corners[i] = roundNormal(nv)
			if corners[i] != face {
				split = true
			}
		}
		if split {
			out.Normals = Rotate(corners, rot)
		}
	}

	// Group weights follow the source winding order, not the rotated one.
	out.Transform = GroupIndex(groupWeights(src, p, GroupTransform))
	out.Luminosity = GroupIndex(groupWeights(src, p, GroupLuminosity))
	return out
}

func groupWeights(src *Source, p *SourcePolygon, group string) []float64 {
	if _, ok := src.Groups[group]; !ok {
		return nil
	}
	weights := make([]float64, len(p.Vertices))
	for i, v := range p.Vertices {
		weights[i] = src.weight(group, v)
	}
	return weights
}

func roundNormal(n math.Vec3) math.Vec3 {
	return math.Vec3{
		X: Round(n.X, NormalPlaces),
		Y: Round(n.Y, NormalPlaces),
		Z: Round(n.Z, NormalPlaces),
	}
}
