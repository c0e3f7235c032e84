package egm

import (
	"slices"

	"github.com/Faultbox/egm-tools/pkg/math"
)

// polygonState is the carried-forward state of one polygon stream. Encoders
// and decoders thread it through the records of the stream by value; it is
// never shared between streams.
type polygonState struct {
	count    int
	material int         // -1 when unset
	uv       []math.Vec2 // nil when unset
	normals  []math.Vec3 // nil when unset
	groups   [2]int
	lod      LODRange
}

// newPolygonState returns the state at the start of a polygon stream.
func newPolygonState(model LODRange) polygonState {
	return polygonState{
		count:    3,
		material: -1,
		lod:      model,
	}
}

// polygonRecord is one polygon as it appears on the wire, with omitted
// fields left at their zero value (Count 0, Material -1, nil slices/pointers).
type polygonRecord struct {
	Count    int
	Start    int
	Deltas   []int
	Material int
	UV       []float64
	LOD      *LODRange
	Normals  []float64
	Groups   *[2]int
}

// encodePolygon computes the record for p and the state after it.
func encodePolygon(st polygonState, p *Polygon) (polygonRecord, polygonState) {
	n := len(p.Vertices)
	rec := polygonRecord{Start: p.Vertices[0], Material: -1}

	if n != st.count {
		rec.Count = n
		st.count = n
	}
	rec.Deltas = make([]int, n-1)
	for i, v := range p.Vertices[1:] {
		rec.Deltas[i] = v - p.Vertices[0]
	}

	if p.Material != st.material {
		rec.Material = p.Material
		st.material = p.Material
	}

	if st.uv == nil || !slices.Equal(p.UV, st.uv) {
		rec.UV = make([]float64, 0, 2*n)
		for _, uv := range p.UV {
			rec.UV = append(rec.UV, uv.X, uv.Y)
		}
		st.uv = p.UV
	}

	if p.LOD != st.lod {
		lod := p.LOD
		rec.LOD = &lod
		st.lod = p.LOD
	}

	if st.normals == nil || !slices.Equal(p.Normals, st.normals) {
		rec.Normals = make([]float64, 0, 3*len(p.Normals))
		for _, nv := range p.Normals {
			rec.Normals = append(rec.Normals, nv.X, nv.Y, nv.Z)
		}
		st.normals = p.Normals
	}

	if groups := p.Groups(); groups != st.groups {
		rec.Groups = &groups
		st.groups = groups
	}

	return rec, st
}

// decodePolygon rebuilds the polygon described by rec, filling omitted
// fields from st, and returns the state after it.
func decodePolygon(st polygonState, rec *polygonRecord, where string) (Polygon, polygonState, error) {
	n := st.count
	if rec.Count != 0 {
		n = rec.Count
	}
	if len(rec.Deltas) != n-1 {
		return Polygon{}, st, formatErrorf(where, "%d deltas for %d vertices", len(rec.Deltas), n)
	}
	st.count = n

	if rec.Start < 0 {
		return Polygon{}, st, formatErrorf(where, "negative start index %d", rec.Start)
	}
	p := Polygon{Vertices: make([]int, n)}
	p.Vertices[0] = rec.Start
	for i, d := range rec.Deltas {
		if d < 0 {
			return Polygon{}, st, formatErrorf(where, "negative vertex delta %d", d)
		}
		p.Vertices[i+1] = rec.Start + d
	}

	if rec.Material >= 0 {
		st.material = rec.Material
	}
	if st.material < 0 {
		return Polygon{}, st, formatErrorf(where, "no material given and none to carry forward")
	}
	p.Material = st.material

	if rec.UV != nil {
		uv := make([]math.Vec2, len(rec.UV)/2)
		for i := range uv {
			uv[i] = math.Vec2{X: rec.UV[2*i], Y: rec.UV[2*i+1]}
		}
		st.uv = uv
	}
	if st.uv == nil {
		return Polygon{}, st, formatErrorf(where, "no texture coordinates given and none to carry forward")
	}
	if len(st.uv) != n {
		return Polygon{}, st, formatErrorf(where, "carried %d texture coordinates for %d vertices", len(st.uv), n)
	}
	p.UV = st.uv

	if rec.LOD != nil {
		st.lod = *rec.LOD
	}
	p.LOD = st.lod

	if rec.Normals != nil {
		normals := make([]math.Vec3, len(rec.Normals)/3)
		for i := range normals {
			normals[i] = math.Vec3{X: rec.Normals[3*i], Y: rec.Normals[3*i+1], Z: rec.Normals[3*i+2]}
		}
		st.normals = normals
	}
	if st.normals == nil {
		return Polygon{}, st, formatErrorf(where, "no normals given and none to carry forward")
	}
	if len(st.normals) != 1 && len(st.normals) != n {
		return Polygon{}, st, formatErrorf(where, "carried %d normals for %d vertices", len(st.normals), n)
	}
	p.Normals = st.normals

	if rec.Groups != nil {
		st.groups = *rec.Groups
	}
	p.Transform, p.Luminosity = st.groups[0], st.groups[1]

	return p, st, nil
}

// vertexState is the carried-forward state of the vertex stream.
type vertexState struct {
	lod LODRange
}

// vertexRecord is one vertex on the wire; LOD is nil when carried forward.
type vertexRecord struct {
	Position math.Vec3
	LOD      *LODRange
}

func encodeVertex(st vertexState, v *Vertex) (vertexRecord, vertexState) {
	rec := vertexRecord{Position: v.Position}
	if v.LOD != st.lod {
		lod := v.LOD
		rec.LOD = &lod
		st.lod = v.LOD
	}
	return rec, st
}

func decodeVertex(st vertexState, rec *vertexRecord) (Vertex, vertexState) {
	if rec.LOD != nil {
		st.lod = *rec.LOD
	}
	return Vertex{Position: rec.Position, LOD: st.lod}, st
}
