package egm

import (
	"strconv"
	"strings"
)

// DedupPolygons merges polygons that agree on every field except their LOD
// range. The first occurrence keeps its position and its range grows to the
// union of all duplicates; later duplicates are dropped. Every polygon is
// compared against all retained ones, not only its predecessor.
func DedupPolygons(polys []Polygon) []Polygon {
	out := make([]Polygon, 0, len(polys))
	seen := make(map[string]int, len(polys))

	for _, p := range polys {
		key := polygonKey(&p)
		if idx, ok := seen[key]; ok {
			out[idx].LOD = out[idx].LOD.Union(p.LOD)
			continue
		}
		seen[key] = len(out)
		out = append(out, p)
	}
	return out
}

// polygonKey renders every field but the LOD range into a comparable string.
func polygonKey(p *Polygon) string {
	var b strings.Builder
	writeInt := func(v int) {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	writeFloat := func(v float64) {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte(',')
	}

	writeInt(len(p.Vertices))
	for _, v := range p.Vertices {
		writeInt(v)
	}
	b.WriteByte('|')
	writeInt(p.Material)
	b.WriteByte('|')
	for _, uv := range p.UV {
		writeFloat(uv.X)
		writeFloat(uv.Y)
	}
	b.WriteByte('|')
	writeInt(len(p.Normals))
	for _, n := range p.Normals {
		writeFloat(n.X)
		writeFloat(n.Y)
		writeFloat(n.Z)
	}
	b.WriteByte('|')
	writeInt(p.Transform)
	writeInt(p.Luminosity)
	return b.String()
}
