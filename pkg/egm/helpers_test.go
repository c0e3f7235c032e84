package egm

import (
	"strings"

	"github.com/Faultbox/egm-tools/pkg/math"
)

var (
	upNormal = []math.Vec3{{X: 0, Y: 0, Z: 1}}
	triUV    = []math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0}}
	quadUV   = []math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
)

// makeGrid returns vertices on an n x n grid, all valid for lod.
func makeGrid(n int, lod LODRange) []Vertex {
	var out []Vertex
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			out = append(out, Vertex{Position: math.Vec3{X: float64(x), Y: float64(y)}, LOD: lod})
		}
	}
	return out
}

func makeTri(a, b, c, material int, lod LODRange) Polygon {
	return Polygon{
		Vertices: []int{a, b, c},
		Material: material,
		UV:       triUV,
		Normals:  upNormal,
		LOD:      lod,
	}
}

func makeQuad(a, b, c, d, material int, lod LODRange) Polygon {
	return Polygon{
		Vertices: []int{a, b, c, d},
		Material: material,
		UV:       quadUV,
		Normals:  upNormal,
		LOD:      lod,
	}
}

// makeModel returns a model on a 4x4 vertex grid with an opaque and a
// transparent palette entry.
func makeModel(opaque, transparent []Polygon) *Model {
	full := LODRange{Min: 0, Max: 4}
	return &Model{
		Name:        "grid",
		Author:      "tests",
		Scale:       1,
		LOD:         full,
		Palette:     []Color{{1, 1, 1, 1}, {0, 0, 1, 0.5}},
		Vertices:    makeGrid(4, full),
		Opaque:      opaque,
		Transparent: transparent,
	}
}

// polygonRecords splits the polygon list of an encoded document into the
// text of its records.
func polygonRecords(doc string) []string {
	const key = `"polygons":[`
	start := strings.Index(doc, key) + len(key)
	body := doc[start : len(doc)-2]

	var out []string
	depth, from := 0, 0
	for i, c := range body {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				out = append(out, body[from:i+1])
				from = i + 2
			}
		}
	}
	return out
}
