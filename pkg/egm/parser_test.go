package egm

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/Faultbox/egm-tools/pkg/math"
)

const testHeader = `{"format":"EgomModel","version":"3.6","info":{"name":"t","author":"a","scale":1,"LOD":[0,4],"colorPalette":[[1,1,1,1],[1,0,0,1],[0,0,1,0.5]]}`

func makeDocument(vertices, polygons string) string {
	return fmt.Sprintf(`%s,"vertices":[%s],"polygons":[%s]}`, testHeader, vertices, polygons)
}

const threeVertices = `[0,0,0],[1,0,0],[0,1,0]`

func TestDecodeGolden(t *testing.T) {
	m, err := Unmarshal([]byte(goldenDocument))
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	want := goldenModel()
	if !reflect.DeepEqual(m.Vertices, want.Vertices) {
		t.Errorf("vertices differ\n got: %+v\nwant: %+v", m.Vertices, want.Vertices)
	}
	if !reflect.DeepEqual(m.Opaque, want.Opaque) {
		t.Errorf("opaque polygons differ\n got: %+v\nwant: %+v", m.Opaque, want.Opaque)
	}
	if !reflect.DeepEqual(m.Transparent, want.Transparent) {
		t.Errorf("transparent polygons differ\n got: %+v\nwant: %+v", m.Transparent, want.Transparent)
	}
	if m.Name != "tri" || m.Author != "me" || m.Scale != 1 || m.LOD != want.LOD {
		t.Errorf("unexpected header %q %q %v %v", m.Name, m.Author, m.Scale, m.LOD)
	}
}

func TestDecodeCarriesFieldsForward(t *testing.T) {
	polys := `[[0,1,2,1,0.5,0.5,1,1,0,0,1,3],[0,0,1],[12,34]],` +
		`[[-4,0,1,2,1]],` +
		`[[0,2,1,0,1,1,1,1,0,0,0,0,4],[0,1,0,0,1,0,0,1,0,0,1,0]],` +
		`[[1,1,1]]`
	doc := makeDocument(`[0,0,0],[1,0,0],[0,1,0],[1,1,0]`, polys)

	// The second record reuses the triangle UVs with a quad: an error.
	if _, err := Unmarshal([]byte(doc)); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for carried UVs of the wrong length, got %v", err)
	}

	polys = `[[0,1,2,1,0.5,0.5,1,1,0,0,1,3],[0,0,1],[12,34]],` +
		`[[1,1,2]],` +
		`[[-4,0,2,1,3,0,1,1,1,1,0,0,0,0,0,4],[0,1,0,0,1,0,0,1,0,0,1,0]],` +
		`[[-3,1,1,2,0,0,1,0,0,1,2,2],[0,0,1]]`
	doc = makeDocument(`[0,0,0],[1,0,0],[0,1,0],[1,1,0]`, polys)
	m, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(m.Opaque) != 4 || len(m.Transparent) != 0 {
		t.Fatalf("expected 4 opaque polygons, got %d/%d", len(m.Opaque), len(m.Transparent))
	}

	second := m.Opaque[1]
	if !reflect.DeepEqual(second.Vertices, []int{1, 2, 3}) {
		t.Errorf("expected vertices [1 2 3], got %v", second.Vertices)
	}
	if second.Material != 1 || second.Transform != 12 || second.Luminosity != 34 {
		t.Errorf("expected carried material and groups, got %+v", second)
	}
	if second.LOD != (LODRange{Min: 1, Max: 3}) {
		t.Errorf("expected carried LOD [1,3], got %v", second.LOD)
	}
	if second.UV[0] != (math.Vec2{X: 0.5, Y: 0.5}) {
		t.Errorf("expected carried UV, got %v", second.UV)
	}

	third := m.Opaque[2]
	if len(third.Vertices) != 4 || third.Material != 0 || !third.SplitNormals() {
		t.Errorf("unexpected quad %+v", third)
	}
	if third.LOD != (LODRange{Min: 0, Max: 4}) || third.Transform != 12 {
		t.Errorf("expected LOD [0,4] and carried groups, got %+v", third)
	}

	fourth := m.Opaque[3]
	if len(fourth.Vertices) != 3 {
		t.Fatalf("expected a triangle after the -3 sentinel, got %v", fourth.Vertices)
	}
	if fourth.LOD != (LODRange{Min: 2, Max: 2}) {
		t.Errorf("expected LOD [2,2], got %v", fourth.LOD)
	}
}

func TestDecodeSplitsStreams(t *testing.T) {
	polys := `[[0,1,2,0,0,0,0,0,0,0],[0,0,1]],[[-3,0,1,2,2,0,0,0,0,0,0,0,4],[0,0,1],[0,0]],[[0,1,2]]`
	m, err := Unmarshal([]byte(makeDocument(threeVertices, polys)))
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(m.Opaque) != 1 || len(m.Transparent) != 2 {
		t.Errorf("expected 1 opaque and 2 transparent polygons, got %d and %d", len(m.Opaque), len(m.Transparent))
	}
}

func TestDecodeTransparentStreamRestartsDefaults(t *testing.T) {
	tests := []struct {
		name     string
		vertices string
		polys    string
		want     Polygon
	}{
		{
			name:     "range and groups omitted",
			vertices: threeVertices,
			polys:    `[[0,1,2,0,0,0,1,0,0,1,1,1],[0,0,1],[5,0]],[[0,1,2,2,0,0,1,0,0,1],[0,0,1]]`,
			want: Polygon{
				Vertices: []int{0, 1, 2},
				Material: 2,
				UV:       []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
				Normals:  []math.Vec3{{X: 0, Y: 0, Z: 1}},
				LOD:      LODRange{Min: 0, Max: 4},
			},
		},
		{
			name:     "count omitted after a quad",
			vertices: `[0,0,0],[1,0,0],[1,1,0],[0,1,0]`,
			polys:    `[[-4,0,1,2,3,0,0,0,1,0,1,1,0,1],[0,0,1]],[[0,1,2,2,0,0,1,0,1,1,1,2],[0,0,1]]`,
			want: Polygon{
				Vertices: []int{0, 1, 2},
				Material: 2,
				UV:       []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
				Normals:  []math.Vec3{{X: 0, Y: 0, Z: 1}},
				LOD:      LODRange{Min: 1, Max: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Unmarshal([]byte(makeDocument(tt.vertices, tt.polys)))
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if len(m.Opaque) != 1 || len(m.Transparent) != 1 {
				t.Fatalf("expected 1 opaque and 1 transparent polygon, got %d and %d", len(m.Opaque), len(m.Transparent))
			}
			if !reflect.DeepEqual(m.Transparent[0], tt.want) {
				t.Errorf("transparent head\n got: %+v\nwant: %+v", m.Transparent[0], tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	okPoly := `[[0,1,2,0,0,0,0,0,0,0],[0,0,1]]`
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not json", `{"format":`, ErrFormat},
		{"not an object", `[1,2,3]`, ErrFormat},
		{"trailing data", makeDocument(threeVertices, okPoly) + `{}`, ErrFormat},
		{"missing vertices", testHeader + `,"polygons":[]}`, ErrFormat},
		{"missing polygons", testHeader + `,"vertices":[]}`, ErrFormat},
		{"missing info", `{"format":"EgomModel","version":"3.6","vertices":[],"polygons":[]}`, ErrFormat},
		{"wrong format", `{"format":"Other","version":"3.6"}`, ErrFormat},
		{"wrong version", `{"format":"EgomModel","version":"2.0"}`, ErrFormat},
		{"palette arity", `{"format":"EgomModel","version":"3.6","info":{"name":"t","scale":1,"LOD":[0,4],"colorPalette":[[1,1,1]]},"vertices":[],"polygons":[]}`, ErrFormat},
		{"inverted model range", `{"format":"EgomModel","version":"3.6","info":{"name":"t","scale":1,"LOD":[3,1],"colorPalette":[]},"vertices":[],"polygons":[]}`, ErrRange},
		{"vertex arity", makeDocument(`[0,0]`, ``), ErrFormat},
		{"vertex with four values", makeDocument(`[0,0,0,1]`, ``), ErrFormat},
		{"non-numeric vertex", makeDocument(`[0,"abc",0]`, ``), ErrFormat},
		{"null vertex component", makeDocument(`[0,null,0]`, ``), ErrFormat},
		{"inverted vertex range", makeDocument(`[0,0,0,3,1]`, ``), ErrRange},
		{"vertex range outside model", makeDocument(`[0,0,0,0,7]`, ``), ErrRange},
		{"vertex index out of range", makeDocument(threeVertices, `[[0,1,3,0,0,0,0,0,0,0],[0,0,1]]`), ErrFormat},
		{"fractional index", makeDocument(threeVertices, `[[0,1.5,2,0,0,0,0,0,0,0],[0,0,1]]`), ErrFormat},
		{"string index", makeDocument(threeVertices, `[[0,"1",2,0,0,0,0,0,0,0],[0,0,1]]`), ErrFormat},
		{"missing material at stream start", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0],[0,0,1]]`), ErrFormat},
		{"missing uv at stream start", makeDocument(threeVertices, `[[0,1,2,0],[0,0,1]]`), ErrFormat},
		{"missing normals at stream start", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0]]`), ErrFormat},
		{"material outside palette", makeDocument(threeVertices, `[[0,1,2,5,0,0,0,0,0,0],[0,0,1]]`), ErrFormat},
		{"inverted polygon range", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0,3,1],[0,0,1]]`), ErrRange},
		{"polygon range outside model", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0,0,9],[0,0,1]]`), ErrRange},
		{"head length", makeDocument(threeVertices, `[[0,1,2,0,0,0,0],[0,0,1]]`), ErrFormat},
		{"negative delta", makeDocument(threeVertices, `[[1,-1,1,0,0,0,0,0,0,0],[0,0,1]]`), ErrFormat},
		{"negative start index", makeDocument(threeVertices, `[[-3,-1,1,1,0,0,0,0,0,0,0],[0,0,1]]`), ErrFormat},
		{"negative start in transparent stream", makeDocument(threeVertices, `[[0,1,2,2,0,0,0,0,0,0],[0,0,1]],[[-3,-2,1,2]]`), ErrFormat},
		{"too many sub-arrays", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0],[0,0,1],[0,0],[1]]`), ErrFormat},
		{"empty head", makeDocument(threeVertices, `[[]]`), ErrFormat},
		{"bad normal block", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0],[0,0,1,0]]`), ErrFormat},
		{"group sub-array after groups", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0],[0,0,1,0,0],[1,1]]`), ErrFormat},
		{"third sub-array not a pair", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0],[0,0,1],[1,1,1]]`), ErrFormat},
		{"negative group", makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0],[0,0,1],[-1,0]]`), ErrFormat},
		{"count sentinel below three", makeDocument(threeVertices, `[[-2,0,1,0,0,0,0,0],[0,0,1]]`), ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Unmarshal([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if m != nil {
				t.Error("expected no model on error")
			}
		})
	}
}

func TestDecodeErrorLocation(t *testing.T) {
	doc := makeDocument(threeVertices, `[[0,1,2,0,0,0,0,0,0,0],[0,0,1]],[[0,1,7]]`)
	_, err := Unmarshal([]byte(doc))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if fe.Where != "polygons[1]" {
		t.Errorf("expected location polygons[1], got %q", fe.Where)
	}
}

func TestDecodeVertexRanges(t *testing.T) {
	doc := makeDocument(`[0,0,0],[1,0,0,1,2],[0,1,0],[1,1,0,0,4],[2,2,2]`, ``)
	m, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	want := []LODRange{{0, 4}, {1, 2}, {1, 2}, {0, 4}, {0, 4}}
	for i, v := range m.Vertices {
		if v.LOD != want[i] {
			t.Errorf("vertex %d: expected %v, got %v", i, want[i], v.LOD)
		}
	}
}
