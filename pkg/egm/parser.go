package egm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	gomath "math"

	"github.com/Faultbox/egm-tools/pkg/math"
)

// Unmarshal decodes an EGM document held in data.
func Unmarshal(data []byte) (*Model, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a whole EGM document from r and rebuilds the model, replaying
// the carry-forward rules for every vertex and polygon record. Any error
// aborts decoding and no model is returned.
func Decode(r io.Reader) (*Model, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &FormatError{Msg: "document is not a JSON object", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, formatErrorf("", "trailing data after document")
	}

	m, err := parseDocument(doc)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func parseDocument(doc map[string]any) (*Model, error) {
	format, err := stringField(doc, "format", "")
	if err != nil {
		return nil, err
	}
	if format != FormatName {
		return nil, formatErrorf("format", "unknown format %q", format)
	}
	version, err := stringField(doc, "version", "")
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, formatErrorf("version", "unsupported version %q", version)
	}

	m := &Model{}
	if err := parseInfo(m, doc); err != nil {
		return nil, err
	}
	if err := parseVertices(m, doc); err != nil {
		return nil, err
	}
	if err := parsePolygons(m, doc); err != nil {
		return nil, err
	}
	return m, nil
}

func parseInfo(m *Model, doc map[string]any) error {
	raw, err := field(doc, "info", "")
	if err != nil {
		return err
	}
	info, err := asObject(raw, "info")
	if err != nil {
		return err
	}

	if m.Name, err = stringField(info, "name", "info"); err != nil {
		return err
	}
	if _, ok := info["author"]; ok {
		if m.Author, err = stringField(info, "author", "info"); err != nil {
			return err
		}
	}

	raw, err = field(info, "scale", "info")
	if err != nil {
		return err
	}
	if m.Scale, err = asFloat(raw, "info.scale"); err != nil {
		return err
	}

	raw, err = field(info, "LOD", "info")
	if err != nil {
		return err
	}
	lod, err := asArray(raw, "info.LOD")
	if err != nil {
		return err
	}
	if len(lod) != 2 {
		return formatErrorf("info.LOD", "%d values, want 2", len(lod))
	}
	r, err := asRange(lod[0], lod[1], "info.LOD")
	if err != nil {
		return err
	}
	if err := checkRange("info.LOD", r, nil); err != nil {
		return err
	}
	m.LOD = r

	raw, err = field(info, "colorPalette", "info")
	if err != nil {
		return err
	}
	palette, err := asArray(raw, "info.colorPalette")
	if err != nil {
		return err
	}
	m.Palette = make([]Color, len(palette))
	for i, entry := range palette {
		where := fmt.Sprintf("info.colorPalette[%d]", i)
		vals, err := asArray(entry, where)
		if err != nil {
			return err
		}
		if len(vals) != 4 {
			return formatErrorf(where, "%d components, want 4", len(vals))
		}
		nums, err := asFloats(vals, where)
		if err != nil {
			return err
		}
		copy(m.Palette[i][:], nums)
	}
	return nil
}

func parseVertices(m *Model, doc map[string]any) error {
	raw, err := field(doc, "vertices", "")
	if err != nil {
		return err
	}
	list, err := asArray(raw, "vertices")
	if err != nil {
		return err
	}

	m.Vertices = make([]Vertex, len(list))
	st := vertexState{lod: m.LOD}
	for i, entry := range list {
		where := fmt.Sprintf("vertices[%d]", i)
		vals, err := asArray(entry, where)
		if err != nil {
			return err
		}
		if len(vals) != 3 && len(vals) != 5 {
			return formatErrorf(where, "%d values, want 3 or 5", len(vals))
		}
		pos, err := asFloats(vals[:3], where)
		if err != nil {
			return err
		}
		rec := vertexRecord{Position: math.Vec3{X: pos[0], Y: pos[1], Z: pos[2]}}
		if len(vals) == 5 {
			r, err := asRange(vals[3], vals[4], where)
			if err != nil {
				return err
			}
			if err := checkRange(where, r, &m.LOD); err != nil {
				return err
			}
			rec.LOD = &r
		}
		m.Vertices[i], st = decodeVertex(st, &rec)
	}
	return nil
}

func parsePolygons(m *Model, doc map[string]any) error {
	raw, err := field(doc, "polygons", "")
	if err != nil {
		return err
	}
	list, err := asArray(raw, "polygons")
	if err != nil {
		return err
	}

	// The opaque stream comes first; the transparent stream starts at the
	// first record using a transparent color and restarts from the default
	// state.
	st := newPolygonState(m.LOD)
	transparent := false
	for i, entry := range list {
		where := fmt.Sprintf("polygons[%d]", i)
		var p Polygon
		if transparent {
			p, st, _, err = decodeEntry(st, entry, where)
		} else {
			p, st, transparent, err = m.decodeOpaqueEntry(st, entry, where)
		}
		if err != nil {
			return err
		}

		for _, v := range p.Vertices {
			if v < 0 || v >= len(m.Vertices) {
				return formatErrorf(where, "vertex index %d out of range [0,%d)", v, len(m.Vertices))
			}
		}
		if p.Material >= len(m.Palette) {
			return formatErrorf(where, "material %d out of palette range [0,%d)", p.Material, len(m.Palette))
		}
		if err := checkRange(where, p.LOD, &m.LOD); err != nil {
			return err
		}

		if transparent {
			m.Transparent = append(m.Transparent, p)
		} else {
			m.Opaque = append(m.Opaque, p)
		}
	}
	return nil
}

// decodeEntry parses and decodes one polygon record against st. explicit
// reports whether the record spells out its material.
func decodeEntry(st polygonState, entry any, where string) (p Polygon, next polygonState, explicit bool, err error) {
	rec, err := parsePolygonRecord(entry, st.count, where)
	if err != nil {
		return Polygon{}, st, false, err
	}
	p, next, err = decodePolygon(st, &rec, where)
	return p, next, rec.Material >= 0, err
}

// decodeOpaqueEntry decodes a record of the opaque stream, or the first
// record of the transparent stream. The latter names a transparent material
// when read against the default state. A record whose explicit material
// is known under the opaque stream's state is classified by that material;
// otherwise the default-state reading decides.
func (m *Model) decodeOpaqueEntry(st polygonState, entry any, where string) (Polygon, polygonState, bool, error) {
	p, next, explicit, err := decodeEntry(st, entry, where)
	if err == nil && explicit {
		if !m.IsTransparent(&p) {
			return p, next, false, nil
		}
		p, next, _, err = decodeEntry(newPolygonState(m.LOD), entry, where)
		return p, next, true, err
	}

	fp, fnext, fexplicit, ferr := decodeEntry(newPolygonState(m.LOD), entry, where)
	if ferr == nil && fexplicit && m.IsTransparent(&fp) {
		return fp, fnext, true, nil
	}
	return p, next, false, err
}

// parsePolygonRecord splits one polygon record into its fields. carried is
// the vertex count in effect before the record.
func parsePolygonRecord(v any, carried int, where string) (polygonRecord, error) {
	rec := polygonRecord{Material: -1}
	parts, err := asArray(v, where)
	if err != nil {
		return rec, err
	}
	if len(parts) < 1 || len(parts) > 3 {
		return rec, formatErrorf(where, "%d sub-arrays, want 1 to 3", len(parts))
	}

	headWhere := where + "[0]"
	head, err := asArray(parts[0], headWhere)
	if err != nil {
		return rec, err
	}
	if len(head) == 0 {
		return rec, formatErrorf(headWhere, "empty vertex sub-array")
	}
	first, err := asInt(head[0], headWhere+"[0]")
	if err != nil {
		return rec, err
	}
	l, err := resolveHeadLayout(len(head), first, carried)
	if err != nil {
		return rec, at(err, headWhere)
	}
	n := l.Count
	if l.Sentinel {
		rec.Count = n
	}

	indices, err := asInts(head[l.Indices:l.Indices+n], headWhere)
	if err != nil {
		return rec, err
	}
	rec.Start = indices[0]
	rec.Deltas = indices[1:]

	if l.Material >= 0 {
		if rec.Material, err = asInt(head[l.Material], headWhere); err != nil {
			return rec, err
		}
		if rec.Material < 0 {
			return rec, formatErrorf(headWhere, "negative material %d", rec.Material)
		}
	}
	if l.UV >= 0 {
		if rec.UV, err = asFloats(head[l.UV:l.UV+2*n], headWhere); err != nil {
			return rec, err
		}
	}
	if l.LOD >= 0 {
		r, err := asRange(head[l.LOD], head[l.LOD+1], headWhere)
		if err != nil {
			return rec, err
		}
		if !r.Valid() {
			return rec, &RangeError{Where: headWhere, Range: r, Msg: "is inverted"}
		}
		rec.LOD = &r
	}

	if len(parts) >= 2 {
		w := where + "[1]"
		vals, err := asArray(parts[1], w)
		if err != nil {
			return rec, err
		}
		switch k := len(vals); {
		case k == 3 || k == 3*n:
			rec.Normals, err = asFloats(vals, w)
		case k == 2:
			rec.Groups, err = asGroups(vals, w)
		case k == 5 || k == 3*n+2:
			if rec.Normals, err = asFloats(vals[:k-2], w); err == nil {
				rec.Groups, err = asGroups(vals[k-2:], w)
			}
		default:
			err = formatErrorf(w, "%d values are neither a normal block nor a group pair", k)
		}
		if err != nil {
			return rec, err
		}
	}

	if len(parts) == 3 {
		w := where + "[2]"
		if rec.Normals == nil || rec.Groups != nil {
			return rec, formatErrorf(w, "group sub-array must follow a normal-only sub-array")
		}
		vals, err := asArray(parts[2], w)
		if err != nil {
			return rec, err
		}
		if len(vals) != 2 {
			return rec, formatErrorf(w, "%d values, want a group pair", len(vals))
		}
		if rec.Groups, err = asGroups(vals, w); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// at sets the location of a FormatError produced without one.
func at(err error, where string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Where == "" {
		fe.Where = where
	}
	return err
}

func field(obj map[string]any, key, where string) (any, error) {
	v, ok := obj[key]
	if !ok {
		if where == "" {
			return nil, formatErrorf(key, "missing required key")
		}
		return nil, formatErrorf(where+"."+key, "missing required key")
	}
	return v, nil
}

func stringField(obj map[string]any, key, where string) (string, error) {
	v, err := field(obj, key, where)
	if err != nil {
		return "", err
	}
	if where != "" {
		key = where + "." + key
	}
	s, ok := v.(string)
	if !ok {
		return "", formatErrorf(key, "expected a string, got %s", kind(v))
	}
	return s, nil
}

func asObject(v any, where string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, formatErrorf(where, "expected an object, got %s", kind(v))
	}
	return obj, nil
}

func asArray(v any, where string) ([]any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, formatErrorf(where, "expected an array, got %s", kind(v))
	}
	return arr, nil
}

func asFloat(v any, where string) (float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, formatErrorf(where, "expected a number, got %s", kind(v))
	}
	f, err := n.Float64()
	if err != nil || !finite(f) {
		return 0, &FormatError{Where: where, Msg: fmt.Sprintf("malformed number %q", n.String()), Err: err}
	}
	return f, nil
}

func asInt(v any, where string) (int, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, formatErrorf(where, "expected an integer, got %s", kind(v))
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	// Integral values written with a fraction or exponent, e.g. 3.0.
	f, err := n.Float64()
	if err != nil || f != gomath.Trunc(f) || gomath.Abs(f) > 1<<53 {
		return 0, formatErrorf(where, "expected an integer, got %s", n.String())
	}
	return int(f), nil
}

func asFloats(vals []any, where string) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, err := asFloat(v, where)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func asInts(vals []any, where string) ([]int, error) {
	out := make([]int, len(vals))
	for i, v := range vals {
		n, err := asInt(v, where)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func asRange(lo, hi any, where string) (LODRange, error) {
	from, err := asInt(lo, where)
	if err != nil {
		return LODRange{}, err
	}
	to, err := asInt(hi, where)
	if err != nil {
		return LODRange{}, err
	}
	return LODRange{Min: from, Max: to}, nil
}

func asGroups(vals []any, where string) (*[2]int, error) {
	ints, err := asInts(vals, where)
	if err != nil {
		return nil, err
	}
	if ints[0] < 0 || ints[1] < 0 {
		return nil, formatErrorf(where, "negative group index")
	}
	return &[2]int{ints[0], ints[1]}, nil
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
