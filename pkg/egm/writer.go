package egm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strconv"
)

// EncodeOptions controls the textual form of an encoded model.
type EncodeOptions struct {
	// InlineGroups appends a changed group pair to the normal sub-array
	// ([n..., transform, luminosity]) the way version 3.6 exporters did,
	// instead of writing it as a separate third sub-array.
	InlineGroups bool
}

// Marshal encodes m into a new byte slice.
func Marshal(m *Model, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode validates m and writes it to w as an EGM document. Nothing is
// written when validation fails.
func Encode(w io.Writer, m *Model, opts EncodeOptions) error {
	if err := m.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	e := &encoder{w: bw, opts: opts}
	e.header(m)
	e.vertices(m)
	e.polygons(m)
	e.str("]}")
	return bw.Flush()
}

type encoder struct {
	w    *bufio.Writer
	opts EncodeOptions
}

func (e *encoder) str(s string) { e.w.WriteString(s) }

func (e *encoder) integer(v int) { e.w.WriteString(strconv.Itoa(v)) }

func (e *encoder) decimal(v float64, places int) { e.w.WriteString(FormatFloat(v, places)) }

func (e *encoder) quoted(s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	e.w.Write(bytes.TrimRight(buf.Bytes(), "\n"))
}

func (e *encoder) header(m *Model) {
	e.str(`{"format":"` + FormatName + `","version":"` + FormatVersion + `","info":{"name":`)
	e.quoted(m.Name)
	e.str(`,"author":`)
	e.quoted(m.Author)
	e.str(`,"scale":`)
	e.decimal(m.Scale, ScalePlaces)
	e.str(`,"LOD":[`)
	e.integer(m.LOD.Min)
	e.str(",")
	e.integer(m.LOD.Max)
	e.str(`],"colorPalette":[`)
	for i, c := range m.Palette {
		if i > 0 {
			e.str(",")
		}
		e.str("[")
		for j, v := range c {
			if j > 0 {
				e.str(",")
			}
			e.decimal(v, ColorPlaces)
		}
		e.str("]")
	}
	e.str("]}")
}

func (e *encoder) vertices(m *Model) {
	e.str(`,"vertices":[`)
	st := vertexState{lod: m.LOD}
	for i := range m.Vertices {
		var rec vertexRecord
		rec, st = encodeVertex(st, &m.Vertices[i])
		if i > 0 {
			e.str(",")
		}
		e.str("[")
		e.decimal(rec.Position.X, PositionPlaces)
		e.str(",")
		e.decimal(rec.Position.Y, PositionPlaces)
		e.str(",")
		e.decimal(rec.Position.Z, PositionPlaces)
		if rec.LOD != nil {
			e.str(",")
			e.integer(rec.LOD.Min)
			e.str(",")
			e.integer(rec.LOD.Max)
		}
		e.str("]")
	}
	e.str("]")
}

func (e *encoder) polygons(m *Model) {
	e.str(`,"polygons":[`)
	first := true

	st := newPolygonState(m.LOD)
	for i := range m.Opaque {
		var rec polygonRecord
		rec, st = encodePolygon(st, &m.Opaque[i])
		e.record(&rec, first)
		first = false
	}

	// The transparent stream restarts from the default state. Its head
	// names the vertex count whenever the opaque stream ended on another
	// count, so reading it against either state gives the same layout.
	st = newPolygonState(m.LOD)
	for i := range m.Transparent {
		var rec polygonRecord
		rec, st = encodePolygon(st, &m.Transparent[i])
		if i == 0 && rec.Count == 0 && len(m.Opaque) > 0 && len(m.Opaque[len(m.Opaque)-1].Vertices) != st.count {
			rec.Count = st.count
		}
		e.record(&rec, first)
		first = false
	}
}

func (e *encoder) record(rec *polygonRecord, first bool) {
	if !first {
		e.str(",")
	}
	e.str("[[")
	if rec.Count != 0 {
		e.integer(-rec.Count)
		e.str(",")
	}
	e.integer(rec.Start)
	for _, d := range rec.Deltas {
		e.str(",")
		e.integer(d)
	}
	if rec.Material >= 0 {
		e.str(",")
		e.integer(rec.Material)
	}
	for _, v := range rec.UV {
		e.str(",")
		e.decimal(v, UVPlaces)
	}
	if rec.LOD != nil {
		e.str(",")
		e.integer(rec.LOD.Min)
		e.str(",")
		e.integer(rec.LOD.Max)
	}
	e.str("]")

	if rec.Normals != nil {
		e.str(",[")
		for i, v := range rec.Normals {
			if i > 0 {
				e.str(",")
			}
			e.decimal(v, NormalPlaces)
		}
		if rec.Groups != nil && e.opts.InlineGroups {
			e.str(",")
			e.groupPair(rec.Groups)
		}
		e.str("]")
		if rec.Groups != nil && !e.opts.InlineGroups {
			e.str(",[")
			e.groupPair(rec.Groups)
			e.str("]")
		}
	} else if rec.Groups != nil {
		e.str(",[")
		e.groupPair(rec.Groups)
		e.str("]")
	}
	e.str("]")
}

func (e *encoder) groupPair(g *[2]int) {
	e.integer(g[0])
	e.str(",")
	e.integer(g[1])
}
