package egm

// BuildOptions configures Build.
type BuildOptions struct {
	Name   string // defaults to the first source's name
	Author string

	// LOD fixes the model range. Nil derives it with DetermineLODRange.
	LOD *LODRange

	// Palette replaces the first source's palette.
	Palette []Color

	// SkipPaletteCheck accepts sources whose palettes differ from the model
	// palette. Their material indices are then read against the model palette.
	SkipPaletteCheck bool
}

// DetermineLODRange returns the model range implied by the sources' LOD
// overrides: the smallest override minimum and the largest override maximum,
// falling back to DefaultMinLOD and DefaultMaxLOD where no source sets one.
func DetermineLODRange(sources []Source) LODRange {
	r := DefaultLODRange()
	haveMin, haveMax := false, false
	for i := range sources {
		o := sources[i].LOD
		if o == nil {
			continue
		}
		if !haveMin || o.Min < r.Min {
			r.Min = o.Min
			haveMin = true
		}
		if !haveMax || o.Max > r.Max {
			r.Max = o.Max
			haveMax = true
		}
	}
	return r
}

// Build runs the encode-side pipeline over sources: it deduplicates vertices
// across all sources, canonicalizes and resolves every polygon, splits them
// into opaque and transparent streams by palette alpha and merges duplicates
// within each stream.
func Build(sources []Source, opts BuildOptions) (*Model, error) {
	if len(sources) == 0 {
		return nil, preconditionf("no source objects")
	}

	model := DetermineLODRange(sources)
	if opts.LOD != nil {
		model = *opts.LOD
	}
	if err := checkRange("model LOD", model, nil); err != nil {
		return nil, err
	}

	palette := opts.Palette
	if palette == nil {
		palette = sources[0].Palette
	}
	if !opts.SkipPaletteCheck {
		if err := checkPalettes(sources, palette); err != nil {
			return nil, err
		}
	}

	m := &Model{
		Name:    opts.Name,
		Author:  opts.Author,
		Scale:   sources[0].Scale,
		LOD:     model,
		Palette: make([]Color, len(palette)),
	}
	if m.Name == "" {
		m.Name = sources[0].Name
	}
	if m.Scale == 0 {
		m.Scale = 1
	}
	m.Scale = Round(m.Scale, ScalePlaces)
	for i, c := range palette {
		for j, v := range c {
			m.Palette[i][j] = Round(v, ColorPlaces)
		}
	}

	// Effective range of every source, clipped to the model range.
	type contributor struct {
		src *Source
		lod LODRange
		at  int // first entry in the vertex input list
	}
	var included []contributor
	var inputs []VertexInput
	for i := range sources {
		src := &sources[i]
		lod := model
		if src.LOD != nil {
			if err := checkRange("source "+src.Name, *src.LOD, nil); err != nil {
				return nil, err
			}
			lod = src.LOD.Clip(model)
		}
		if !lod.Valid() {
			m.Skipped = append(m.Skipped, src.Name)
			continue
		}
		if err := src.validate(); err != nil {
			return nil, err
		}
		for _, p := range src.Polygons {
			if p.Material >= len(m.Palette) {
				return nil, preconditionf("source %q: material %d has no palette entry", src.Name, p.Material)
			}
		}
		included = append(included, contributor{src: src, lod: lod, at: len(inputs)})
		for _, pos := range src.Positions {
			inputs = append(inputs, VertexInput{Position: pos, LOD: lod})
		}
	}

	var remap []int
	m.Vertices, remap = DedupVertices(inputs)

	var opaque, transparent []Polygon
	for _, c := range included {
		local := remap[c.at : c.at+len(c.src.Positions)]
		for j := range c.src.Polygons {
			sp := &c.src.Polygons[j]
			p := ResolvePolygon(c.src, sp, local, c.lod)
			if m.Palette[p.Material].Transparent() {
				transparent = append(transparent, p)
			} else {
				opaque = append(opaque, p)
			}
		}
	}
	m.Opaque = DedupPolygons(opaque)
	m.Transparent = DedupPolygons(transparent)
	return m, nil
}

func checkPalettes(sources []Source, palette []Color) error {
	for i := range sources {
		p := sources[i].Palette
		if len(p) == 0 {
			continue
		}
		if len(p) != len(palette) {
			return preconditionf("source %q has %d material slots, model has %d", sources[i].Name, len(p), len(palette))
		}
		for j := range p {
			for k := range p[j] {
				if Round(p[j][k], ColorPlaces) != Round(palette[j][k], ColorPlaces) {
					return preconditionf("source %q: material slot %d color differs from the model palette", sources[i].Name, j)
				}
			}
		}
	}
	return nil
}
