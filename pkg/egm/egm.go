// Package egm implements the EgomModel (.egm) mesh format, version 3.6.
//
// An EGM document is a JSON object holding a color palette, a deduplicated
// vertex list and a polygon list. Vertices and polygons are run-length
// encoded: a record only spells out the fields that differ from the record
// before it in the same stream, and decoders carry the rest forward.
// Every vertex and polygon is valid for an inclusive range of levels of
// detail (LOD), so one document holds all LOD variants of a model.
package egm

// Document identification.
const (
	FormatName    = "EgomModel"
	FormatVersion = "3.6"
)

// Decimal places used on the wire.
const (
	PositionPlaces = 3
	UVPlaces       = 3
	NormalPlaces   = 4
	ColorPlaces    = 3
	ScalePlaces    = 3
)

// Named vertex groups whose weights become polygon group indices.
const (
	GroupTransform  = "transform"
	GroupLuminosity = "luminosity"
)

// WeightFactor converts a vertex group weight into a group index.
const WeightFactor = 1000

// Default model LOD range when neither the caller nor any source sets one.
const (
	DefaultMinLOD = 0
	DefaultMaxLOD = 4
)
