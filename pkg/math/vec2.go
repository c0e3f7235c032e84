// Package math provides the small vector types used by the EGM codec.
package math

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float64
}

// FlipV mirrors the vertical texture axis (v -> 1-v).
func (v Vec2) FlipV() Vec2 {
	return Vec2{v.X, 1 - v.Y}
}
