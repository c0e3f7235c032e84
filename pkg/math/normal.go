package math

// FaceNormal returns the unit normal of a planar polygon given its corners in
// winding order. The cross products of consecutive corners are summed
// (Newell's method), so n-gons and slightly non-planar loops get a stable
// result. Degenerate input yields the zero vector.
func FaceNormal(points []Vec3) Vec3 {
	if len(points) < 3 {
		return Vec3{}
	}

	var n Vec3
	for i, cur := range points {
		next := points[(i+1)%len(points)]
		n = n.Add(cur.Cross(next))
	}
	return n.Normalize()
}
