package egm

// headLayout says where the fields of a polygon's first sub-array sit.
// Offsets of absent optional fields are -1.
type headLayout struct {
	Count    int  // vertex count in effect for the record
	Sentinel bool // the count was given as a leading negative value
	Indices  int
	Material int
	UV       int
	LOD      int
}

// resolveHeadLayout decides which optional fields a first sub-array of the
// given length carries. first is the sub-array's first value and carried the
// vertex count in effect before the record.
//
// With offs = 1 when first is negative and n the vertex count, the values
// past the indices number remaining = length-offs-n. A material is present
// when remaining is odd, a UV block (2n values) when more than two values
// are left after it, and an LOD pair when at least two are left after that.
// Since n >= 3 a UV block never looks like an LOD pair.
func resolveHeadLayout(length, first, carried int) (headLayout, error) {
	l := headLayout{Count: carried, Material: -1, UV: -1, LOD: -1}
	offs := 0
	if first < 0 {
		offs = 1
		l.Sentinel = true
		l.Count = -first
	}
	n := l.Count
	if n < 3 {
		return l, formatErrorf("", "vertex count %d is below 3", n)
	}

	remaining := length - offs - n
	if remaining < 0 {
		return l, formatErrorf("", "%d values cannot hold %d vertex indices", length-offs, n)
	}
	l.Indices = offs
	pos := offs + n

	if remaining%2 == 1 {
		l.Material = pos
		pos++
		remaining--
	}
	if remaining > 2 {
		if remaining < 2*n {
			return l, formatErrorf("", "%d trailing values do not form %d texture coordinates", remaining, n)
		}
		l.UV = pos
		pos += 2 * n
		remaining -= 2 * n
	}
	if remaining >= 2 {
		l.LOD = pos
		remaining -= 2
	}
	if remaining != 0 {
		return l, formatErrorf("", "%d unexpected trailing values", remaining)
	}
	return l, nil
}
