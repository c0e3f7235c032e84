package egm

// MinCorner returns the position of the smallest index in loop. Ties go to
// the earliest position.
func MinCorner(loop []int) int {
	best := 0
	for i, v := range loop {
		if v < loop[best] {
			best = i
		}
	}
	return best
}

// Rotate returns a copy of s starting at position k and wrapping around.
func Rotate[T any](s []T, k int) []T {
	if len(s) == 0 {
		return nil
	}
	out := make([]T, 0, len(s))
	out = append(out, s[k:]...)
	return append(out, s[:k]...)
}

// Canonicalize rotates loop to start at its smallest index and returns that
// start index, the deltas of the remaining corners from it, and the rotation
// applied. Per-corner attributes must be rotated by the same amount.
func Canonicalize(loop []int) (start int, deltas []int, rotation int) {
	rotation = MinCorner(loop)
	rotated := Rotate(loop, rotation)
	start = rotated[0]
	deltas = make([]int, len(rotated)-1)
	for i, v := range rotated[1:] {
		deltas[i] = v - start
	}
	return start, deltas, rotation
}
