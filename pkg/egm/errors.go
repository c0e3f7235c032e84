package egm

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrFormat       = errors.New("egm: format error")
	ErrRange        = errors.New("egm: range error")
	ErrPrecondition = errors.New("egm: precondition failed")
)

// FormatError reports a document or model that does not follow the EGM grammar:
// missing keys, wrong arity, malformed numbers or out-of-range vertex indices.
type FormatError struct {
	Where string // location inside the document, e.g. "polygons[4][0]"
	Msg   string
	Err   error // underlying cause, if any
}

func (e *FormatError) Error() string {
	if e.Where == "" {
		return "egm: format error: " + e.Msg
	}
	return fmt.Sprintf("egm: format error at %s: %s", e.Where, e.Msg)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error { return e.Err }

// RangeError reports an inverted LOD range, or a record range that leaves
// the model range.
type RangeError struct {
	Where string
	Range LODRange
	Msg   string
}

func (e *RangeError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("egm: range error: %s %s", e.Range, e.Msg)
	}
	return fmt.Sprintf("egm: range error at %s: %s %s", e.Where, e.Range, e.Msg)
}

// Is reports whether target is ErrRange.
func (e *RangeError) Is(target error) bool { return target == ErrRange }

// PreconditionError reports encoder input that cannot be turned into a model.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return "egm: precondition failed: " + e.Msg
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

func formatErrorf(where, format string, args ...any) error {
	return &FormatError{Where: where, Msg: fmt.Sprintf(format, args...)}
}

func preconditionf(format string, args ...any) error {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// checkRange validates r and, when outer is non-nil, that r lies inside it.
func checkRange(where string, r LODRange, outer *LODRange) error {
	if !r.Valid() {
		return &RangeError{Where: where, Range: r, Msg: "is inverted"}
	}
	if outer != nil && !outer.Covers(r) {
		return &RangeError{Where: where, Range: r, Msg: "is outside model range " + outer.String()}
	}
	return nil
}
