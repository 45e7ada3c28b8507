package vtk

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSpan            = errors.New("invalid span")
	ErrShapeMismatch          = errors.New("shape mismatch")
	ErrPrecisionMismatch      = errors.New("precision mismatch")
	ErrMissingArray           = errors.New("missing array")
	ErrMalformedEncoding      = errors.New("malformed encoding")
	ErrMalformedNumber        = errors.New("malformed number")
	ErrLengthMismatch         = errors.New("length mismatch")
	ErrUnsupportedDatasetType = errors.New("unsupported dataset type")
)

// Error carries the context of a structural failure. Kind is one of the
// sentinel errors above, so errors.Is(err, ErrShapeMismatch) works on it.
// A value count that disagrees with the expected count is a ShapeMismatch
// that also matches ErrLengthMismatch.
type Error struct {
	Kind     error
	Array    string
	Axis     string
	Expected string
	Actual   string
	Detail   string

	count bool
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("vtk: ")
	b.WriteString(e.Kind.Error())
	if e.Array != "" {
		fmt.Fprintf(&b, ": array %q", e.Array)
	}
	if e.Axis != "" {
		fmt.Fprintf(&b, ": axis %s", e.Axis)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " (expected %s, got %s)", e.Expected, e.Actual)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

func (e *Error) Is(target error) bool {
	return e.count && target == ErrLengthMismatch
}

func mismatch(kind error, array string, expected, actual any) *Error {
	return &Error{
		Kind:     kind,
		Array:    array,
		Expected: fmt.Sprint(expected),
		Actual:   fmt.Sprint(actual),
	}
}

// countMismatch reports a value count that disagrees with the spans.
func countMismatch(array string, expected, actual any) *Error {
	e := mismatch(ErrShapeMismatch, array, expected, actual)
	e.count = true
	return e
}

func detailf(kind error, array, format string, args ...any) *Error {
	return &Error{Kind: kind, Array: array, Detail: fmt.Sprintf(format, args...)}
}

// withArray fills in the array name on an *Error that does not have one yet.
func withArray(err error, name string) error {
	var e *Error
	if errors.As(err, &e) && e.Array == "" {
		cp := *e
		cp.Array = name
		return &cp
	}
	return err
}
