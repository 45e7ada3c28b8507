package vtk

import (
	"fmt"
	"strconv"
	"strings"
)

// Axis names one spatial axis of a grid.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "axis(" + strconv.Itoa(int(a)) + ")"
	}
}

// Spans is the index range a piece occupies inside a larger logical grid.
// Ranges are half-open: an axis holds End-Start points. Spans values are
// comparable with ==.
type Spans struct {
	dim   int
	start [3]int
	end   [3]int
}

// NewSpans builds 2D spans from four bounds or 3D spans from six, given as
// start,end pairs in x, y, z order.
func NewSpans(bounds ...int) (Spans, error) {
	if len(bounds) != 4 && len(bounds) != 6 {
		return Spans{}, &Error{
			Kind:     ErrInvalidSpan,
			Expected: "4 or 6 bounds",
			Actual:   strconv.Itoa(len(bounds)),
		}
	}
	s := Spans{dim: len(bounds) / 2}
	for i := 0; i < s.dim; i++ {
		s.start[i] = bounds[2*i]
		s.end[i] = bounds[2*i+1]
		if s.end[i] < s.start[i] {
			return Spans{}, &Error{
				Kind:     ErrInvalidSpan,
				Axis:     Axis(i).String(),
				Expected: fmt.Sprintf("end >= start (%d)", s.start[i]),
				Actual:   strconv.Itoa(s.end[i]),
			}
		}
	}
	if s.dim == 2 {
		s.end[AxisZ] = 1
	}
	return s, nil
}

func NewSpans2D(xStart, xEnd, yStart, yEnd int) (Spans, error) {
	return NewSpans(xStart, xEnd, yStart, yEnd)
}

func NewSpans3D(xStart, xEnd, yStart, yEnd, zStart, zEnd int) (Spans, error) {
	return NewSpans(xStart, xEnd, yStart, yEnd, zStart, zEnd)
}

// Dim returns 2 or 3, or 0 for the zero value.
func (s Spans) Dim() int { return s.dim }

func (s Spans) IsZero() bool { return s.dim == 0 }

func (s Spans) Start(a Axis) int { return s.start[a] }

func (s Spans) End(a Axis) int { return s.end[a] }

// Len returns the number of points along a. The z axis of 2D spans has one.
func (s Spans) Len(a Axis) int { return s.end[a] - s.start[a] }

// Points returns the number of grid points covered.
func (s Spans) Points() int {
	return s.Len(AxisX) * s.Len(AxisY) * s.Len(AxisZ)
}

// ArrayLen is the flattened length of an array with the given component count.
func (s Spans) ArrayLen(components int) int { return s.Points() * components }

// Bounds returns the start,end pairs in axis order (4 or 6 values).
func (s Spans) Bounds() []int {
	out := make([]int, 0, 2*s.dim)
	for i := 0; i < s.dim; i++ {
		out = append(out, s.start[i], s.end[i])
	}
	return out
}

// Extent renders the inclusive six-value VTK extent string.
func (s Spans) Extent() string {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(s.start[i]))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(s.end[i] - 1))
	}
	return b.String()
}

func (s Spans) String() string {
	return fmt.Sprintf("Spans%dD%v", s.dim, s.Bounds())
}

// ParseExtent reads an inclusive six-value VTK extent. The result is 3D.
func ParseExtent(extent string) (Spans, error) {
	fields := strings.Fields(extent)
	if len(fields) != 6 {
		return Spans{}, &Error{
			Kind:     ErrInvalidSpan,
			Detail:   fmt.Sprintf("extent %q", extent),
			Expected: "6 values",
			Actual:   strconv.Itoa(len(fields)),
		}
	}
	bounds := make([]int, 6)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Spans{}, &Error{Kind: ErrInvalidSpan, Detail: fmt.Sprintf("extent value %q is not an integer", f)}
		}
		if i%2 == 1 {
			v++
		}
		bounds[i] = v
	}
	return NewSpans(bounds...)
}

// As2D drops the z axis. The z axis must hold exactly one point at index 0.
func (s Spans) As2D() (Spans, error) {
	if s.dim == 2 {
		return s, nil
	}
	if s.start[AxisZ] != 0 || s.end[AxisZ] != 1 {
		return Spans{}, &Error{
			Kind:     ErrInvalidSpan,
			Axis:     AxisZ.String(),
			Expected: "[0,1)",
			Actual:   fmt.Sprintf("[%d,%d)", s.start[AxisZ], s.end[AxisZ]),
		}
	}
	s.dim = 2
	return s, nil
}

// As3D returns s with an explicit z axis.
func (s Spans) As3D() Spans {
	s.dim = 3
	return s
}

// Contains reports whether o lies entirely within s.
func (s Spans) Contains(o Spans) bool {
	for i := 0; i < 3; i++ {
		if o.start[i] < s.start[i] || o.end[i] > s.end[i] {
			return false
		}
	}
	return true
}

// OffsetIn returns the per-axis origin of s inside whole.
func (s Spans) OffsetIn(whole Spans) ([3]int, error) {
	if s.dim != whole.dim {
		return [3]int{}, &Error{
			Kind:     ErrInvalidSpan,
			Detail:   "piece and whole dimensionality differ",
			Expected: strconv.Itoa(whole.dim),
			Actual:   strconv.Itoa(s.dim),
		}
	}
	if !whole.Contains(s) {
		return [3]int{}, &Error{Kind: ErrInvalidSpan, Detail: fmt.Sprintf("%v lies outside %v", s, whole)}
	}
	var off [3]int
	for i := range off {
		off[i] = s.start[i] - whole.start[i]
	}
	return off, nil
}

// Union returns the smallest spans covering both s and o.
func (s Spans) Union(o Spans) (Spans, error) {
	if s.dim != o.dim {
		return Spans{}, &Error{
			Kind:     ErrInvalidSpan,
			Detail:   "cannot union spans of different dimensionality",
			Expected: strconv.Itoa(s.dim),
			Actual:   strconv.Itoa(o.dim),
		}
	}
	u := s
	for i := 0; i < 3; i++ {
		u.start[i] = min(s.start[i], o.start[i])
		u.end[i] = max(s.end[i], o.end[i])
	}
	return u, nil
}
