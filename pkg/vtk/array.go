package vtk

import (
	"fmt"
	"strconv"
)

// Array is a dense grid-shaped array. Values are stored row-major over
// (x, y[, z], component), so the last index varies fastest in Data. The
// wire order is the opposite: component fastest, then x, then y, then z.
// Flatten and FromFlat convert between the two.
type Array[T Number] struct {
	dim        int
	nx, ny, nz int
	components int
	data       []T
}

// NewArray allocates a zeroed array shaped by spans.
func NewArray[T Number](spans Spans, components int) (*Array[T], error) {
	if spans.IsZero() {
		return nil, &Error{Kind: ErrInvalidSpan, Detail: "zero spans"}
	}
	if components < 1 {
		return nil, mismatch(ErrShapeMismatch, "", ">= 1 component", components)
	}
	a := &Array[T]{
		dim:        spans.Dim(),
		nx:         spans.Len(AxisX),
		ny:         spans.Len(AxisY),
		nz:         spans.Len(AxisZ),
		components: components,
	}
	a.data = make([]T, a.nx*a.ny*a.nz*components)
	return a, nil
}

func NewArray2D[T Number](nx, ny, components int) (*Array[T], error) {
	s, err := NewSpans2D(0, nx, 0, ny)
	if err != nil {
		return nil, err
	}
	return NewArray[T](s, components)
}

func NewArray3D[T Number](nx, ny, nz, components int) (*Array[T], error) {
	s, err := NewSpans3D(0, nx, 0, ny, 0, nz)
	if err != nil {
		return nil, err
	}
	return NewArray[T](s, components)
}

// FromData wraps a row-major buffer. shape is (nx, ny, components) or
// (nx, ny, nz, components). The buffer is not copied.
func FromData[T Number](data []T, shape ...int) (*Array[T], error) {
	var (
		s   Spans
		err error
	)
	switch len(shape) {
	case 3:
		s, err = NewSpans2D(0, shape[0], 0, shape[1])
	case 4:
		s, err = NewSpans3D(0, shape[0], 0, shape[1], 0, shape[2])
	default:
		return nil, mismatch(ErrShapeMismatch, "", "3 or 4 shape values", len(shape))
	}
	if err != nil {
		return nil, err
	}
	a, err := NewArray[T](s, shape[len(shape)-1])
	if err != nil {
		return nil, err
	}
	if len(data) != len(a.data) {
		return nil, mismatch(ErrShapeMismatch, "", len(a.data), len(data))
	}
	a.data = data
	return a, nil
}

// FromFlat builds an array from values in wire order.
func FromFlat[T Number](spans Spans, components int, flat []T) (*Array[T], error) {
	a, err := NewArray[T](spans, components)
	if err != nil {
		return nil, err
	}
	if len(flat) != len(a.data) {
		return nil, mismatch(ErrShapeMismatch, "", len(a.data), len(flat))
	}
	n := 0
	for k := 0; k < a.nz; k++ {
		for j := 0; j < a.ny; j++ {
			for i := 0; i < a.nx; i++ {
				base := a.index(i, j, k, 0)
				copy(a.data[base:base+a.components], flat[n:n+a.components])
				n += a.components
			}
		}
	}
	return a, nil
}

func (a *Array[T]) index(i, j, k, c int) int {
	return ((i*a.ny+j)*a.nz+k)*a.components + c
}

func (a *Array[T]) checkIndex(i, j, k, c int) {
	if i < 0 || i >= a.nx || j < 0 || j >= a.ny || k < 0 || k >= a.nz || c < 0 || c >= a.components {
		panic(fmt.Sprintf("vtk: index (%d,%d,%d,%d) out of range for shape %v", i, j, k, c, a.Shape()))
	}
}

// At returns the value at grid point (i, j, k) and component c. k must be 0
// for 2D arrays.
func (a *Array[T]) At(i, j, k, c int) T {
	a.checkIndex(i, j, k, c)
	return a.data[a.index(i, j, k, c)]
}

func (a *Array[T]) Set(i, j, k, c int, v T) {
	a.checkIndex(i, j, k, c)
	a.data[a.index(i, j, k, c)] = v
}

// Data returns the row-major backing buffer.
func (a *Array[T]) Data() []T { return a.data }

// Shape returns (nx, ny, components) for 2D arrays and (nx, ny, nz,
// components) for 3D arrays.
func (a *Array[T]) Shape() []int {
	if a.dim == 2 {
		return []int{a.nx, a.ny, a.components}
	}
	return []int{a.nx, a.ny, a.nz, a.components}
}

func (a *Array[T]) Dim() int { return a.dim }

func (a *Array[T]) Components() int { return a.components }

func (a *Array[T]) Len() int { return len(a.data) }

func (a *Array[T]) Precision() Precision { return PrecisionOf[T]() }

// Fits reports whether the array has the point counts of spans.
func (a *Array[T]) Fits(spans Spans) bool {
	return a.dim == spans.Dim() &&
		a.nx == spans.Len(AxisX) &&
		a.ny == spans.Len(AxisY) &&
		a.nz == spans.Len(AxisZ)
}

// Flatten returns the values in wire order.
func (a *Array[T]) Flatten() []T {
	out := make([]T, 0, len(a.data))
	a.each(func(v T) { out = append(out, v) })
	return out
}

// each visits values in wire order: for z, for y, for x, for component.
func (a *Array[T]) each(fn func(T)) {
	for k := 0; k < a.nz; k++ {
		for j := 0; j < a.ny; j++ {
			for i := 0; i < a.nx; i++ {
				base := a.index(i, j, k, 0)
				for c := 0; c < a.components; c++ {
					fn(a.data[base+c])
				}
			}
		}
	}
}

func (a *Array[T]) shapeString() string {
	out := "("
	for i, n := range a.Shape() {
		if i > 0 {
			out += ","
		}
		out += strconv.Itoa(n)
	}
	return out + ")"
}
