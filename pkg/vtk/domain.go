package vtk

import (
	"fmt"
	"math"
	"slices"
)

// Mesh holds the point locations along each axis of a rectilinear grid and
// the wire settings used for them. Z is left empty for 2D grids.
type Mesh struct {
	X, Y, Z   []float64
	Precision Precision
	Encoding  Encoding
	Placement Placement
}

// Axis returns the coordinates of a.
func (m Mesh) Axis(a Axis) []float64 {
	switch a {
	case AxisX:
		return m.X
	case AxisY:
		return m.Y
	default:
		return m.Z
	}
}

// Domain is the complete geometric description of one piece.
type Domain struct {
	Mesh  Mesh
	Spans Spans
}

// BuildDomain validates mesh against spans. A zero Precision defaults to
// Float64.
func BuildDomain(mesh Mesh, spans Spans) (Domain, error) {
	if spans.IsZero() {
		return Domain{}, &Error{Kind: ErrInvalidSpan, Detail: "zero spans"}
	}
	if mesh.Precision == PrecisionUnknown {
		mesh.Precision = Float64
	}
	if !mesh.Precision.valid() {
		return Domain{}, &Error{Kind: ErrPrecisionMismatch, Detail: fmt.Sprintf("unsupported mesh precision %s", mesh.Precision)}
	}
	placement, err := resolvePlacement(mesh.Encoding, mesh.Placement)
	if err != nil {
		return Domain{}, err
	}
	mesh.Placement = placement

	axes := []Axis{AxisX, AxisY, AxisZ}
	if spans.Dim() == 2 {
		axes = axes[:2]
		if len(mesh.Z) != 0 {
			return Domain{}, &Error{
				Kind:     ErrShapeMismatch,
				Axis:     AxisZ.String(),
				Detail:   "2D mesh must not carry z coordinates",
				Expected: "0",
				Actual:   fmt.Sprint(len(mesh.Z)),
			}
		}
	}
	for _, a := range axes {
		coords := mesh.Axis(a)
		if len(coords) != spans.Len(a) {
			return Domain{}, &Error{
				Kind:     ErrShapeMismatch,
				Axis:     a.String(),
				Detail:   "coordinate count disagrees with spans",
				Expected: fmt.Sprint(spans.Len(a)),
				Actual:   fmt.Sprint(len(coords)),
			}
		}
		if !mesh.Precision.IsFloat() {
			for i, v := range coords {
				if v != math.Trunc(v) {
					return Domain{}, &Error{
						Kind:   ErrPrecisionMismatch,
						Axis:   a.String(),
						Detail: fmt.Sprintf("coordinate %d (%v) is not representable as %s", i, v, mesh.Precision),
					}
				}
			}
		}
	}
	mesh.X = slices.Clone(mesh.X)
	mesh.Y = slices.Clone(mesh.Y)
	mesh.Z = slices.Clone(mesh.Z)
	return Domain{Mesh: mesh, Spans: spans}, nil
}

// coordinates returns the three written coordinate arrays. 2D domains get a
// single z location at 0.
func (d Domain) coordinates() [3][]float64 {
	z := d.Mesh.Z
	if d.Spans.Dim() == 2 {
		z = []float64{0}
	}
	return [3][]float64{d.Mesh.X, d.Mesh.Y, z}
}

var coordinateNames = [3]string{"x_coordinates", "y_coordinates", "z_coordinates"}

func convertCoords[T Number](xs []float64) []T {
	out := make([]T, len(xs))
	for i, v := range xs {
		out[i] = T(v)
	}
	return out
}

func widenCoords[T Number](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = float64(v)
	}
	return out
}

// coordText renders one coordinate axis as text at precision p.
func coordText(dst []byte, p Precision, xs []float64) []byte {
	switch p {
	case Float32:
		return appendText(dst, convertCoords[float32](xs))
	case Int32:
		return appendText(dst, convertCoords[int32](xs))
	case Int64:
		return appendText(dst, convertCoords[int64](xs))
	default:
		return appendText(dst, xs)
	}
}

// coordBlock renders one coordinate axis as a binary block at precision p.
func coordBlock(c blockCodec, dst []byte, p Precision, xs []float64) []byte {
	switch p {
	case Float32:
		return appendBlock(c, dst, len(xs), sliceEach(convertCoords[float32](xs)))
	case Int32:
		return appendBlock(c, dst, len(xs), sliceEach(convertCoords[int32](xs)))
	case Int64:
		return appendBlock(c, dst, len(xs), sliceEach(convertCoords[int64](xs)))
	default:
		return appendBlock(c, dst, len(xs), sliceEach(xs))
	}
}

func decodeCoordsAs[T Number](h *Handle, want int) ([]float64, error) {
	vs, err := decodeHandle[T](h, want)
	if err != nil {
		return nil, err
	}
	return widenCoords(vs), nil
}

func decodeCoords(h *Handle, want int) ([]float64, error) {
	switch h.Precision {
	case Float32:
		return decodeCoordsAs[float32](h, want)
	case Float64:
		return decodeCoordsAs[float64](h, want)
	case Int32:
		return decodeCoordsAs[int32](h, want)
	case Int64:
		return decodeCoordsAs[int64](h, want)
	default:
		return nil, &Error{Kind: ErrPrecisionMismatch, Array: h.Name, Detail: "unknown precision"}
	}
}
