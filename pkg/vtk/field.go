package vtk

import (
	"fmt"
	"strings"
)

// arrayData is the type-erased view of an Array used by the writer.
type arrayData interface {
	Precision() Precision
	Components() int
	Len() int
	Fits(Spans) bool
	shapeString() string
	appendWireText(dst []byte) []byte
	appendWireBlock(c blockCodec, dst []byte) []byte
}

func (a *Array[T]) appendWireText(dst []byte) []byte {
	first := true
	a.each(func(v T) {
		if !first {
			dst = append(dst, ' ')
		}
		first = false
		dst = appendNumber(dst, v)
	})
	return dst
}

func (a *Array[T]) appendWireBlock(c blockCodec, dst []byte) []byte {
	return appendBlock(c, dst, len(a.data), a.each)
}

// NamedArray describes one point-data array of a document: its name, its
// shaped content and how it goes on the wire.
type NamedArray struct {
	Name      string
	Encoding  Encoding
	Placement Placement

	data arrayData
}

// NewNamedArray attaches a name and wire settings to a. Text arrays are
// always inline and Raw arrays always appended; an explicit conflicting
// placement is rejected.
func NewNamedArray[T Number](name string, a *Array[T], enc Encoding, placement Placement) (NamedArray, error) {
	if a == nil {
		return NamedArray{}, &Error{Kind: ErrMissingArray, Array: name, Detail: "nil array"}
	}
	n := NamedArray{Name: name, Encoding: enc, Placement: placement, data: a}
	if err := n.check(); err != nil {
		return NamedArray{}, err
	}
	n.Placement, _ = resolvePlacement(enc, placement)
	return n, nil
}

func (n NamedArray) Components() int {
	if n.data == nil {
		return 0
	}
	return n.data.Components()
}

func (n NamedArray) Precision() Precision {
	if n.data == nil {
		return PrecisionUnknown
	}
	return n.data.Precision()
}

// Len is the flattened length of the array.
func (n NamedArray) Len() int {
	if n.data == nil {
		return 0
	}
	return n.data.Len()
}

func (n NamedArray) check() error {
	if n.Name == "" {
		return &Error{Kind: ErrMissingArray, Detail: "array name is empty"}
	}
	if strings.ContainsAny(n.Name, "\"<>&") {
		return detailf(ErrMalformedEncoding, n.Name, "array name contains reserved XML characters")
	}
	if n.data == nil {
		return &Error{Kind: ErrMissingArray, Array: n.Name, Detail: "no array data"}
	}
	if _, err := resolvePlacement(n.Encoding, n.Placement); err != nil {
		return withArray(err, n.Name)
	}
	return nil
}

// validate checks n against the domain it is written with.
func (n NamedArray) validate(d Domain) error {
	if err := n.check(); err != nil {
		return err
	}
	if p := n.data.Precision(); p != d.Mesh.Precision {
		return mismatch(ErrPrecisionMismatch, n.Name, d.Mesh.Precision, p)
	}
	if !n.data.Fits(d.Spans) {
		return &Error{
			Kind:     ErrShapeMismatch,
			Array:    n.Name,
			Expected: fmt.Sprintf("%d x %d x %d points", d.Spans.Len(AxisX), d.Spans.Len(AxisY), d.Spans.Len(AxisZ)),
			Actual:   n.data.shapeString(),
		}
	}
	return nil
}

func (n NamedArray) placement() Placement {
	p, _ := resolvePlacement(n.Encoding, n.Placement)
	return p
}

// Handle addresses one DataArray of a parsed document. Its content is
// decoded only when the array is recovered.
type Handle struct {
	Name       string
	Components int
	Precision  Precision
	Encoding   Encoding
	Placement  Placement
	// Offset is the appended-section offset; meaningful for appended arrays.
	Offset int64

	content []byte
	doc     *Document
}

func decodeHandle[T Number](h *Handle, want int) ([]T, error) {
	if got := PrecisionOf[T](); got != h.Precision {
		return nil, mismatch(ErrPrecisionMismatch, h.Name, h.Precision, got)
	}
	var (
		values []T
		err    error
	)
	switch {
	case h.Placement == Appended:
		var raw []byte
		raw, err = h.doc.appended.block(h.Offset)
		if err == nil {
			values, _, err = decodeBlock[T](h.doc.codec, raw, want)
		}
	case h.Encoding == Base64:
		var raw []byte
		raw, err = decodeBase64(h.content)
		if err == nil {
			var used int
			values, used, err = decodeBlock[T](h.doc.codec, raw, want)
			if err == nil && used != len(raw) {
				err = mismatch(ErrLengthMismatch, "", fmt.Sprintf("%d bytes", used), fmt.Sprintf("%d bytes", len(raw)))
			}
		}
	default:
		values, err = parseText[T](h.content, want)
	}
	if err != nil {
		return nil, withArray(err, h.Name)
	}
	return values, nil
}

// Recover decodes the named point-data array of doc and reshapes it to the
// document spans. T must match the document precision.
func Recover[T Number](doc *Document, name string) (*Array[T], error) {
	h, ok := doc.byName[name]
	if !ok {
		return nil, &Error{Kind: ErrMissingArray, Array: name}
	}
	values, err := decodeHandle[T](h, doc.domain.Spans.ArrayLen(h.Components))
	if err != nil {
		return nil, err
	}
	a, err := FromFlat(doc.domain.Spans, h.Components, values)
	if err != nil {
		return nil, withArray(err, name)
	}
	return a, nil
}

// RecoverShaped is Recover with an expected component count.
func RecoverShaped[T Number](doc *Document, name string, components int) (*Array[T], error) {
	h, ok := doc.byName[name]
	if !ok {
		return nil, &Error{Kind: ErrMissingArray, Array: name}
	}
	if h.Components != components {
		return nil, &Error{
			Kind:     ErrShapeMismatch,
			Array:    name,
			Detail:   "component count",
			Expected: fmt.Sprint(components),
			Actual:   fmt.Sprint(h.Components),
		}
	}
	return Recover[T](doc, name)
}

// NamedArrays decodes every point-data array of doc, keeping the encoding
// and placement each was read with.
func (d *Document) NamedArrays() ([]NamedArray, error) {
	switch d.Precision() {
	case Float32:
		return namedArrays[float32](d)
	case Float64:
		return namedArrays[float64](d)
	case Int32:
		return namedArrays[int32](d)
	case Int64:
		return namedArrays[int64](d)
	default:
		return nil, &Error{Kind: ErrPrecisionMismatch, Detail: "unknown document precision"}
	}
}

func namedArrays[T Number](d *Document) ([]NamedArray, error) {
	out := make([]NamedArray, 0, len(d.arrays))
	for _, h := range d.arrays {
		a, err := Recover[T](d, h.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedArray{Name: h.Name, Encoding: h.Encoding, Placement: h.Placement, data: a})
	}
	return out, nil
}

// Values decodes the named array in wire order, widened to float64.
// Int64 values beyond 2^53 lose precision.
func (d *Document) Values(name string) ([]float64, error) {
	h, ok := d.byName[name]
	if !ok {
		return nil, &Error{Kind: ErrMissingArray, Array: name}
	}
	want := d.domain.Spans.ArrayLen(h.Components)
	switch h.Precision {
	case Float32:
		return decodeCoordsAs[float32](h, want)
	case Float64:
		return decodeHandle[float64](h, want)
	case Int32:
		return decodeCoordsAs[int32](h, want)
	case Int64:
		return decodeCoordsAs[int64](h, want)
	default:
		return nil, &Error{Kind: ErrPrecisionMismatch, Array: name, Detail: "unknown precision"}
	}
}
