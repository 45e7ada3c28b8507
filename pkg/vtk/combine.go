package vtk

import (
	"fmt"
	"slices"
)

// Field is one named array of a Piece.
type Field[T Number] struct {
	Name      string
	Encoding  Encoding
	Placement Placement
	Array     *Array[T]
}

// Piece is a decoded sub-grid: its domain and point data.
type Piece[T Number] struct {
	Domain Domain
	Fields []Field[T]
}

// PieceFromDocument recovers every array of doc as T.
func PieceFromDocument[T Number](doc *Document) (Piece[T], error) {
	p := Piece[T]{Domain: doc.Domain()}
	for _, h := range doc.arrays {
		a, err := Recover[T](doc, h.Name)
		if err != nil {
			return Piece[T]{}, err
		}
		p.Fields = append(p.Fields, Field[T]{Name: h.Name, Encoding: h.Encoding, Placement: h.Placement, Array: a})
	}
	return p, nil
}

// NamedArrays converts the fields for writing.
func (p Piece[T]) NamedArrays() ([]NamedArray, error) {
	out := make([]NamedArray, 0, len(p.Fields))
	for _, f := range p.Fields {
		n, err := NewNamedArray(f.Name, f.Array, f.Encoding, f.Placement)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// CombinePieces stitches pieces into one piece covering whole. A zero whole
// is the union of the piece spans. Every point of whole must be covered;
// points shared by several pieces must agree on coordinates and values.
// Fields follow the order of the first piece, and every piece must carry
// the same field names and component counts.
func CombinePieces[T Number](whole Spans, pieces ...Piece[T]) (Piece[T], error) {
	if len(pieces) == 0 {
		return Piece[T]{}, &Error{Kind: ErrMissingArray, Detail: "no pieces to combine"}
	}
	if whole.IsZero() {
		whole = pieces[0].Domain.Spans
		for _, p := range pieces[1:] {
			u, err := whole.Union(p.Domain.Spans)
			if err != nil {
				return Piece[T]{}, err
			}
			whole = u
		}
	}

	first := pieces[0]
	out := Piece[T]{Fields: make([]Field[T], len(first.Fields))}
	for i, f := range first.Fields {
		a, err := NewArray[T](whole, f.Array.Components())
		if err != nil {
			return Piece[T]{}, err
		}
		out.Fields[i] = Field[T]{Name: f.Name, Encoding: f.Encoding, Placement: f.Placement, Array: a}
	}

	var (
		coords  [3][]float64
		coordOK [3][]bool
	)
	for a := range 3 {
		coords[a] = make([]float64, whole.Len(Axis(a)))
		coordOK[a] = make([]bool, whole.Len(Axis(a)))
	}
	covered := make([]bool, whole.Points())

	for pi, p := range pieces {
		off, err := p.Domain.Spans.OffsetIn(whole)
		if err != nil {
			return Piece[T]{}, err
		}
		if p.Domain.Mesh.Precision != first.Domain.Mesh.Precision {
			return Piece[T]{}, mismatch(ErrPrecisionMismatch, "", first.Domain.Mesh.Precision, p.Domain.Mesh.Precision)
		}
		if err := placeCoords(&coords, &coordOK, p.Domain, off); err != nil {
			return Piece[T]{}, err
		}
		fields, err := matchFields(out.Fields, p.Fields, pi)
		if err != nil {
			return Piece[T]{}, err
		}
		s := p.Domain.Spans
		for k := range s.Len(AxisZ) {
			for j := range s.Len(AxisY) {
				for i := range s.Len(AxisX) {
					gi, gj, gk := i+off[0], j+off[1], k+off[2]
					pt := (gk*whole.Len(AxisY)+gj)*whole.Len(AxisX) + gi
					for fi, src := range fields {
						dst := out.Fields[fi].Array
						for c := range dst.components {
							v := src.At(i, j, k, c)
							if covered[pt] && !sameValue(dst.At(gi, gj, gk, c), v) {
								return Piece[T]{}, &Error{
									Kind:   ErrShapeMismatch,
									Array:  out.Fields[fi].Name,
									Detail: fmt.Sprintf("pieces disagree at point (%d,%d,%d)", gi, gj, gk),
								}
							}
							dst.Set(gi, gj, gk, c, v)
						}
					}
					covered[pt] = true
				}
			}
		}
	}

	if i := slices.Index(covered, false); i >= 0 {
		nx, ny := whole.Len(AxisX), whole.Len(AxisY)
		return Piece[T]{}, &Error{
			Kind:   ErrShapeMismatch,
			Detail: fmt.Sprintf("point (%d,%d,%d) of %v is not covered by any piece", i%nx, (i/nx)%ny, i/(nx*ny), whole),
		}
	}

	mesh := first.Domain.Mesh
	mesh.X, mesh.Y, mesh.Z = coords[0], coords[1], coords[2]
	if whole.Dim() == 2 {
		mesh.Z = nil
	}
	d, err := BuildDomain(mesh, whole)
	if err != nil {
		return Piece[T]{}, err
	}
	out.Domain = d
	return out, nil
}

func placeCoords(coords *[3][]float64, ok *[3][]bool, d Domain, off [3]int) error {
	for a, xs := range d.coordinates() {
		for i, v := range xs {
			g := i + off[a]
			if ok[a][g] && coords[a][g] != v {
				return &Error{
					Kind:   ErrShapeMismatch,
					Axis:   Axis(a).String(),
					Detail: fmt.Sprintf("pieces disagree on coordinate %d", g),
				}
			}
			coords[a][g] = v
			ok[a][g] = true
		}
	}
	return nil
}

// matchFields returns the arrays of got in the order of want.
func matchFields[T Number](want, got []Field[T], piece int) ([]*Array[T], error) {
	if len(got) != len(want) {
		return nil, &Error{
			Kind:     ErrMissingArray,
			Detail:   fmt.Sprintf("piece %d field count", piece),
			Expected: fmt.Sprint(len(want)),
			Actual:   fmt.Sprint(len(got)),
		}
	}
	out := make([]*Array[T], len(want))
	for i, w := range want {
		j := slices.IndexFunc(got, func(f Field[T]) bool { return f.Name == w.Name })
		if j < 0 {
			return nil, &Error{Kind: ErrMissingArray, Array: w.Name, Detail: fmt.Sprintf("absent from piece %d", piece)}
		}
		if c := got[j].Array.Components(); c != w.Array.Components() {
			return nil, mismatch(ErrShapeMismatch, w.Name, w.Array.Components(), c)
		}
		out[i] = got[j].Array
	}
	return out, nil
}

func sameValue[T Number](a, b T) bool {
	return a == b || (a != a && b != b)
}

// CombineDocuments merges parsed pieces of one grid. The whole extent is
// the union of the documents' whole extents.
func CombineDocuments(docs ...*Document) (Domain, []NamedArray, error) {
	if len(docs) == 0 {
		return Domain{}, nil, &Error{Kind: ErrMissingArray, Detail: "no documents to combine"}
	}
	whole := docs[0].Whole()
	for _, d := range docs[1:] {
		if d.Precision() != docs[0].Precision() {
			return Domain{}, nil, mismatch(ErrPrecisionMismatch, "", docs[0].Precision(), d.Precision())
		}
		u, err := whole.Union(d.Whole())
		if err != nil {
			return Domain{}, nil, err
		}
		whole = u
	}
	switch docs[0].Precision() {
	case Float32:
		return combineDocs[float32](whole, docs)
	case Float64:
		return combineDocs[float64](whole, docs)
	case Int32:
		return combineDocs[int32](whole, docs)
	case Int64:
		return combineDocs[int64](whole, docs)
	default:
		return Domain{}, nil, &Error{Kind: ErrPrecisionMismatch, Detail: "unknown document precision"}
	}
}

func combineDocs[T Number](whole Spans, docs []*Document) (Domain, []NamedArray, error) {
	pieces := make([]Piece[T], 0, len(docs))
	for _, d := range docs {
		p, err := PieceFromDocument[T](d)
		if err != nil {
			return Domain{}, nil, err
		}
		pieces = append(pieces, p)
	}
	merged, err := CombinePieces(whole, pieces...)
	if err != nil {
		return Domain{}, nil, err
	}
	arrays, err := merged.NamedArrays()
	if err != nil {
		return Domain{}, nil, err
	}
	return merged.Domain, arrays, nil
}
