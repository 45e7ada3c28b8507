package vtk

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Document is a parsed RectilinearGrid file. Coordinates are decoded and
// validated during parsing; point-data arrays are located and their
// appended blocks bounds-checked, but their values are decoded only by
// Recover.
type Document struct {
	domain    Domain
	whole     Spans
	byteOrder ByteOrder
	header    HeaderType
	codec     blockCodec

	coords   [3]*Handle
	arrays   []*Handle
	byName   map[string]*Handle
	appended *appendedSection

	release func() error
}

func (d *Document) Domain() Domain { return d.domain }

// Whole returns the WholeExtent of the grid the piece belongs to. It equals
// Domain().Spans for single-piece files.
func (d *Document) Whole() Spans { return d.whole }

func (d *Document) Precision() Precision { return d.domain.Mesh.Precision }

func (d *Document) ByteOrder() ByteOrder { return d.byteOrder }

func (d *Document) HeaderType() HeaderType { return d.header }

// Arrays returns the point-data handles in document order.
func (d *Document) Arrays() []*Handle { return slices.Clone(d.arrays) }

// Coordinates returns the x, y and z coordinate handles.
func (d *Document) Coordinates() [3]*Handle { return d.coords }

func (d *Document) Handle(name string) (*Handle, bool) {
	h, ok := d.byName[name]
	return h, ok
}

// AppendedEncoding reports the encoding of the appended section and whether
// the document has one.
func (d *Document) AppendedEncoding() (Encoding, bool) {
	if d.appended == nil {
		return Text, false
	}
	return d.appended.encoding, true
}

// AppendedLen is the size of the appended section in its own units.
func (d *Document) AppendedLen() int64 {
	if d.appended == nil {
		return 0
	}
	return int64(len(d.appended.data))
}

// Offsets lists every appended block, coordinates included, sorted by
// offset.
func (d *Document) Offsets() []Slot {
	if d.appended == nil {
		return nil
	}
	var out []Slot
	add := func(h *Handle) {
		if h == nil || h.Placement != Appended {
			return
		}
		n, _ := d.appended.blockLen(h.Offset)
		out = append(out, Slot{Name: h.Name, Offset: h.Offset, Length: n})
	}
	for _, h := range d.coords {
		add(h)
	}
	for _, h := range d.arrays {
		add(h)
	}
	slices.SortStableFunc(out, func(a, b Slot) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	return out
}

// Close releases the backing storage of a document returned by Open. It is
// a no-op for documents parsed from memory.
func (d *Document) Close() error {
	if d.release == nil {
		return nil
	}
	err := d.release()
	d.release = nil
	return err
}

// ParseOption configures ParseBytes, ParseDocument, Open and OpenReaderAt.
type ParseOption func(*parseOptions)

type parseOptions struct {
	dim int
}

// WithDimension fixes the dimensionality of the parsed domain. By default a
// z extent of "0 0" with the single z coordinate 0 reads as 2D; a 3D grid
// one point thick at z=0 is written the same way and needs WithDimension(3)
// to read back as 3D. WithDimension(2) rejects documents that are not 2D.
func WithDimension(dim int) ParseOption {
	return func(o *parseOptions) { o.dim = dim }
}

// ParseDocument reads a whole document from r.
func ParseDocument(r io.Reader, opts ...ParseOption) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(data, opts...)
}

type dataArrayElem struct {
	Type       string `xml:"type,attr"`
	Name       string `xml:"Name,attr"`
	Components string `xml:"NumberOfComponents,attr"`
	Format     string `xml:"format,attr"`
	Offset     string `xml:"offset,attr"`
	Content    []byte `xml:",chardata"`
}

type section int

const (
	sectionNone section = iota
	sectionCoordinates
	sectionPointData
)

// ParseBytes parses a document held in memory. Handles keep references
// into data, so it must not be modified while the document is in use.
func ParseBytes(data []byte, opts ...ParseOption) (*Document, error) {
	p := &parser{data: data, doc: &Document{byName: map[string]*Handle{}}}
	for _, opt := range opts {
		opt(&p.opts)
	}
	if d := p.opts.dim; d != 0 && d != 2 && d != 3 {
		return nil, mismatch(ErrInvalidSpan, "", "dimension 2 or 3", d)
	}
	if err := p.parseStructure(); err != nil {
		return nil, err
	}
	if err := p.parseAppended(); err != nil {
		return nil, err
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type parser struct {
	data []byte
	doc  *Document
	opts parseOptions

	sawFile  bool
	pieces   int
	whole    Spans
	piece    Spans
	coordIdx int
	inline   bool
	headEnd  int64
}

// parseStructure walks the XML up to the end of the RectilinearGrid element.
// The appended section may hold arbitrary bytes, so the XML decoder never
// reads past it.
func (p *parser) parseStructure() error {
	dec := xml.NewDecoder(bytes.NewReader(p.data))
	where := sectionNone
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if !p.sawFile {
				return detailf(ErrUnsupportedDatasetType, "", "no VTKFile element")
			}
			return detailf(ErrMalformedEncoding, "", "document ends before </RectilinearGrid>")
		}
		if err != nil {
			return detailf(ErrMalformedEncoding, "", "xml: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !p.sawFile && t.Name.Local != "VTKFile" {
				return detailf(ErrUnsupportedDatasetType, "", "root element %q", t.Name.Local)
			}
			switch t.Name.Local {
			case "VTKFile":
				if err := p.fileAttrs(t); err != nil {
					return err
				}
			case "RectilinearGrid":
				s, err := ParseExtent(attr(t, "WholeExtent"))
				if err != nil {
					return err
				}
				p.whole = s
			case "Piece":
				p.pieces++
				if p.pieces > 1 {
					return detailf(ErrUnsupportedDatasetType, "", "multiple pieces in one file")
				}
				s, err := ParseExtent(attr(t, "Extent"))
				if err != nil {
					return err
				}
				p.piece = s
			case "Coordinates":
				where = sectionCoordinates
			case "PointData":
				where = sectionPointData
			case "DataArray":
				var el dataArrayElem
				if err := dec.DecodeElement(&el, &t); err != nil {
					return detailf(ErrMalformedEncoding, "", "DataArray: %v", err)
				}
				if err := p.dataArray(where, el); err != nil {
					return err
				}
			case "AppendedData":
				return detailf(ErrMalformedEncoding, "", "AppendedData inside RectilinearGrid")
			default:
				// CellData, FieldData and unknown extensions carry nothing
				// this package reads.
				if err := dec.Skip(); err != nil {
					return detailf(ErrMalformedEncoding, "", "xml: %v", err)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "Coordinates", "PointData":
				where = sectionNone
			case "RectilinearGrid":
				p.headEnd = dec.InputOffset()
				return nil
			}
		}
	}
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (p *parser) fileAttrs(se xml.StartElement) error {
	p.sawFile = true
	if typ := attr(se, "type"); typ != "RectilinearGrid" {
		return detailf(ErrUnsupportedDatasetType, "", "dataset type %q", typ)
	}
	if c := attr(se, "compressor"); c != "" {
		return detailf(ErrUnsupportedDatasetType, "", "compressed documents (%s) are not supported", c)
	}
	order := attr(se, "byte_order")
	if order == "" {
		order = LittleEndian.String()
	}
	bo, err := ParseByteOrder(order)
	if err != nil {
		return err
	}
	ht, err := ParseHeaderType(attr(se, "header_type"))
	if err != nil {
		return err
	}
	p.doc.byteOrder = bo
	p.doc.header = ht
	p.doc.codec = newBlockCodec(bo, ht)
	return nil
}

func (p *parser) dataArray(where section, el dataArrayElem) error {
	if where == sectionNone {
		return nil
	}
	name := el.Name
	if where == sectionCoordinates {
		if p.coordIdx >= 3 {
			return mismatch(ErrShapeMismatch, "", "3 coordinate arrays", p.coordIdx+1)
		}
		if name == "" {
			name = coordinateNames[p.coordIdx]
		}
	}
	prec, err := ParsePrecision(el.Type)
	if err != nil {
		return withArray(err, name)
	}
	h := &Handle{Name: name, Precision: prec, Components: 1, content: el.Content, doc: p.doc}
	if el.Components != "" {
		n, err := strconv.Atoi(el.Components)
		if err != nil || n < 1 {
			return mismatch(ErrShapeMismatch, name, "NumberOfComponents >= 1", el.Components)
		}
		h.Components = n
	}
	switch el.Format {
	case "ascii":
		h.Encoding, h.Placement = Text, Inline
	case "binary":
		h.Encoding, h.Placement = Base64, Inline
	case "appended":
		// Encoding is fixed once the AppendedData element is read.
		h.Placement = Appended
		off, err := strconv.ParseInt(el.Offset, 10, 64)
		if err != nil || off < 0 {
			return detailf(ErrMalformedEncoding, name, "offset %q", el.Offset)
		}
		h.Offset = off
	default:
		return detailf(ErrMalformedEncoding, name, "unknown format %q", el.Format)
	}

	if where == sectionCoordinates {
		if h.Components != 1 {
			return mismatch(ErrShapeMismatch, name, 1, h.Components)
		}
		p.doc.coords[p.coordIdx] = h
		p.coordIdx++
		return nil
	}
	if name == "" {
		return &Error{Kind: ErrMissingArray, Detail: "point-data array without Name"}
	}
	if _, dup := p.doc.byName[name]; dup {
		return detailf(ErrMalformedEncoding, name, "duplicate array name")
	}
	p.doc.arrays = append(p.doc.arrays, h)
	p.doc.byName[name] = h
	return nil
}

var (
	appendedOpen  = []byte("<AppendedData")
	appendedClose = []byte("</AppendedData>")
)

// parseAppended locates the bytes between the '_' marker and the closing
// tag. A missing closing tag leaves the section running to the end of the
// data so that truncated blocks are reported as length mismatches.
func (p *parser) parseAppended() error {
	rest := p.data[p.headEnd:]
	i := bytes.Index(rest, appendedOpen)
	if i < 0 {
		return nil
	}
	gt := bytes.IndexByte(rest[i:], '>')
	if gt < 0 {
		return detailf(ErrMalformedEncoding, "", "unterminated AppendedData tag")
	}
	tag := rest[i : i+gt+1]
	tok, err := xml.NewDecoder(bytes.NewReader(tag)).Token()
	if err != nil {
		return detailf(ErrMalformedEncoding, "", "AppendedData tag: %v", err)
	}
	se, ok := tok.(xml.StartElement)
	if !ok {
		return detailf(ErrMalformedEncoding, "", "AppendedData tag")
	}
	var enc Encoding
	switch v := attr(se, "encoding"); v {
	case "raw":
		enc = Raw
	case "base64":
		enc = Base64
	default:
		return detailf(ErrMalformedEncoding, "", "AppendedData encoding %q", v)
	}

	body := rest[i+gt+1:]
	mark := bytes.IndexByte(body, '_')
	if mark < 0 || len(bytes.TrimSpace(body[:mark])) != 0 {
		return detailf(ErrMalformedEncoding, "", "AppendedData without '_' marker")
	}
	body = body[mark+1:]
	if end := bytes.LastIndex(body, appendedClose); end >= 0 {
		body = body[:end]
	}
	p.doc.appended = &appendedSection{data: body, encoding: enc, codec: p.doc.codec}
	return nil
}

// resolve checks the located arrays against each other, decodes the
// coordinates and builds the domain.
func (p *parser) resolve() error {
	doc := p.doc
	if p.pieces == 0 {
		return detailf(ErrMalformedEncoding, "", "no Piece element")
	}
	if p.coordIdx != 3 {
		return mismatch(ErrShapeMismatch, "", "3 coordinate arrays", p.coordIdx)
	}
	all := append(doc.coords[:], doc.arrays...)
	prec := doc.coords[0].Precision
	for _, h := range all {
		if h.Precision != prec {
			return mismatch(ErrPrecisionMismatch, h.Name, prec, h.Precision)
		}
		if h.Placement != Appended {
			continue
		}
		if doc.appended == nil {
			return detailf(ErrMalformedEncoding, h.Name, "appended array without AppendedData section")
		}
		h.Encoding = doc.appended.encoding
		if _, err := doc.appended.blockLen(h.Offset); err != nil {
			return withArray(err, h.Name)
		}
	}

	var coords [3][]float64
	for i, h := range doc.coords {
		xs, err := decodeCoords(h, p.piece.Len(Axis(i)))
		if err != nil {
			if errors.Is(err, ErrShapeMismatch) {
				return &Error{
					Kind:   ErrShapeMismatch,
					Array:  h.Name,
					Axis:   Axis(i).String(),
					Detail: fmt.Sprintf("coordinate count disagrees with an extent of %d points", p.piece.Len(Axis(i))),
					count:  errors.Is(err, ErrLengthMismatch),
				}
			}
			return err
		}
		coords[i] = xs
	}

	spans, whole := p.piece, p.whole
	mesh := Mesh{
		X:         coords[0],
		Y:         coords[1],
		Z:         coords[2],
		Precision: prec,
		Encoding:  doc.coords[0].Encoding,
		Placement: doc.coords[0].Placement,
	}
	flat := is2D(spans, coords[2])
	if p.opts.dim == 2 && !flat {
		return &Error{
			Kind:   ErrShapeMismatch,
			Array:  doc.coords[2].Name,
			Axis:   AxisZ.String(),
			Detail: fmt.Sprintf("2D grids need a z extent of 0 0 and z coordinate 0, got extent %d %d and %d coordinates", spans.Start(AxisZ), spans.End(AxisZ)-1, len(coords[2])),
		}
	}
	if flat && p.opts.dim != 3 {
		s2, err := spans.As2D()
		if err != nil {
			return err
		}
		spans = s2
		mesh.Z = nil
		w2, err := whole.As2D()
		if err != nil {
			return err
		}
		whole = w2
	}
	d, err := BuildDomain(mesh, spans)
	if err != nil {
		return err
	}
	if _, err := spans.OffsetIn(whole); err != nil {
		return err
	}
	doc.domain = d
	doc.whole = whole
	return nil
}

// is2D reports the 2D convention: a z extent of "0 0" with the single z
// coordinate 0. A 3D grid one point thick at z=0 matches it too; callers
// that know the dimensionality pass WithDimension.
func is2D(s Spans, z []float64) bool {
	return s.Start(AxisZ) == 0 && s.End(AxisZ) == 1 && len(z) == 1 && z[0] == 0
}
