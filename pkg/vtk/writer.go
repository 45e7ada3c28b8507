package vtk

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// WriteOption configures how a document is written.
type WriteOption func(*writeOptions)

type writeOptions struct {
	byteOrder  ByteOrder
	headerType HeaderType
	whole      Spans
}

// WithByteOrder sets the byte order of every binary block.
func WithByteOrder(o ByteOrder) WriteOption {
	return func(opts *writeOptions) { opts.byteOrder = o }
}

// WithHeaderType sets the width of the block length prefix.
func WithHeaderType(h HeaderType) WriteOption {
	return func(opts *writeOptions) { opts.headerType = h }
}

// WithWholeExtent writes the piece as part of a larger grid. whole must
// contain the domain spans.
func WithWholeExtent(whole Spans) WriteOption {
	return func(opts *writeOptions) { opts.whole = whole }
}

// WriteState tracks the progress of a Writer.
type WriteState int

const (
	StateIdle WriteState = iota
	StateHeaderWritten
	StateGeometryWritten
	StateInlineArraysWritten
	StateAppendedHeadersWritten
	StateAppendedPayloadWritten
	StateClosed
	StateFailed
)

var writeStateNames = [...]string{
	"Idle", "HeaderWritten", "GeometryWritten", "InlineArraysWritten",
	"AppendedHeadersWritten", "AppendedPayloadWritten", "Closed", "Failed",
}

func (s WriteState) String() string {
	if s >= 0 && int(s) < len(writeStateNames) {
		return writeStateNames[s]
	}
	return "WriteState(" + strconv.Itoa(int(s)) + ")"
}

// ErrWriteOrder is returned when Writer methods are called out of sequence.
var ErrWriteOrder = errors.New("vtk: writer step out of order")

// Writer emits one document. Every structural check and every appended
// block is done in NewWriter, so once output starts the only possible
// failures come from the sink.
type Writer struct {
	bw     *bufio.Writer
	domain Domain
	arrays []NamedArray
	opts   writeOptions
	codec  blockCodec
	plan   *appendedPlan

	nextSlot int
	emitted  int
	state    WriteState
	err      error
	buf      []byte
}

// NewWriter validates domain and arrays and materialises the appended
// section. Nothing is written to w until WriteHeader.
func NewWriter(ctx context.Context, w io.Writer, domain Domain, arrays []NamedArray, opts ...WriteOption) (*Writer, error) {
	o := writeOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	d, err := BuildDomain(domain.Mesh, domain.Spans)
	if err != nil {
		return nil, err
	}
	if o.whole.IsZero() {
		o.whole = d.Spans
	}
	if _, err := d.Spans.OffsetIn(o.whole); err != nil {
		return nil, err
	}

	codec := newBlockCodec(o.byteOrder, o.headerType)
	seen := make(map[string]struct{}, len(arrays))
	appendedEnc := -1
	noteAppended := func(name string, enc Encoding) error {
		if appendedEnc >= 0 && Encoding(appendedEnc) != enc {
			return &Error{
				Kind:     ErrMalformedEncoding,
				Array:    name,
				Detail:   "appended arrays must share one encoding",
				Expected: Encoding(appendedEnc).String(),
				Actual:   enc.String(),
			}
		}
		appendedEnc = int(enc)
		return nil
	}

	var items []appendedItem
	if d.Mesh.Placement == Appended {
		if err := noteAppended(coordinateNames[0], d.Mesh.Encoding); err != nil {
			return nil, err
		}
		for i, xs := range d.coordinates() {
			if err := codec.checkPayload(coordinateNames[i], len(xs)*d.Mesh.Precision.Size()); err != nil {
				return nil, err
			}
			items = append(items, appendedItem{
				name: coordinateNames[i],
				encode: func() ([]byte, error) {
					return coordBlock(codec, nil, d.Mesh.Precision, xs), nil
				},
			})
		}
	}
	for _, a := range arrays {
		if err := a.validate(d); err != nil {
			return nil, err
		}
		if _, dup := seen[a.Name]; dup {
			return nil, detailf(ErrMalformedEncoding, a.Name, "duplicate array name")
		}
		seen[a.Name] = struct{}{}
		if a.placement() != Appended {
			continue
		}
		if err := noteAppended(a.Name, a.Encoding); err != nil {
			return nil, err
		}
		if err := codec.checkPayload(a.Name, a.Len()*a.Precision().Size()); err != nil {
			return nil, err
		}
		data := a.data
		items = append(items, appendedItem{
			name: a.Name,
			encode: func() ([]byte, error) {
				return data.appendWireBlock(codec, nil), nil
			},
		})
	}

	wr := &Writer{
		bw:     bufio.NewWriter(w),
		domain: d,
		arrays: arrays,
		opts:   o,
		codec:  codec,
	}
	if len(items) > 0 {
		plan, err := planAppended(ctx, Encoding(appendedEnc), items)
		if err != nil {
			return nil, err
		}
		wr.plan = plan
	}
	return wr, nil
}

// Write validates and writes a complete document to w. On error nothing
// beyond what w already accepted is claimed; callers writing files should
// discard the output.
func Write(ctx context.Context, w io.Writer, domain Domain, arrays []NamedArray, opts ...WriteOption) error {
	wr, err := NewWriter(ctx, w, domain, arrays, opts...)
	if err != nil {
		return err
	}
	if err := wr.WriteHeader(); err != nil {
		return err
	}
	if err := wr.WriteGeometry(); err != nil {
		return err
	}
	for _, a := range arrays {
		if err := wr.Emit(a); err != nil {
			return err
		}
	}
	return wr.Close()
}

func (w *Writer) State() WriteState { return w.state }

// Slots returns the appended layout computed by NewWriter.
func (w *Writer) Slots() []Slot {
	if w.plan == nil {
		return nil
	}
	return append([]Slot(nil), w.plan.slots...)
}

func (w *Writer) step(from, to WriteState, fn func() error) error {
	if w.err != nil {
		return w.err
	}
	if w.state != from {
		return fmt.Errorf("%w: in state %s, expected %s", ErrWriteOrder, w.state, from)
	}
	if err := fn(); err != nil {
		w.err = err
		w.state = StateFailed
		return err
	}
	w.state = to
	return nil
}

func (w *Writer) WriteHeader() error {
	return w.step(StateIdle, StateHeaderWritten, func() error {
		w.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
		w.printf("<VTKFile type=\"RectilinearGrid\" version=\"1.0\" byte_order=\"%s\" header_type=\"%s\">\n",
			w.opts.byteOrder, w.opts.headerType)
		w.printf("  <RectilinearGrid WholeExtent=\"%s\">\n", w.opts.whole.Extent())
		w.printf("    <Piece Extent=\"%s\">\n", w.domain.Spans.Extent())
		return w.flushErr()
	})
}

func (w *Writer) WriteGeometry() error {
	return w.step(StateHeaderWritten, StateGeometryWritten, func() error {
		m := w.domain.Mesh
		w.printf("      <Coordinates>\n")
		for i, xs := range w.domain.coordinates() {
			w.openDataArray(coordinateNames[i], m.Precision, 1, m.Encoding, m.Placement)
			if m.Placement == Appended {
				if err := w.appendedRef(coordinateNames[i]); err != nil {
					return err
				}
				continue
			}
			w.buf = w.buf[:0]
			if m.Encoding == Base64 {
				w.buf = coordBlock(w.codec, w.buf, m.Precision, xs)
				w.writeBase64(w.buf)
			} else {
				w.buf = coordText(w.buf, m.Precision, xs)
				_, _ = w.bw.Write(w.buf)
			}
			w.printf("</DataArray>\n")
		}
		w.printf("      </Coordinates>\n")
		w.printf("      <PointData>\n")
		return w.flushErr()
	})
}

// Emit writes the DataArray element of the next array. Inline arrays carry
// their content; appended arrays carry the offset fixed by NewWriter.
func (w *Writer) Emit(a NamedArray) error {
	if w.err != nil {
		return w.err
	}
	if w.state != StateGeometryWritten {
		return fmt.Errorf("%w: emit in state %s", ErrWriteOrder, w.state)
	}
	if w.emitted >= len(w.arrays) || w.arrays[w.emitted].Name != a.Name {
		return fmt.Errorf("%w: array %q emitted out of declaration order", ErrWriteOrder, a.Name)
	}
	a = w.arrays[w.emitted]
	p := a.placement()
	w.openDataArray(a.Name, a.Precision(), a.Components(), a.Encoding, p)
	switch {
	case p == Appended:
		if err := w.appendedRef(a.Name); err != nil {
			w.err, w.state = err, StateFailed
			return err
		}
	case a.Encoding == Base64:
		w.buf = a.data.appendWireBlock(w.codec, w.buf[:0])
		w.writeBase64(w.buf)
		w.printf("</DataArray>\n")
	default:
		w.buf = a.data.appendWireText(w.buf[:0])
		_, _ = w.bw.Write(w.buf)
		w.printf("</DataArray>\n")
	}
	w.emitted++
	if err := w.flushErr(); err != nil {
		w.err, w.state = err, StateFailed
		return err
	}
	return nil
}

// Close finishes the document: closes the grid elements, writes the
// appended section and flushes.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.emitted != len(w.arrays) {
		return fmt.Errorf("%w: %d of %d arrays emitted", ErrWriteOrder, w.emitted, len(w.arrays))
	}
	err := w.step(StateGeometryWritten, StateInlineArraysWritten, func() error {
		w.printf("      </PointData>\n")
		w.printf("    </Piece>\n")
		w.printf("  </RectilinearGrid>\n")
		return w.flushErr()
	})
	if err != nil {
		return err
	}
	err = w.step(StateInlineArraysWritten, StateAppendedHeadersWritten, func() error {
		if w.plan != nil && w.nextSlot != len(w.plan.slots) {
			return fmt.Errorf("%w: %d of %d appended headers written", ErrWriteOrder, w.nextSlot, len(w.plan.slots))
		}
		return nil
	})
	if err != nil {
		return err
	}
	err = w.step(StateAppendedHeadersWritten, StateAppendedPayloadWritten, func() error {
		if w.plan == nil {
			return nil
		}
		w.printf("  <AppendedData encoding=\"%s\">\n   _", w.plan.encoding)
		for _, b := range w.plan.blocks {
			_, _ = w.bw.Write(b)
		}
		w.printf("</AppendedData>\n")
		return w.flushErr()
	})
	if err != nil {
		return err
	}
	return w.step(StateAppendedPayloadWritten, StateClosed, func() error {
		w.printf("</VTKFile>\n")
		if err := w.bw.Flush(); err != nil {
			return err
		}
		return nil
	})
}

func (w *Writer) openDataArray(name string, p Precision, components int, enc Encoding, pl Placement) {
	w.printf("        <DataArray type=\"%s\" Name=\"%s\" NumberOfComponents=\"%d\" format=\"%s\"",
		p, name, components, formatAttr(enc, pl))
	if pl != Appended {
		w.printf(">")
	}
}

func (w *Writer) appendedRef(name string) error {
	if w.plan == nil || w.nextSlot >= len(w.plan.slots) || w.plan.slots[w.nextSlot].Name != name {
		return fmt.Errorf("%w: no appended slot reserved for %q", ErrWriteOrder, name)
	}
	w.printf(" offset=\"%d\"/>\n", w.plan.slots[w.nextSlot].Offset)
	w.nextSlot++
	return nil
}

func (w *Writer) writeBase64(raw []byte) {
	_, _ = w.bw.Write(base64.StdEncoding.AppendEncode(nil, raw))
}

func (w *Writer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.bw, format, args...)
}

// flushErr reports a sticky bufio error without forcing a flush.
func (w *Writer) flushErr() error {
	_, err := w.bw.Write(nil)
	return err
}
