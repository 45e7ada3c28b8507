package vtk

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// blockCodec frames a numeric sequence as a length prefix followed by the
// payload bytes, both in the document byte order.
type blockCodec struct {
	order  binary.ByteOrder
	header HeaderType
}

func newBlockCodec(o ByteOrder, h HeaderType) blockCodec {
	return blockCodec{order: o.binary(), header: h}
}

func (c blockCodec) checkPayload(name string, n int) error {
	if c.header == HeaderUInt32 && uint64(n) > math.MaxUint32 {
		return &Error{
			Kind:     ErrLengthMismatch,
			Array:    name,
			Detail:   "payload does not fit a UInt32 block header",
			Expected: fmt.Sprintf("<= %d bytes", uint64(math.MaxUint32)),
			Actual:   fmt.Sprint(n),
		}
	}
	return nil
}

func (c blockCodec) putPrefix(dst []byte, n uint64) {
	if c.header == HeaderUInt32 {
		c.order.PutUint32(dst, uint32(n))
		return
	}
	c.order.PutUint64(dst, n)
}

func (c blockCodec) prefix(src []byte) (uint64, error) {
	hs := c.header.Size()
	if len(src) < hs {
		return 0, &Error{
			Kind:     ErrLengthMismatch,
			Detail:   "block header truncated",
			Expected: fmt.Sprintf("%d bytes", hs),
			Actual:   fmt.Sprint(len(src)),
		}
	}
	if c.header == HeaderUInt32 {
		return uint64(c.order.Uint32(src)), nil
	}
	return c.order.Uint64(src), nil
}

// appendBlock appends prefix and payload for n values produced by each.
func appendBlock[T Number](c blockCodec, dst []byte, n int, each func(func(T))) []byte {
	size := PrecisionOf[T]().Size()
	hs := c.header.Size()
	start := len(dst)
	dst = slices.Grow(dst, hs+n*size)
	dst = dst[:start+hs+n*size]
	c.putPrefix(dst[start:], uint64(n*size))
	p := start + hs
	each(func(v T) {
		putValue(c.order, dst[p:], v)
		p += size
	})
	return dst
}

func sliceEach[T Number](values []T) func(func(T)) {
	return func(fn func(T)) {
		for _, v := range values {
			fn(v)
		}
	}
}

// decodeBlock reads one block holding exactly want values and reports how
// many bytes it consumed. A header announcing another count is a shape
// mismatch that also matches ErrLengthMismatch. A payload shorter than its
// header is a length mismatch only.
func decodeBlock[T Number](c blockCodec, src []byte, want int) ([]T, int, error) {
	size := PrecisionOf[T]().Size()
	n, err := c.prefix(src)
	if err != nil {
		return nil, 0, err
	}
	if n != uint64(want*size) {
		return nil, 0, &Error{
			Kind:     ErrShapeMismatch,
			Detail:   "block header disagrees with expected payload",
			Expected: fmt.Sprintf("%d bytes", want*size),
			Actual:   fmt.Sprintf("%d bytes", n),
			count:    true,
		}
	}
	hs := c.header.Size()
	if uint64(len(src)-hs) < n {
		return nil, 0, &Error{
			Kind:     ErrLengthMismatch,
			Detail:   "block payload truncated",
			Expected: fmt.Sprintf("%d bytes", n),
			Actual:   fmt.Sprintf("%d bytes", len(src)-hs),
		}
	}
	out := make([]T, want)
	p := hs
	for i := range out {
		out[i] = getValue[T](c.order, src[p:])
		p += size
	}
	return out, p, nil
}

// base64BlockLen returns the encoded length of the base64 block starting at
// text, derived from its decoded length prefix.
func (c blockCodec) base64BlockLen(text []byte) (int, error) {
	hs := c.header.Size()
	lead := (hs + 2) / 3 * 4
	if len(text) < lead {
		return 0, &Error{
			Kind:     ErrLengthMismatch,
			Detail:   "base64 block header truncated",
			Expected: fmt.Sprintf("%d characters", lead),
			Actual:   fmt.Sprint(len(text)),
		}
	}
	head := make([]byte, base64.StdEncoding.DecodedLen(lead))
	if _, err := base64.StdEncoding.Decode(head, text[:lead]); err != nil {
		return 0, detailf(ErrMalformedEncoding, "", "base64 block header: %v", err)
	}
	n, err := c.prefix(head)
	if err != nil {
		return 0, err
	}
	total := uint64(hs) + n
	if total > uint64(math.MaxInt/2) {
		return 0, detailf(ErrLengthMismatch, "", "block length %d out of range", n)
	}
	return base64.StdEncoding.EncodedLen(int(total)), nil
}

// Slot locates one block inside the appended section. Offset and Length
// count bytes of the section as written: raw bytes for raw sections and
// base64 characters for base64 sections.
type Slot struct {
	Name   string
	Offset int64
	Length int64
}

type appendedItem struct {
	name   string
	encode func() ([]byte, error)
}

// appendedPlan holds every appended block materialised before anything is
// written, with offsets folded left to right in declaration order.
type appendedPlan struct {
	encoding Encoding
	blocks   [][]byte
	slots    []Slot
	size     int64
}

func planAppended(ctx context.Context, enc Encoding, items []appendedItem) (*appendedPlan, error) {
	plan := &appendedPlan{
		encoding: enc,
		blocks:   make([][]byte, len(items)),
		slots:    make([]Slot, len(items)),
	}

	// Blocks do not depend on their position, so they can be built in
	// parallel. The offset fold below must stay sequential.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := it.encode()
			if err != nil {
				return withArray(err, it.name)
			}
			if enc == Base64 {
				raw = base64.StdEncoding.AppendEncode(nil, raw)
			}
			plan.blocks[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var off int64
	for i, it := range items {
		n := int64(len(plan.blocks[i]))
		plan.slots[i] = Slot{Name: it.name, Offset: off, Length: n}
		off += n
	}
	plan.size = off
	return plan, nil
}

// appendedSection is the parsed view of the bytes following the '_' marker.
type appendedSection struct {
	data     []byte
	encoding Encoding
	codec    blockCodec
}

// blockLen returns the section-relative length of the block at off.
func (s *appendedSection) blockLen(off int64) (int64, error) {
	if off < 0 || off >= int64(len(s.data)) {
		return 0, &Error{
			Kind:     ErrLengthMismatch,
			Detail:   "offset outside appended section",
			Expected: fmt.Sprintf("[0,%d)", len(s.data)),
			Actual:   fmt.Sprint(off),
		}
	}
	var n int64
	if s.encoding == Base64 {
		l, err := s.codec.base64BlockLen(s.data[off:])
		if err != nil {
			return 0, err
		}
		n = int64(l)
	} else {
		p, err := s.codec.prefix(s.data[off:])
		if err != nil {
			return 0, err
		}
		if p > uint64(math.MaxInt64/2) {
			return 0, detailf(ErrLengthMismatch, "", "block length %d out of range", p)
		}
		n = int64(s.codec.header.Size()) + int64(p)
	}
	if off+n > int64(len(s.data)) {
		return 0, &Error{
			Kind:     ErrLengthMismatch,
			Detail:   fmt.Sprintf("block at offset %d runs past the appended section", off),
			Expected: fmt.Sprintf("%d bytes", n),
			Actual:   fmt.Sprintf("%d bytes", int64(len(s.data))-off),
		}
	}
	return n, nil
}

// block returns the raw (prefix + payload) bytes of the block at off.
func (s *appendedSection) block(off int64) ([]byte, error) {
	n, err := s.blockLen(off)
	if err != nil {
		return nil, err
	}
	b := s.data[off : off+n]
	if s.encoding == Base64 {
		return decodeBase64(b)
	}
	return b, nil
}
