package vtk

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
)

// Encoding selects the wire form of one array or of the mesh coordinates.
// The zero value is Text.
type Encoding uint8

const (
	// Text writes whitespace separated decimal values.
	Text Encoding = iota
	// Raw writes length-prefixed native bytes into the appended section.
	Raw
	// Base64 writes the length-prefixed block rendered as base64 text.
	Base64
)

func (e Encoding) String() string {
	switch e {
	case Text:
		return "text"
	case Raw:
		return "raw"
	case Base64:
		return "base64"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

// ParseEncoding accepts the names returned by Encoding.String. "ascii" and
// "binary" are accepted as aliases of text and raw.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "text", "ascii":
		return Text, nil
	case "raw", "binary":
		return Raw, nil
	case "base64":
		return Base64, nil
	default:
		return Text, detailf(ErrMalformedEncoding, "", "unknown encoding %q", s)
	}
}

// Placement says whether array content sits inside its DataArray element or
// in the trailing appended section. The zero value is Inline.
type Placement uint8

const (
	Inline Placement = iota
	Appended
)

func (p Placement) String() string {
	if p == Appended {
		return "appended"
	}
	return "inline"
}

// resolvePlacement applies the fixed placements: text is always inline and
// raw is always appended.
func resolvePlacement(enc Encoding, p Placement) (Placement, error) {
	switch enc {
	case Text:
		if p == Appended {
			return p, detailf(ErrMalformedEncoding, "", "text encoding cannot be appended")
		}
		return Inline, nil
	case Raw:
		return Appended, nil
	case Base64:
		return p, nil
	default:
		return p, detailf(ErrMalformedEncoding, "", "unknown encoding %d", uint8(enc))
	}
}

// formatAttr is the DataArray format attribute for an encoding/placement pair.
func formatAttr(enc Encoding, p Placement) string {
	switch {
	case p == Appended:
		return "appended"
	case enc == Base64:
		return "binary"
	default:
		return "ascii"
	}
}

func appendNumber[T Number](dst []byte, v T) []byte {
	switch x := any(v).(type) {
	case float32:
		return strconv.AppendFloat(dst, float64(x), 'g', -1, 32)
	case float64:
		return strconv.AppendFloat(dst, x, 'g', -1, 64)
	case int32:
		return strconv.AppendInt(dst, int64(x), 10)
	case int64:
		return strconv.AppendInt(dst, x, 10)
	}
	return dst
}

func parseNumber[T Number](tok string) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *float32:
		var f float64
		f, err = strconv.ParseFloat(tok, 32)
		*p = float32(f)
	case *float64:
		*p, err = strconv.ParseFloat(tok, 64)
	case *int32:
		var n int64
		n, err = strconv.ParseInt(tok, 10, 32)
		*p = int32(n)
	case *int64:
		*p, err = strconv.ParseInt(tok, 10, 64)
	}
	return out, err
}

// appendText renders values separated by single spaces using the shortest
// form that parses back to the same value.
func appendText[T Number](dst []byte, values []T) []byte {
	for i, v := range values {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = appendNumber(dst, v)
	}
	return dst
}

// parseText tokenizes on any whitespace and expects exactly want values. A
// different count is a shape mismatch that also matches ErrLengthMismatch.
func parseText[T Number](text []byte, want int) ([]T, error) {
	fields := bytes.Fields(text)
	if len(fields) != want {
		return nil, countMismatch("", fmt.Sprintf("%d values", want), len(fields))
	}
	out := make([]T, len(fields))
	for i, f := range fields {
		v, err := parseNumber[T](string(f))
		if err != nil {
			return nil, &Error{
				Kind:   ErrMalformedNumber,
				Detail: fmt.Sprintf("token %d %q is not a valid %s", i, f, PrecisionOf[T]()),
			}
		}
		out[i] = v
	}
	return out, nil
}

// decodeBase64 strips whitespace and decodes standard padded base64.
func decodeBase64(text []byte) ([]byte, error) {
	compact := bytes.Join(bytes.Fields(text), nil)
	out := make([]byte, base64.StdEncoding.DecodedLen(len(compact)))
	n, err := base64.StdEncoding.Decode(out, compact)
	if err != nil {
		return nil, detailf(ErrMalformedEncoding, "", "base64: %v", err)
	}
	return out[:n], nil
}
