package vtk

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Precision is the numeric width shared by every coordinate and array of a
// document. The names match the VTK DataArray type attribute.
type Precision uint8

const (
	PrecisionUnknown Precision = iota
	Float32
	Float64
	Int32
	Int64
)

func (p Precision) String() string {
	switch p {
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	default:
		return fmt.Sprintf("Precision(%d)", uint8(p))
	}
}

// Size returns the element width in bytes.
func (p Precision) Size() int {
	switch p {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	default:
		return 0
	}
}

func (p Precision) IsFloat() bool { return p == Float32 || p == Float64 }

func (p Precision) valid() bool { return p >= Float32 && p <= Int64 }

// ParsePrecision accepts the VTK type names written by this package.
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "Float32":
		return Float32, nil
	case "Float64":
		return Float64, nil
	case "Int32":
		return Int32, nil
	case "Int64":
		return Int64, nil
	default:
		return PrecisionUnknown, &Error{Kind: ErrPrecisionMismatch, Detail: fmt.Sprintf("unsupported type %q", s)}
	}
}

// Number is the set of element types an Array can hold.
type Number interface {
	float32 | float64 | int32 | int64
}

// PrecisionOf reports the precision matching T.
func PrecisionOf[T Number]() Precision {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	default:
		return Int64
	}
}

// ByteOrder is the byte_order attribute of the VTKFile element. The zero
// value is LittleEndian.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "BigEndian"
	}
	return "LittleEndian"
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "LittleEndian":
		return LittleEndian, nil
	case "BigEndian":
		return BigEndian, nil
	default:
		return LittleEndian, detailf(ErrUnsupportedDatasetType, "", "unsupported byte_order %q", s)
	}
}

// HeaderType is the width of the length prefix in front of every binary
// block. The zero value is UInt64.
type HeaderType uint8

const (
	HeaderUInt64 HeaderType = iota
	HeaderUInt32
)

func (h HeaderType) String() string {
	if h == HeaderUInt32 {
		return "UInt32"
	}
	return "UInt64"
}

// Size returns the prefix width in bytes.
func (h HeaderType) Size() int {
	if h == HeaderUInt32 {
		return 4
	}
	return 8
}

func ParseHeaderType(s string) (HeaderType, error) {
	switch s {
	case "UInt64", "":
		return HeaderUInt64, nil
	case "UInt32":
		return HeaderUInt32, nil
	default:
		return HeaderUInt64, detailf(ErrUnsupportedDatasetType, "", "unsupported header_type %q", s)
	}
}

func putValue[T Number](order binary.ByteOrder, dst []byte, v T) {
	switch x := any(v).(type) {
	case float32:
		order.PutUint32(dst, math.Float32bits(x))
	case float64:
		order.PutUint64(dst, math.Float64bits(x))
	case int32:
		order.PutUint32(dst, uint32(x))
	case int64:
		order.PutUint64(dst, uint64(x))
	}
}

func getValue[T Number](order binary.ByteOrder, src []byte) T {
	var out T
	switch p := any(&out).(type) {
	case *float32:
		*p = math.Float32frombits(order.Uint32(src))
	case *float64:
		*p = math.Float64frombits(order.Uint64(src))
	case *int32:
		*p = int32(order.Uint32(src))
	case *int64:
		*p = int64(order.Uint64(src))
	}
	return out
}
