package cbf

import "math"

// ElementType is the integer width of a frame's samples.
type ElementType uint8

// Supported element types. The value is the width in bytes.
const (
	Int8  ElementType = 1
	Int16 ElementType = 2
	Int32 ElementType = 4
	Int64 ElementType = 8
)

// elementTags maps element types to their X-Binary-Element-Type names.
var elementTags = [...]struct {
	typ ElementType
	tag string
}{
	{Int8, "signed 8-bit integer"},
	{Int16, "signed 16-bit integer"},
	{Int32, "signed 32-bit integer"},
	{Int64, "signed 64-bit integer"},
}

// ParseElementType looks up an X-Binary-Element-Type name.
func ParseElementType(tag string) (ElementType, bool) {
	for _, e := range elementTags {
		if e.tag == tag {
			return e.typ, true
		}
	}
	return 0, false
}

// Tag returns the X-Binary-Element-Type name, or "" for an invalid type.
func (t ElementType) Tag() string {
	for _, e := range elementTags {
		if e.typ == t {
			return e.tag
		}
	}
	return ""
}

// Valid reports whether t is one of the supported widths.
func (t ElementType) Valid() bool {
	return t.Tag() != ""
}

// Bits returns the width in bits.
func (t ElementType) Bits() int {
	return int(t) * 8
}

func (t ElementType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	}
	return "invalid"
}

// Range returns the smallest and largest value of the type.
func (t ElementType) Range() (min, max int64) {
	switch t {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	}
	return math.MinInt64, math.MaxInt64
}

// Wrap truncates v to the type's width with two's-complement wrap-around.
func (t ElementType) Wrap(v int64) int64 {
	switch t {
	case Int8:
		return int64(int8(v))
	case Int16:
		return int64(int16(v))
	case Int32:
		return int64(int32(v))
	}
	return v
}
