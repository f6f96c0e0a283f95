package byteoffset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Escape values announcing the next wider delta width.
const (
	Escape8  int8  = math.MinInt8
	Escape16 int16 = math.MinInt16
	Escape32 int32 = math.MinInt32
)

// ErrSizeMismatch is matched by every *SizeMismatchError.
var ErrSizeMismatch = errors.New("byteoffset: size mismatch")

// SizeMismatchError reports a compressed block whose length does not agree
// with the number of samples it is expected to hold.
type SizeMismatchError struct {
	// Want is the number of samples requested.
	Want int
	// Got is the number of samples decoded before the failure.
	Got int
	// Consumed is the number of bytes read from the block.
	Consumed int
	// Len is the length of the block.
	Len int
}

func (e *SizeMismatchError) Error() string {
	if e.Got < e.Want {
		return fmt.Sprintf("byteoffset: block of %d bytes exhausted after %d of %d samples", e.Len, e.Got, e.Want)
	}
	return fmt.Sprintf("byteoffset: %d trailing bytes after %d samples", e.Len-e.Consumed, e.Want)
}

// Is reports whether target is ErrSizeMismatch.
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

// Decode expands a byte-offset block into exactly count samples.
//
// Parameters:
//   - src: The compressed block, without the binary sentinel and without padding.
//   - count: The number of samples the block holds.
//
// Returns:
//   - []int64: The decoded samples, len == count.
//   - error: A *SizeMismatchError if src is too short or too long for count.
func Decode(src []byte, count int) ([]int64, error) {
	if count < 0 {
		return nil, fmt.Errorf("byteoffset: negative sample count %d", count)
	}
	// Every sample takes at least one byte, so src bounds the allocation
	// whatever count a header claims.
	out := make([]int64, 0, min(count, len(src)))
	var cur int64
	pos := 0
	short := func(n int) error {
		return &SizeMismatchError{Want: count, Got: n, Consumed: pos, Len: len(src)}
	}

	for n := 0; n < count; n++ {
		if pos >= len(src) {
			return nil, short(n)
		}
		d8 := int8(src[pos])
		pos++
		if d8 != Escape8 {
			cur += int64(d8)
			out = append(out, cur)
			continue
		}

		if pos+2 > len(src) {
			return nil, short(n)
		}
		d16 := int16(binary.LittleEndian.Uint16(src[pos:]))
		pos += 2
		if d16 != Escape16 {
			cur += int64(d16)
			out = append(out, cur)
			continue
		}

		if pos+4 > len(src) {
			return nil, short(n)
		}
		d32 := int32(binary.LittleEndian.Uint32(src[pos:]))
		pos += 4
		if d32 != Escape32 {
			cur += int64(d32)
			out = append(out, cur)
			continue
		}

		if pos+8 > len(src) {
			return nil, short(n)
		}
		cur += int64(binary.LittleEndian.Uint64(src[pos:]))
		pos += 8
		out = append(out, cur)
	}

	if pos != len(src) {
		return nil, &SizeMismatchError{Want: count, Got: count, Consumed: pos, Len: len(src)}
	}
	return out, nil
}

// Encode compresses values with the byte-offset scheme. The output depends
// only on values.
func Encode(values []int64) []byte {
	return AppendEncode(make([]byte, 0, EncodedLen(values)), values)
}

// AppendEncode appends the byte-offset encoding of values to dst and returns
// the extended slice.
func AppendEncode(dst []byte, values []int64) []byte {
	var prev int64
	for _, v := range values {
		dst = appendDelta(dst, v-prev)
		prev = v
	}
	return dst
}

func appendDelta(dst []byte, delta int64) []byte {
	if delta > math.MinInt8 && delta <= math.MaxInt8 {
		return append(dst, byte(int8(delta)))
	}
	dst = append(dst, 0x80)
	if delta > math.MinInt16 && delta <= math.MaxInt16 {
		return binary.LittleEndian.AppendUint16(dst, uint16(int16(delta)))
	}
	dst = binary.LittleEndian.AppendUint16(dst, 0x8000)
	if delta > math.MinInt32 && delta <= math.MaxInt32 {
		return binary.LittleEndian.AppendUint32(dst, uint32(int32(delta)))
	}
	dst = binary.LittleEndian.AppendUint32(dst, 0x80000000)
	return binary.LittleEndian.AppendUint64(dst, uint64(delta))
}

// EncodedLen returns the number of bytes Encode would produce for values.
func EncodedLen(values []int64) int {
	n := 0
	var prev int64
	for _, v := range values {
		d := v - prev
		prev = v
		switch {
		case d > math.MinInt8 && d <= math.MaxInt8:
			n++
		case d > math.MinInt16 && d <= math.MaxInt16:
			n += 3
		case d > math.MinInt32 && d <= math.MaxInt32:
			n += 7
		default:
			n += 15
		}
	}
	return n
}
