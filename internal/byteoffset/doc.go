// Package byteoffset implements the CBF byte-offset compression scheme
// (x-CBF_BYTE_OFFSET) used for detector pixel data.
//
// Each sample is stored as the difference from the previous sample, starting
// from zero. A difference is written in the narrowest little-endian signed
// width that can hold it. The smallest value of each width is reserved as an
// escape that announces the next wider width:
//
//	int8                          delta in [-127, 127]
//	-128, int16                   delta in [-32767, 32767]
//	-128, -32768, int32           delta in [-2^31+1, 2^31-1]
//	-128, -32768, -2^31, int64    any other delta
//
// The 64-bit level has no further escape.
//
// # Strictness
//
// Decode is given the exact compressed block and the exact sample count. A
// block that runs out early, or that has bytes left over once the count is
// reached, is reported as a *SizeMismatchError.
//
// # Thread Safety
//
// Encode and Decode are pure functions and may be called concurrently.
package byteoffset
