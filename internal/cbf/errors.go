package cbf

import (
	"errors"
	"fmt"

	"github.com/ironsheep/cbf-tools-mcp/internal/byteoffset"
)

var (
	// ErrStructural matches every *StructuralError.
	ErrStructural = errors.New("cbf: malformed file")

	// ErrUnsupportedCompression matches every *UnsupportedCompressionError.
	ErrUnsupportedCompression = errors.New("cbf: unsupported compression")

	// ErrSizeMismatch matches payloads whose length disagrees with the
	// declared binary size or sample count.
	ErrSizeMismatch = byteoffset.ErrSizeMismatch

	// ErrNoData is returned when writing an image without samples.
	ErrNoData = errors.New("cbf: image has no data")
)

// StructuralError reports a file that is not a readable CBF frame.
type StructuralError struct {
	Source string
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("cbf: %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

func structural(source, format string, args ...any) *StructuralError {
	return &StructuralError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedCompressionError reports a conversions value other than
// x-CBF_BYTE_OFFSET. Scheme is "" when the file names none.
type UnsupportedCompressionError struct {
	Source string
	Scheme string
}

func (e *UnsupportedCompressionError) Error() string {
	if e.Scheme == "" {
		return fmt.Sprintf("cbf: %s: no compression scheme declared", e.Source)
	}
	return fmt.Sprintf("cbf: %s: compression %q is not supported", e.Source, e.Scheme)
}

func (e *UnsupportedCompressionError) Is(target error) bool {
	return target == ErrUnsupportedCompression
}

// PayloadBoundsError reports an X-Binary-Size reaching past the end of the
// binary section.
type PayloadBoundsError struct {
	Source    string
	Declared  int
	Available int
}

func (e *PayloadBoundsError) Error() string {
	return fmt.Sprintf("cbf: %s: binary size %d exceeds the %d bytes after the sentinel",
		e.Source, e.Declared, e.Available)
}

func (e *PayloadBoundsError) Is(target error) bool {
	return target == ErrSizeMismatch
}
