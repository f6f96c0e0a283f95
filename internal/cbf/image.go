package cbf

import (
	"fmt"

	"github.com/ironsheep/cbf-tools-mcp/internal/cif"
)

// SampleArray is a row-major frame of integer samples. Samples holds
// Rows*Cols values, each within the range of Type.
type SampleArray struct {
	Rows    int
	Cols    int
	Type    ElementType
	Samples []int64
}

// NewSampleArray allocates a zeroed rows x cols frame.
func NewSampleArray(rows, cols int, typ ElementType) *SampleArray {
	return &SampleArray{Rows: rows, Cols: cols, Type: typ, Samples: make([]int64, rows*cols)}
}

// Len returns the number of samples.
func (a *SampleArray) Len() int {
	return len(a.Samples)
}

// In reports whether column x, row y lies inside the frame.
func (a *SampleArray) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < a.Cols && y < a.Rows
}

// At returns the sample at column x, row y. It panics when out of range.
func (a *SampleArray) At(x, y int) int64 {
	return a.Samples[y*a.Cols+x]
}

// Set stores v at column x, row y, wrapped to the element width.
func (a *SampleArray) Set(x, y int, v int64) {
	a.Samples[y*a.Cols+x] = a.Type.Wrap(v)
}

// Row returns row y as a sub-slice of Samples.
func (a *SampleArray) Row(y int) []int64 {
	return a.Samples[y*a.Cols : (y+1)*a.Cols]
}

// Validate checks the shape invariants and that every sample fits Type.
func (a *SampleArray) Validate() error {
	if a.Rows < 0 || a.Cols < 0 {
		return fmt.Errorf("negative dimensions %dx%d", a.Cols, a.Rows)
	}
	if len(a.Samples) != a.Rows*a.Cols {
		return fmt.Errorf("%d samples for a %dx%d frame", len(a.Samples), a.Cols, a.Rows)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("invalid element type %d", a.Type)
	}
	low, high := a.Type.Range()
	for i, v := range a.Samples {
		if v < low || v > high {
			return fmt.Errorf("sample %d (%d) out of %s range", i, v, a.Type)
		}
	}
	return nil
}

// Image is a decoded CBF frame.
type Image struct {
	// Name is the source the frame was read from, or the name it is
	// written under. It titles the CIF data block.
	Name string

	// Header holds the CIF keys followed by the binary section keys.
	Header *Header

	// Data holds the samples. It is nil for an image that was never filled.
	Data *SampleArray

	// CIF is the parsed text document, kept to preserve loops and key order
	// when writing back.
	CIF *cif.Document
}

// NewImage wraps samples in an image with an empty header.
func NewImage(name string, data *SampleArray) *Image {
	return &Image{Name: name, Header: NewHeader(), Data: data, CIF: cif.NewDocument()}
}
