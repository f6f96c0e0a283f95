package imaging

import (
	"fmt"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
)

// PixelResult is the raw sample at one pixel.
//
// Detectors store negative values for pixels that carry no measurement:
// module gaps (-1) and known bad pixels (-2). Masked is set for them.
type PixelResult struct {
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Value  int64 `json:"value"`
	Masked bool  `json:"masked"`
}

// SamplePixel returns the sample at column x, row y.
//
// Parameters:
//   - data: The decoded frame.
//   - x: Column (0-based, 0 = leftmost).
//   - y: Row (0-based, 0 = topmost).
//
// Returns:
//   - *PixelResult: The raw value at (x, y).
//   - error: Non-nil if the coordinates are outside the frame.
func SamplePixel(data *cbf.SampleArray, x, y int) (*PixelResult, error) {
	if !data.In(x, y) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside frame bounds %dx%d", x, y, data.Cols, data.Rows)
	}
	v := data.At(x, y)
	return &PixelResult{X: x, Y: y, Value: v, Masked: v < 0}, nil
}

// LabeledPoint is a pixel coordinate with an optional label, such as
// "beam_center" or "spot_3".
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// LabeledPixelResult is a PixelResult carrying the label it was asked for.
type LabeledPixelResult struct {
	Label string `json:"label,omitempty"`
	PixelResult
}

// MultiPixelResult holds samples in the order the points were given.
type MultiPixelResult struct {
	Samples []LabeledPixelResult `json:"samples"`
}

// SamplePixelsMulti samples several points in one call. It fails on the
// first point outside the frame and returns no partial results.
func SamplePixelsMulti(data *cbf.SampleArray, points []LabeledPoint) (*MultiPixelResult, error) {
	results := make([]LabeledPixelResult, 0, len(points))
	for _, p := range points {
		px, err := SamplePixel(data, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledPixelResult{Label: p.Label, PixelResult: *px})
	}
	return &MultiPixelResult{Samples: results}, nil
}

// Region is a rectangle of pixels: (X1, Y1) inclusive, (X2, Y2) exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// FullRegion covers the whole frame.
func FullRegion(data *cbf.SampleArray) Region {
	return Region{X2: data.Cols, Y2: data.Rows}
}

// Width returns X2 - X1.
func (r Region) Width() int { return r.X2 - r.X1 }

// Height returns Y2 - Y1.
func (r Region) Height() int { return r.Y2 - r.Y1 }

// Pixels returns the number of pixels covered.
func (r Region) Pixels() int { return r.Width() * r.Height() }

// Check verifies that r is non-empty and lies inside a width x height frame.
func (r Region) Check(width, height int) error {
	if r.X1 < 0 || r.Y1 < 0 || r.X2 > width || r.Y2 > height {
		return fmt.Errorf("region (%d,%d)-(%d,%d) outside frame bounds (0,0)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, width, height)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	return nil
}
