package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
)

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DistanceResult describes the segment between two points.
type DistanceResult struct {
	DistancePixels        float64 `json:"distance_pixels"`
	DeltaX                int     `json:"delta_x"`
	DeltaY                int     `json:"delta_y"`
	AngleDegrees          float64 `json:"angle_degrees"`
	DistancePercentWidth  float64 `json:"distance_percent_width"`
	DistancePercentHeight float64 `json:"distance_percent_height"`
}

// MeasureDistance measures from p1 to p2 on a frame. Points may lie on the
// far edges (x == Cols, y == Rows). The angle is 0 pointing right and 90
// pointing down.
func MeasureDistance(data *cbf.SampleArray, p1, p2 Point) (*DistanceResult, error) {
	for _, p := range []Point{p1, p2} {
		if p.X < 0 || p.Y < 0 || p.X > data.Cols || p.Y > data.Rows {
			return nil, fmt.Errorf("point (%d,%d) outside frame bounds %dx%d", p.X, p.Y, data.Cols, data.Rows)
		}
	}

	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	dist := math.Hypot(float64(dx), float64(dy))
	angle := math.Atan2(float64(dy), float64(dx)) * 180 / math.Pi

	return &DistanceResult{
		DistancePixels:        math.Round(dist*100) / 100,
		DeltaX:                dx,
		DeltaY:                dy,
		AngleDegrees:          math.Round(angle*10) / 10,
		DistancePercentWidth:  math.Round(dist/float64(data.Cols)*1000) / 10,
		DistancePercentHeight: math.Round(dist/float64(data.Rows)*1000) / 10,
	}, nil
}

// CompareRegionsResult contrasts the intensities of two regions.
//
// Correlation is the Pearson coefficient over the overlapping top-left
// sub-rectangle of both regions, using pixels valid in both. It is 0 when
// either side is constant.
type CompareRegionsResult struct {
	Region1  StatsResult `json:"region1"`
	Region2  StatsResult `json:"region2"`
	SameSize bool        `json:"same_size"`
	// MeanDifference is region1's mean minus region2's.
	MeanDifference float64 `json:"mean_difference"`
	// MeanRatio is region1's mean over region2's, or 0 when region2's
	// mean is 0.
	MeanRatio      float64 `json:"mean_ratio"`
	Correlation    float64 `json:"correlation"`
	ComparedPixels int     `json:"compared_pixels"`
}

// CompareRegions computes statistics of r1 and r2 and how they relate.
func CompareRegions(data *cbf.SampleArray, r1, r2 Region) (*CompareRegionsResult, error) {
	s1, err := Stats(data, &r1, nil)
	if err != nil {
		return nil, fmt.Errorf("region1: %w", err)
	}
	s2, err := Stats(data, &r2, nil)
	if err != nil {
		return nil, fmt.Errorf("region2: %w", err)
	}

	res := &CompareRegionsResult{
		Region1:        *s1,
		Region2:        *s2,
		SameSize:       r1.Width() == r2.Width() && r1.Height() == r2.Height(),
		MeanDifference: math.Round((s1.Mean-s2.Mean)*1000) / 1000,
	}
	if s2.Mean != 0 {
		res.MeanRatio = math.Round(s1.Mean/s2.Mean*1000) / 1000
	}

	w, h := min(r1.Width(), r2.Width()), min(r1.Height(), r2.Height())
	var n, sa, sb, saa, sbb, sab float64
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			a := data.At(r1.X1+dx, r1.Y1+dy)
			b := data.At(r2.X1+dx, r2.Y1+dy)
			if a < 0 || b < 0 {
				continue
			}
			fa, fb := float64(a), float64(b)
			n++
			sa += fa
			sb += fb
			saa += fa * fa
			sbb += fb * fb
			sab += fa * fb
		}
	}
	res.ComparedPixels = int(n)
	if n > 0 {
		cov := sab/n - (sa/n)*(sb/n)
		va := saa/n - (sa/n)*(sa/n)
		vb := sbb/n - (sb/n)*(sb/n)
		if va > 0 && vb > 0 {
			res.Correlation = math.Round(cov/math.Sqrt(va*vb)*1000) / 1000
		}
	}
	return res, nil
}
