package imaging

import (
	"fmt"
	"math"
	"slices"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
)

// DefaultPercentiles are reported by Stats when none are requested.
var DefaultPercentiles = []float64{1, 50, 99, 99.9}

// PercentileValue is one percentile of the valid samples.
type PercentileValue struct {
	Percentile float64 `json:"percentile"`
	Value      int64   `json:"value"`
}

// StatsResult summarizes the samples of a region.
//
// Masked pixels (negative samples) are counted but excluded from every other
// figure.
type StatsResult struct {
	Region      Region            `json:"region"`
	Pixels      int               `json:"pixels"`
	Valid       int               `json:"valid"`
	Masked      int               `json:"masked"`
	Min         int64             `json:"min"`
	Max         int64             `json:"max"`
	Sum         float64           `json:"sum"`
	Mean        float64           `json:"mean"`
	StdDev      float64           `json:"stddev"`
	Percentiles []PercentileValue `json:"percentiles,omitempty"`
}

// Stats computes intensity statistics over region, or the whole frame when
// region is nil. percentiles may be nil for DefaultPercentiles.
func Stats(data *cbf.SampleArray, region *Region, percentiles []float64) (*StatsResult, error) {
	r := FullRegion(data)
	if region != nil {
		r = *region
	}
	if err := r.Check(data.Cols, data.Rows); err != nil {
		return nil, err
	}
	if percentiles == nil {
		percentiles = DefaultPercentiles
	}
	for _, p := range percentiles {
		if p < 0 || p > 100 {
			return nil, fmt.Errorf("percentile %g outside [0, 100]", p)
		}
	}

	valid := validSamples(data, r)
	res := &StatsResult{
		Region: r,
		Pixels: r.Pixels(),
		Valid:  len(valid),
		Masked: r.Pixels() - len(valid),
	}
	if len(valid) == 0 {
		return res, nil
	}

	var sum, sumSq float64
	for _, v := range valid {
		f := float64(v)
		sum += f
		sumSq += f * f
	}
	n := float64(len(valid))
	mean := sum / n
	variance := math.Max(sumSq/n-mean*mean, 0)

	slices.Sort(valid)
	res.Min = valid[0]
	res.Max = valid[len(valid)-1]
	res.Sum = sum
	res.Mean = math.Round(mean*1000) / 1000
	res.StdDev = math.Round(math.Sqrt(variance)*1000) / 1000
	for _, p := range percentiles {
		res.Percentiles = append(res.Percentiles, PercentileValue{Percentile: p, Value: percentile(valid, p)})
	}
	return res, nil
}

// validSamples copies the non-negative samples of r.
func validSamples(data *cbf.SampleArray, r Region) []int64 {
	out := make([]int64, 0, r.Pixels())
	for y := r.Y1; y < r.Y2; y++ {
		for _, v := range data.Row(y)[r.X1:r.X2] {
			if v >= 0 {
				out = append(out, v)
			}
		}
	}
	return out
}

// percentile picks the nearest-rank value of sorted.
func percentile(sorted []int64, p float64) int64 {
	idx := int(math.Round(p / 100 * float64(len(sorted)-1)))
	return sorted[idx]
}

// HistogramBin counts valid samples in [Low, High).
type HistogramBin struct {
	Low   int64 `json:"low"`
	High  int64 `json:"high"`
	Count int   `json:"count"`
}

// HistogramResult is an equal-width histogram of the valid samples.
type HistogramResult struct {
	Bins []HistogramBin `json:"bins"`
}

// Histogram bins the valid samples of region (nil for the whole frame) into
// at most bins equal-width bins spanning min to max.
func Histogram(data *cbf.SampleArray, bins int, region *Region) (*HistogramResult, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", bins)
	}
	r := FullRegion(data)
	if region != nil {
		r = *region
	}
	if err := r.Check(data.Cols, data.Rows); err != nil {
		return nil, err
	}

	valid := validSamples(data, r)
	if len(valid) == 0 {
		return &HistogramResult{Bins: []HistogramBin{}}, nil
	}
	lo, hi := slices.Min(valid), slices.Max(valid)
	width := (hi - lo + int64(bins)) / int64(bins)
	if width < 1 {
		width = 1
	}
	n := int((hi-lo)/width) + 1

	out := make([]HistogramBin, n)
	for i := range out {
		out[i].Low = lo + int64(i)*width
		out[i].High = out[i].Low + width
	}
	for _, v := range valid {
		out[(v-lo)/width].Count++
	}
	return &HistogramResult{Bins: out}, nil
}
