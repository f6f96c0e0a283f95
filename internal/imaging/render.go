package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
)

// RenderOptions controls how samples become colors.
//
// The display window spans the LowPercentile and HighPercentile values of
// the valid samples; intensities are clamped to it and scaled to [0, 1].
// BlurSigma > 0 smooths the scaled image, Gamma != 1 bends the response
// curve (values above 1 brighten faint pixels), and Scale resizes the
// result.
type RenderOptions struct {
	Colormap       string  `json:"colormap" toml:"colormap"`
	LowPercentile  float64 `json:"low_percentile" toml:"low_percentile"`
	HighPercentile float64 `json:"high_percentile" toml:"high_percentile"`
	Gamma          float64 `json:"gamma" toml:"gamma"`
	BlurSigma      float64 `json:"blur_sigma" toml:"blur_sigma"`
	Scale          float64 `json:"scale" toml:"-"`
}

// DefaultRenderOptions suit Bragg spots on a low background.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Colormap:       DefaultColormap,
		LowPercentile:  1,
		HighPercentile: 99.5,
		Gamma:          1,
		Scale:          1,
	}
}

// Validate rejects options Render cannot honor.
func (o RenderOptions) Validate() error {
	if o.Colormap != "" && !HasColormap(o.Colormap) {
		return fmt.Errorf("unknown colormap %q (have %v)", o.Colormap, ColormapNames())
	}
	if o.LowPercentile < 0 || o.HighPercentile > 100 || o.LowPercentile >= o.HighPercentile {
		return fmt.Errorf("percentile window [%g, %g] must satisfy 0 <= low < high <= 100",
			o.LowPercentile, o.HighPercentile)
	}
	if o.Gamma < 0 {
		return fmt.Errorf("gamma must not be negative, got %g", o.Gamma)
	}
	if o.BlurSigma < 0 {
		return fmt.Errorf("blur sigma must not be negative, got %g", o.BlurSigma)
	}
	if o.Scale < 0 {
		return fmt.Errorf("scale must not be negative, got %g", o.Scale)
	}
	return nil
}

// Window is the intensity range mapped onto the colormap.
type Window struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// ComputeWindow picks the display window from percentiles of the valid
// samples. High is always greater than Low.
func ComputeWindow(data *cbf.SampleArray, lowPct, highPct float64) Window {
	valid := validSamples(data, FullRegion(data))
	if len(valid) == 0 {
		return Window{Low: 0, High: 1}
	}
	slices.Sort(valid)
	w := Window{Low: percentile(valid, lowPct), High: percentile(valid, highPct)}
	if w.High <= w.Low {
		w.High = w.Low + 1
	}
	return w
}

// Render draws the frame with a window computed from opts.
func Render(data *cbf.SampleArray, opts RenderOptions) (image.Image, Window, error) {
	if err := opts.Validate(); err != nil {
		return nil, Window{}, err
	}
	win := ComputeWindow(data, opts.LowPercentile, opts.HighPercentile)
	img, err := RenderWindow(data, win, opts)
	return img, win, err
}

// RenderWindow draws the frame with an explicit window. Masked pixels are
// painted MaskColor.
func RenderWindow(data *cbf.SampleArray, win Window, opts RenderOptions) (image.Image, error) {
	cmap, ok := LookupColormap(opts.Colormap)
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q", opts.Colormap)
	}
	if data.Cols == 0 || data.Rows == 0 {
		return nil, fmt.Errorf("frame has no pixels")
	}

	bounds := image.Rect(0, 0, data.Cols, data.Rows)
	gray := image.NewGray(bounds)
	low := float64(win.Low)
	span := math.Max(float64(win.High)-low, 1)
	for i, v := range data.Samples {
		t := (float64(v) - low) / span
		gray.Pix[i] = uint8(math.Round(math.Min(math.Max(t, 0), 1) * 255))
	}

	var src image.Image = gray
	if opts.BlurSigma > 0 {
		src = blur.Gaussian(src, opts.BlurSigma)
	}
	if opts.Gamma > 0 && opts.Gamma != 1 {
		src = adjust.Gamma(src, opts.Gamma)
	}

	lut := cmap.Table()
	out := image.NewNRGBA(bounds)
	for y := 0; y < data.Rows; y++ {
		row := data.Row(y)
		for x := 0; x < data.Cols; x++ {
			if row[x] < 0 {
				out.SetNRGBA(x, y, MaskColor)
				continue
			}
			out.SetNRGBA(x, y, lut[intensity(src, x, y)])
		}
	}

	if opts.Scale > 0 && opts.Scale != 1 {
		w := max(int(float64(data.Cols)*opts.Scale), 1)
		h := max(int(float64(data.Rows)*opts.Scale), 1)
		return imaging.Resize(out, w, h, imaging.Lanczos), nil
	}
	return out, nil
}

// intensity reads the 8-bit level of a grayscale-valued image.
func intensity(img image.Image, x, y int) uint8 {
	switch m := img.(type) {
	case *image.Gray:
		return m.GrayAt(x, y).Y
	case *image.RGBA:
		return m.Pix[m.PixOffset(x, y)]
	}
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

// RenderResult is a rendered frame encoded as PNG.
type RenderResult struct {
	ImageResult
	Colormap string `json:"colormap"`
	Window   Window `json:"window"`
}

// RenderPNG renders the frame and encodes it.
func RenderPNG(data *cbf.SampleArray, opts RenderOptions) (*RenderResult, error) {
	img, win, err := Render(data, opts)
	if err != nil {
		return nil, err
	}
	enc, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	name := opts.Colormap
	if name == "" {
		name = DefaultColormap
	}
	return &RenderResult{ImageResult: *enc, Colormap: name, Window: win}, nil
}
