package imaging

import (
	"image/color"
	"testing"
)

func TestLookupColormap(t *testing.T) {
	for _, name := range ColormapNames() {
		cmap, ok := LookupColormap(name)
		if !ok {
			t.Fatalf("LookupColormap(%q) failed", name)
		}
		if cmap.Name != name {
			t.Errorf("Name: got %q, want %q", cmap.Name, name)
		}
	}

	cmap, ok := LookupColormap("")
	if !ok || cmap.Name != DefaultColormap {
		t.Errorf("empty name: got %q, want %q", cmap.Name, DefaultColormap)
	}
	if _, ok := LookupColormap("rainbow"); ok {
		t.Error("LookupColormap should fail for an unknown name")
	}
}

func TestColormap_Endpoints(t *testing.T) {
	gray, _ := LookupColormap("gray")

	tests := []struct {
		t    float64
		want color.NRGBA
	}{
		{-1, color.NRGBA{0, 0, 0, 255}},
		{0, color.NRGBA{0, 0, 0, 255}},
		{1, color.NRGBA{255, 255, 255, 255}},
		{2, color.NRGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := gray.At(tt.t); got != tt.want {
			t.Errorf("At(%v): got %v, want %v", tt.t, got, tt.want)
		}
	}

	mid := gray.At(0.5)
	if mid.R < 64 || mid.R > 192 {
		t.Errorf("At(0.5): got %v, want a mid gray", mid)
	}
}

func TestComputeWindow(t *testing.T) {
	data := createFrame(10, 10, func(x, y int) int64 { return int64(y*10 + x) })

	win := ComputeWindow(data, 0, 100)
	if win.Low != 0 || win.High != 99 {
		t.Errorf("got %+v, want [0, 99]", win)
	}

	flat := createFrame(3, 3, func(x, y int) int64 { return 5 })
	win = ComputeWindow(flat, 1, 99)
	if win.High <= win.Low {
		t.Errorf("flat frame window must not be empty: %+v", win)
	}
}

func TestRender_GrayMapping(t *testing.T) {
	data := createSpotFrame(10, 10, 5, 5)
	opts := DefaultRenderOptions()
	opts.Colormap = "gray"

	img, err := RenderWindow(data, Window{Low: 10, High: 1000}, opts)
	if err != nil {
		t.Fatalf("RenderWindow failed: %v", err)
	}
	if r, _, _ := rgb8(img.At(5, 5)); r != 255 {
		t.Errorf("spot: got %d, want 255", r)
	}
	if r, _, _ := rgb8(img.At(3, 3)); r != 0 {
		t.Errorf("background: got %d, want 0", r)
	}
	if got := color.NRGBAModel.Convert(img.At(0, 4)); got != MaskColor {
		t.Errorf("masked pixel: got %v, want %v", got, MaskColor)
	}
}

func TestRender_Inverted(t *testing.T) {
	data := createSpotFrame(10, 10, 5, 5)

	img, _, err := Render(data, DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	spot, _, _ := rgb8(img.At(5, 5))
	bg, _, _ := rgb8(img.At(3, 3))
	if spot >= bg {
		t.Errorf("inverted colormap should draw the spot darker: spot %d, background %d", spot, bg)
	}
}

func TestRender_GammaAndBlur(t *testing.T) {
	data := createFrame(16, 16, func(x, y int) int64 { return int64(x) })
	base := DefaultRenderOptions()
	base.Colormap = "gray"
	win := Window{Low: 0, High: 15}

	plain, err := RenderWindow(data, win, base)
	if err != nil {
		t.Fatalf("RenderWindow failed: %v", err)
	}

	bright := base
	bright.Gamma = 2.2
	brighter, err := RenderWindow(data, win, bright)
	if err != nil {
		t.Fatalf("RenderWindow with gamma failed: %v", err)
	}
	p, _, _ := rgb8(plain.At(4, 8))
	b, _, _ := rgb8(brighter.At(4, 8))
	if b <= p {
		t.Errorf("gamma 2.2 should brighten mid tones: plain %d, gamma %d", p, b)
	}

	blurred := base
	blurred.BlurSigma = 2
	if _, err := RenderWindow(data, win, blurred); err != nil {
		t.Fatalf("RenderWindow with blur failed: %v", err)
	}
}

func TestRender_Scale(t *testing.T) {
	data := createSpotFrame(20, 10, 5, 5)
	opts := DefaultRenderOptions()
	opts.Scale = 0.5

	img, _, err := Render(data, opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 5 {
		t.Errorf("scaled size: got %v, want 10x5", img.Bounds().Size())
	}
}

func TestRenderOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*RenderOptions)
	}{
		{"unknown colormap", func(o *RenderOptions) { o.Colormap = "rainbow" }},
		{"low above high", func(o *RenderOptions) { o.LowPercentile = 99; o.HighPercentile = 1 }},
		{"high above 100", func(o *RenderOptions) { o.HighPercentile = 101 }},
		{"negative gamma", func(o *RenderOptions) { o.Gamma = -1 }},
		{"negative blur", func(o *RenderOptions) { o.BlurSigma = -0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultRenderOptions()
			tt.modify(&opts)
			if err := opts.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
	if err := DefaultRenderOptions().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestRenderPNG(t *testing.T) {
	data := createSpotFrame(32, 24, 10, 10)

	result, err := RenderPNG(data, DefaultRenderOptions())
	if err != nil {
		t.Fatalf("RenderPNG failed: %v", err)
	}
	if result.Width != 32 || result.Height != 24 || result.MimeType != "image/png" {
		t.Errorf("unexpected result: %dx%d %s", result.Width, result.Height, result.MimeType)
	}
	if result.Colormap != DefaultColormap {
		t.Errorf("Colormap: got %q", result.Colormap)
	}
	img := decodeResult(t, &result.ImageResult)
	if img.Bounds().Dx() != 32 {
		t.Errorf("decoded width: got %d, want 32", img.Bounds().Dx())
	}
}
