package imaging

import (
	"image/color"
	"testing"
)

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, Region{0, 0, 50, 50}, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	r, g, b := rgb8(decodeResult(t, result).At(25, 25))
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("cropped image color: got (%d,%d,%d), want (255,0,0)", r, g, b)
	}
}

func TestCrop_WithScale(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name         string
		region       Region
		scale        float64
		wantW, wantH int
	}{
		{"up 2x", Region{0, 0, 50, 50}, 2.0, 100, 100},
		{"down 0.5x", Region{0, 0, 100, 100}, 0.5, 50, 50},
		{"zero means unscaled", Region{10, 10, 30, 20}, 0, 20, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Crop(img, tt.region, tt.scale)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			if result.Width != tt.wantW || result.Height != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d", result.Width, result.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name   string
		region Region
	}{
		{"x1 negative", Region{-1, 0, 50, 50}},
		{"y2 too large", Region{0, 0, 50, 101}},
		{"x1 equals x2", Region{50, 0, 50, 50}},
		{"inverted", Region{60, 60, 10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.region, 1.0); err == nil {
				t.Error("Crop should fail for an invalid region")
			}
		})
	}
}

func TestCropQuadrant(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		region       string
		wantW, wantH int
		wantR, wantG uint8
		wantB        uint8
	}{
		{"top-left", 50, 50, 255, 0, 0},
		{"top-right", 50, 50, 0, 255, 0},
		{"bottom-left", 50, 50, 0, 0, 255},
		{"bottom-right", 50, 50, 255, 255, 255},
		{"top-half", 100, 50, 0, 0, 0},
		{"bottom-half", 100, 50, 0, 0, 0},
		{"left-half", 50, 100, 0, 0, 0},
		{"right-half", 50, 100, 0, 0, 0},
		{"center", 50, 50, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			result, err := CropQuadrant(img, tt.region, 1.0)
			if err != nil {
				t.Fatalf("CropQuadrant(%s) failed: %v", tt.region, err)
			}
			if result.Width != tt.wantW || result.Height != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d", result.Width, result.Height, tt.wantW, tt.wantH)
			}
			if tt.wantW != 50 || tt.wantH != 50 || tt.region == "center" {
				return
			}
			r, g, b := rgb8(decodeResult(t, result).At(25, 25))
			if r != tt.wantR || g != tt.wantG || b != tt.wantB {
				t.Errorf("color: got (%d,%d,%d), want (%d,%d,%d)", r, g, b, tt.wantR, tt.wantG, tt.wantB)
			}
		})
	}
}

func TestCropQuadrant_InvalidRegion(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	for _, region := range []string{"invalid", "TOP-LEFT", "middle", "", "center-left"} {
		t.Run(region, func(t *testing.T) {
			if _, err := CropQuadrant(img, region, 1.0); err == nil {
				t.Errorf("CropQuadrant should fail for invalid region %q", region)
			}
		})
	}
}

func TestCropQuadrant_OddDimensions(t *testing.T) {
	img := createInMemoryImage(101, 101, color.RGBA{255, 0, 0, 255})

	result, err := CropQuadrant(img, "top-left", 1.0)
	if err != nil {
		t.Fatalf("CropQuadrant with odd dimensions failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 50x50", result.Width, result.Height)
	}
}

func TestQuadrantRegion_AllNames(t *testing.T) {
	for _, name := range Quadrants {
		r, err := QuadrantRegion(64, 48, name)
		if err != nil {
			t.Fatalf("QuadrantRegion(%s) failed: %v", name, err)
		}
		if err := r.Check(64, 48); err != nil {
			t.Errorf("QuadrantRegion(%s) = %+v is not inside the frame: %v", name, r, err)
		}
	}
}

func TestCropSamples(t *testing.T) {
	data := createFrame(6, 4, func(x, y int) int64 { return int64(y*10 + x) })

	out, err := CropSamples(data, Region{2, 1, 5, 3})
	if err != nil {
		t.Fatalf("CropSamples failed: %v", err)
	}
	if out.Cols != 3 || out.Rows != 2 || out.Type != data.Type {
		t.Fatalf("shape: got %dx%d %v", out.Cols, out.Rows, out.Type)
	}
	want := []int64{12, 13, 14, 22, 23, 24}
	for i, v := range out.Samples {
		if v != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, v, want[i])
		}
	}

	if _, err := CropSamples(data, Region{0, 0, 7, 1}); err == nil {
		t.Error("CropSamples should fail for a region outside the frame")
	}
}
