package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
)

// createInMemoryImage creates a uniformly colored RGBA image.
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with a different color in each quadrant:
// red top-left, green top-right, blue bottom-left, white bottom-right.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// createFrame builds an Int32 frame from a function of the coordinates.
func createFrame(cols, rows int, f func(x, y int) int64) *cbf.SampleArray {
	data := cbf.NewSampleArray(rows, cols, cbf.Int32)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			data.Set(x, y, f(x, y))
		}
	}
	return data
}

// createSpotFrame is a background of 10 counts with a 1000-count spot at
// (cx, cy) and a masked column at x == 0.
func createSpotFrame(cols, rows, cx, cy int) *cbf.SampleArray {
	return createFrame(cols, rows, func(x, y int) int64 {
		switch {
		case x == 0:
			return -1
		case x == cx && y == cy:
			return 1000
		}
		return 10
	})
}

// decodeResult decodes the PNG of an ImageResult.
func decodeResult(t *testing.T, r *ImageResult) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	return img
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}
