package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
)

// ImageResult is an image encoded as base64 PNG.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func encodePNG(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &ImageResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Crop cuts region out of a rendered frame, resizing it by scale when scale
// is positive and not 1.
func Crop(img image.Image, r Region, scale float64) (*ImageResult, error) {
	b := img.Bounds()
	if err := r.Check(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	cropped := imaging.Crop(img, image.Rect(r.X1, r.Y1, r.X2, r.Y2).Add(b.Min))
	if scale > 0 && scale != 1 {
		w := max(int(float64(cropped.Bounds().Dx())*scale), 1)
		h := max(int(float64(cropped.Bounds().Dy())*scale), 1)
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}
	return encodePNG(cropped)
}

// Quadrants lists the names QuadrantRegion understands.
var Quadrants = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

// QuadrantRegion maps a named part of a width x height frame to a region.
// "center" is the middle half in both directions.
func QuadrantRegion(width, height int, name string) (Region, error) {
	midX, midY := width/2, height/2
	switch name {
	case "top-left":
		return Region{0, 0, midX, midY}, nil
	case "top-right":
		return Region{midX, 0, width, midY}, nil
	case "bottom-left":
		return Region{0, midY, midX, height}, nil
	case "bottom-right":
		return Region{midX, midY, width, height}, nil
	case "top-half":
		return Region{0, 0, width, midY}, nil
	case "bottom-half":
		return Region{0, midY, width, height}, nil
	case "left-half":
		return Region{0, 0, midX, height}, nil
	case "right-half":
		return Region{midX, 0, width, height}, nil
	case "center":
		qw, qh := width/4, height/4
		return Region{qw, qh, width - qw, height - qh}, nil
	}
	return Region{}, fmt.Errorf("unknown region: %s", name)
}

// CropQuadrant crops a named part of a rendered frame.
func CropQuadrant(img image.Image, name string, scale float64) (*ImageResult, error) {
	r, err := QuadrantRegion(img.Bounds().Dx(), img.Bounds().Dy(), name)
	if err != nil {
		return nil, err
	}
	return Crop(img, r, scale)
}

// CropSamples copies region out of a frame, keeping the element type.
func CropSamples(data *cbf.SampleArray, r Region) (*cbf.SampleArray, error) {
	if err := r.Check(data.Cols, data.Rows); err != nil {
		return nil, err
	}
	out := cbf.NewSampleArray(r.Height(), r.Width(), data.Type)
	for y := r.Y1; y < r.Y2; y++ {
		copy(out.Row(y-r.Y1), data.Row(y)[r.X1:r.X2])
	}
	return out, nil
}
