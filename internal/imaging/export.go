package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/spf13/afero"
	"golang.org/x/image/tiff"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
)

// ExportResult describes a written TIFF file.
type ExportResult struct {
	Path          string `json:"path"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ClampedLow    int    `json:"clamped_low"`
	ClampedHigh   int    `json:"clamped_high"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// ToGray16 converts samples to 16-bit gray, clamping to [0, 65535]. It
// returns the number of samples clamped at each end.
func ToGray16(data *cbf.SampleArray, r Region) (*image.Gray16, int, int, error) {
	if err := r.Check(data.Cols, data.Rows); err != nil {
		return nil, 0, 0, err
	}
	img := image.NewGray16(image.Rect(0, 0, r.Width(), r.Height()))
	var low, high int
	for y := r.Y1; y < r.Y2; y++ {
		for x, v := range data.Row(y)[r.X1:r.X2] {
			switch {
			case v < 0:
				v = 0
				low++
			case v > math.MaxUint16:
				v = math.MaxUint16
				high++
			}
			off := img.PixOffset(x, y-r.Y1)
			img.Pix[off] = uint8(v >> 8)
			img.Pix[off+1] = uint8(v)
		}
	}
	return img, low, high, nil
}

// ExportTIFF16 writes region (nil for the whole frame) as a deflate
// compressed 16-bit grayscale TIFF. A failed write removes the file.
func ExportTIFF16(fs afero.Fs, path string, data *cbf.SampleArray, region *Region) (res *ExportResult, err error) {
	r := FullRegion(data)
	if region != nil {
		r = *region
	}
	img, low, high, err := ToGray16(data, r)
	if err != nil {
		return nil, err
	}

	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			res = nil
			_ = fs.Remove(path)
		}
	}()

	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return nil, fmt.Errorf("failed to encode TIFF: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &ExportResult{
		Path:          path,
		Width:         r.Width(),
		Height:        r.Height(),
		ClampedLow:    low,
		ClampedHigh:   high,
		FileSizeBytes: stat.Size(),
	}, nil
}
