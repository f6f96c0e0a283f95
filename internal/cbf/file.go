package cbf

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// GzipExt marks compressed frames.
const GzipExt = ".gz"

// ReadFile reads a frame from fs. Paths ending in .gz are decompressed.
func ReadFile(fs afero.Fs, path string, opts ...Option) (*Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cbf: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, GzipExt) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, &StructuralError{Source: path, Reason: "bad gzip stream", Err: err}
		}
		defer gz.Close()
		r = gz
	}
	return Read(r, path, opts...)
}

// WriteFile writes img to path on fs, gzip-compressed when path ends in .gz.
// The data block is titled after the file name. A failed write removes the
// partial file.
func WriteFile(fs afero.Fs, path string, img *Image, opts ...Option) (err error) {
	opts = append([]Option{WithTitle(strings.TrimSuffix(path, GzipExt))}, opts...)
	data, err := Encode(img, opts...)
	if err != nil {
		return err
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("cbf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("cbf: closing %s: %w", path, cerr)
		}
		if err != nil {
			_ = fs.Remove(path)
		}
	}()

	if !strings.HasSuffix(path, GzipExt) {
		if _, err = f.Write(data); err != nil {
			return fmt.Errorf("cbf: writing %s: %w", path, err)
		}
		return nil
	}

	gz := gzip.NewWriter(f)
	if _, err = gz.Write(data); err != nil {
		gz.Close()
		return fmt.Errorf("cbf: writing %s: %w", path, err)
	}
	if err = gz.Close(); err != nil {
		return fmt.Errorf("cbf: writing %s: %w", path, err)
	}
	return nil
}
