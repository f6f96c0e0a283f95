package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
	cbfimaging "github.com/ironsheep/cbf-tools-mcp/internal/imaging"
)

// infoFrames prints one table row per readable frame. Unreadable frames are
// reported together after the table.
func infoFrames(w io.Writer, fs afero.Fs, paths []string, opts ...cbf.Option) error {
	var errs *multierror.Error

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Size", "Dimensions", "Element type", "Binary", "Header keys", "Masked", "Max"})
	for _, path := range paths {
		img, err := cbf.ReadFile(fs, path, opts...)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		stat, err := fs.Stat(path)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		stats, err := cbfimaging.Stats(img.Data, nil, []float64{})
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		binary := img.Header.Value(cbf.KeyBinarySize)
		if n, err := humanize.ParseBytes(binary); err == nil {
			binary = humanize.Bytes(n)
		}
		table.Append([]string{
			path,
			humanize.Bytes(uint64(stat.Size())),
			fmt.Sprintf("%d x %d", img.Data.Cols, img.Data.Rows),
			img.Data.Type.Tag(),
			binary,
			fmt.Sprintf("%d", img.Header.Len()),
			humanize.Comma(int64(stats.Masked)),
			humanize.Comma(stats.Max),
		})
	}
	table.Render()

	return errs.ErrorOrNil()
}

// headerTable prints the header of one frame in order.
func headerTable(w io.Writer, fs afero.Fs, path, prefix string, opts ...cbf.Option) error {
	img, err := cbf.ReadFile(fs, path, opts...)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Value"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, e := range img.Header.Entries(prefix) {
		table.Append([]string{e.Key, strings.ReplaceAll(e.Value, "\r", "")})
	}
	table.Render()
	return nil
}

// renderFrame writes a false-colour PNG of one frame to out.
func renderFrame(w io.Writer, fs afero.Fs, path, out string, ro cbfimaging.RenderOptions, opts ...cbf.Option) (err error) {
	img, err := cbf.ReadFile(fs, path, opts...)
	if err != nil {
		return err
	}
	pic, win, err := cbfimaging.Render(img.Data, ro)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	f, err := fs.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = fs.Remove(out)
		}
	}()
	if err = imaging.Encode(f, pic, imaging.PNG); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}

	b := pic.Bounds()
	fmt.Fprintf(w, "%s: %d x %d, window [%s, %s]\n", out, b.Dx(), b.Dy(),
		humanize.Comma(win.Low), humanize.Comma(win.High))
	return nil
}

// parseSets turns key=value arguments into a header update.
func parseSets(sets []string) (map[string]string, error) {
	out := make(map[string]string, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q: want key=value", s)
		}
		out[key] = value
	}
	return out, nil
}

// convertFrame rewrites src as dst with the header edits applied.
func convertFrame(w io.Writer, fs afero.Fs, src, dst string, sets []string, opts ...cbf.Option) error {
	update, err := parseSets(sets)
	if err != nil {
		return err
	}
	img, err := cbf.ReadFile(fs, src, opts...)
	if err != nil {
		return err
	}
	img.Header.Update(update)
	img.Name = dst
	if err := cbf.WriteFile(fs, dst, img, opts...); err != nil {
		return err
	}

	stat, err := fs.Stat(dst)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s -> %s (%s, %d header keys set)\n", src, dst, humanize.Bytes(uint64(stat.Size())), len(update))
	return nil
}

// verifyFrames re-encodes every frame and decodes the result, checking that
// the samples and their shape survive. Every file is checked even after a
// failure.
func verifyFrames(w io.Writer, fs afero.Fs, paths []string, opts ...cbf.Option) error {
	var errs *multierror.Error

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Elements", "Encoded", "Ratio", "Result"})
	for _, path := range paths {
		result, encoded, err := verifyFrame(fs, path, opts...)
		if err != nil {
			errs = multierror.Append(errs, err)
			result = "FAILED"
		}
		row := []string{path, "-", "-", "-", result}
		if encoded != nil {
			raw := encoded.elements * uint64(encoded.width)
			row[1] = humanize.Comma(int64(encoded.elements))
			row[2] = humanize.Bytes(encoded.bytes)
			row[3] = fmt.Sprintf("%.2f", float64(raw)/float64(max(encoded.bytes, 1)))
		}
		table.Append(row)
	}
	table.Render()

	return errs.ErrorOrNil()
}

type encodedFrame struct {
	elements uint64
	width    int
	bytes    uint64
}

func verifyFrame(fs afero.Fs, path string, opts ...cbf.Option) (string, *encodedFrame, error) {
	img, err := cbf.ReadFile(fs, path, opts...)
	if err != nil {
		return "", nil, err
	}
	data, err := cbf.Encode(img, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	enc := &encodedFrame{
		elements: uint64(img.Data.Len()),
		width:    img.Data.Type.Bits() / 8,
		bytes:    uint64(len(data)),
	}

	back, err := cbf.Decode(data, path, opts...)
	if err != nil {
		return "", enc, fmt.Errorf("%s: re-encoded frame does not decode: %w", path, err)
	}
	switch {
	case back.Data.Rows != img.Data.Rows || back.Data.Cols != img.Data.Cols:
		return "", enc, fmt.Errorf("%s: shape changed from %dx%d to %dx%d", path,
			img.Data.Cols, img.Data.Rows, back.Data.Cols, back.Data.Rows)
	case back.Data.Type != img.Data.Type:
		return "", enc, fmt.Errorf("%s: element type changed from %s to %s", path, img.Data.Type, back.Data.Type)
	case !slices.Equal(back.Data.Samples, img.Data.Samples):
		return "", enc, fmt.Errorf("%s: samples differ after round trip", path)
	}
	return "ok", enc, nil
}
