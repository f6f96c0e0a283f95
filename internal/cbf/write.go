package cbf

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/samber/lo"

	"github.com/ironsheep/cbf-tools-mcp/internal/byteoffset"
	"github.com/ironsheep/cbf-tools-mcp/internal/cif"
)

// lineSep ends every line of a written CBF file.
const lineSep = "\r\n"

// droppedPrefixes mark header keys that describe the binary section. They are
// regenerated on every write.
var droppedPrefixes = []string{"X-Binary-", "Content-", KeyConversions, "filename"}

// Write encodes img as a CBF file.
func Write(w io.Writer, img *Image, opts ...Option) error {
	data, err := Encode(img, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("cbf: writing %s: %w", img.Name, err)
	}
	return nil
}

// Encode renders img as a CBF file in memory. The image is not modified.
func Encode(img *Image, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	if img == nil || img.Data == nil {
		return nil, ErrNoData
	}
	if err := img.Data.Validate(); err != nil {
		return nil, &StructuralError{Source: img.Name, Reason: "invalid sample array", Err: err}
	}

	doc := cif.NewDocument()
	if img.CIF != nil {
		doc = img.CIF.Clone()
	}
	free := headerLines(doc.Value(KeyHeaderContents))

	if img.Header != nil {
		for _, key := range img.Header.Keys() {
			value := img.Header.Value(key)
			switch {
			case key == KeyArrayData:
			case strings.HasPrefix(key, "_"):
				doc.Set(key, value)
			case lo.SomeBy(droppedPrefixes, func(p string) bool { return strings.HasPrefix(key, p) }):
			default:
				free = append(free, key+" "+value)
			}
		}
	}
	if free = lo.Uniq(free); len(free) > 0 {
		doc.Set(KeyHeaderContents, strings.Join(lo.Map(free, func(l string, _ int) string { return "# " + l }), lineSep))
	}

	doc.Set(KeyArrayData, binarySection(img.Data))

	title := img.Name
	if o.title != "" {
		title = o.title
	}
	level.Debug(o.logger).Log("msg", "encoded frame", "name", title,
		"cols", img.Data.Cols, "rows", img.Data.Rows, "free_keys", len(free))
	return doc.Render(cif.WithLineSeparator(lineSep), cif.WithTitle(title)), nil
}

// headerLines returns the "# " lines of a header_contents value without
// their prefix.
func headerLines(contents string) []string {
	var out []string
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			out = append(out, line[2:])
		}
	}
	return out
}

func binarySection(data *SampleArray) string {
	blob := byteoffset.Encode(data.Samples)
	sum := md5.Sum(blob)

	lines := []string{
		cif.BinaryMarker,
		KeyContentType + ": application/octet-stream;",
		`     ` + KeyConversions + `="` + ByteOffsetScheme + `"`,
		"Content-Transfer-Encoding: BINARY",
		fmt.Sprintf("%s: %d", KeyBinarySize, len(blob)),
		"X-Binary-ID: 1",
		fmt.Sprintf("%s: %q", KeyElementType, data.Type.Tag()),
		KeyByteOrder + ": " + LittleEndianOrder,
		KeyContentMD5 + ": " + base64.StdEncoding.EncodeToString(sum[:]),
		fmt.Sprintf("%s: %d", KeyElementCount, len(data.Samples)),
		fmt.Sprintf("%s: %d", KeyFastestDim, data.Cols),
		fmt.Sprintf("%s: %d", KeySecondDim, data.Rows),
		"X-Binary-Size-Padding: 1",
		"",
		string(Sentinel) + string(blob),
		"",
		cif.BinaryMarker + "--",
	}
	return strings.Join(lines, lineSep)
}
