package cbf

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/ironsheep/cbf-tools-mcp/internal/byteoffset"
	"github.com/ironsheep/cbf-tools-mcp/internal/cif"
)

// Header keys the read and write paths rely on.
const (
	KeyArrayData      = "_array_data.data"
	KeyHeaderContents = "_array_data.header_contents"

	KeyContentType    = "Content-Type"
	KeyContentMD5     = "Content-MD5"
	KeyConversions    = "conversions"
	KeyBinarySize     = "X-Binary-Size"
	KeyElementType    = "X-Binary-Element-Type"
	KeyByteOrder      = "X-Binary-Element-Byte-Order"
	KeyElementCount   = "X-Binary-Number-of-Elements"
	KeyFastestDim     = "X-Binary-Size-Fastest-Dimension"
	KeySecondDim      = "X-Binary-Size-Second-Dimension"
	ByteOffsetScheme  = "x-CBF_BYTE_OFFSET"
	LittleEndianOrder = "LITTLE_ENDIAN"
)

// Sentinel precedes the compressed payload in the binary section.
var Sentinel = []byte{0x0C, 0x1A, 0x04, 0xD5}

// MinimumKeys are expected in every detector frame. Missing ones are
// reported but not fatal.
var MinimumKeys = []string{
	KeyFastestDim,
	"ByteOrder",
	"Data type",
	"X dimension",
	"Y dimension",
	"Number of readouts",
}

// headerCutset is trimmed from both ends of every header value.
const headerCutset = " \"\n\r\t"

// mimeScanLen bounds the search for a CRLF line separator.
const mimeScanLen = 80

// minMIMELine is the shortest line still read as a MIME key.
const minMIMELine = 10

// Read decodes a CBF frame from r. name identifies the source in errors and
// diagnostics and titles the data block when the image is written back.
//
// Returns:
//   - *Image: The frame with its header, samples and CIF document.
//   - error: *StructuralError, *UnsupportedCompressionError, an error
//     matching ErrSizeMismatch, or the reader's error.
func Read(r io.Reader, name string, opts ...Option) (*Image, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cbf: reading %s: %w", name, err)
	}
	return Decode(raw, name, opts...)
}

// Decode is Read over an in-memory file.
func Decode(raw []byte, name string, opts ...Option) (*Image, error) {
	o := newOptions(opts)
	logger := log.With(o.logger, "source", name)

	parseOpts := []cif.ParseOption{cif.WithLogger(logger)}
	if o.strictCIF {
		parseOpts = append(parseOpts, cif.WithStrict())
	}
	doc, err := cif.Parse(raw, parseOpts...)
	if err != nil {
		return nil, &StructuralError{Source: name, Reason: "malformed CIF header", Err: err}
	}

	header := NewHeader()
	for _, key := range doc.Keys() {
		if key == KeyArrayData {
			continue
		}
		header.Set(key, strings.Trim(doc.Value(key), headerCutset))
	}

	section, ok := doc.Get(KeyArrayData)
	if !ok {
		return nil, structural(name, "no %s field", KeyArrayData)
	}
	readMIMEHeader(section, header, logger)

	cols, err := dimension(header, KeyFastestDim, name)
	if err != nil {
		return nil, err
	}
	rows, err := dimension(header, KeySecondDim, name)
	if err != nil {
		return nil, err
	}
	if cols > math.MaxInt/rows {
		return nil, structural(name, "frame of %d x %d pixels is too large", cols, rows)
	}

	typ, ok := ParseElementType(header.Value(KeyElementType))
	if !ok {
		level.Warn(logger).Log("msg", "unknown element type, assuming signed 32-bit integer",
			"type", header.Value(KeyElementType))
		typ = Int32
	}

	if err := missingKeys(header); err != nil {
		level.Debug(logger).Log("msg", "frame lacks minimum keys", "err", err)
	}

	if scheme := compressionScheme(header); scheme != ByteOffsetScheme {
		return nil, &UnsupportedCompressionError{Source: name, Scheme: scheme}
	}

	if order, ok := header.Get(KeyByteOrder); ok && order != LittleEndianOrder {
		level.Warn(logger).Log("msg", "unexpected byte order, reading as little-endian", "order", order)
	}

	payload, err := binaryPayload(section, header, name)
	if err != nil {
		return nil, err
	}
	verifyDigest(payload, header, logger)

	samples, err := byteoffset.Decode(payload, cols*rows)
	if err != nil {
		return nil, fmt.Errorf("cbf: %s: %w", name, err)
	}
	if typ != Int64 {
		for i, v := range samples {
			samples[i] = typ.Wrap(v)
		}
	}

	return &Image{
		Name:   name,
		Header: header,
		Data:   &SampleArray{Rows: rows, Cols: cols, Type: typ, Samples: samples},
		CIF:    doc,
	}, nil
}

// readMIMEHeader adds the "Key: value" lines of the binary section to header.
// The first line is the boundary; reading stops at the first short line.
func readMIMEHeader(section string, header *Header, logger log.Logger) {
	sep := "\r\n"
	if i := strings.Index(section, sep); i < 0 || i > mimeScanLen {
		sep = "\n"
	}
	lines := strings.Split(section, sep)
	for _, line := range lines[1:] {
		if len(line) < minMIMELine {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			key, value, ok = strings.Cut(line, "=")
		}
		if !ok {
			level.Debug(logger).Log("msg", "skipping binary section line", "line", line)
			continue
		}
		header.Set(strings.TrimSpace(key), strings.Trim(value, headerCutset))
	}
}

func dimension(header *Header, key, source string) (int, error) {
	value, ok := header.Get(key)
	if !ok {
		return 0, structural(source, "missing %s", key)
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, structural(source, "invalid %s %q", key, value)
	}
	return n, nil
}

func missingKeys(header *Header) error {
	var result *multierror.Error
	for _, key := range lo.Reject(MinimumKeys, func(k string, _ int) bool { return header.Has(k) }) {
		result = multierror.Append(result, fmt.Errorf("missing %q", key))
	}
	if result != nil {
		result.ErrorFormat = func(errs []error) string {
			return strings.Join(lo.Map(errs, func(e error, _ int) string { return e.Error() }), ", ")
		}
	}
	return result.ErrorOrNil()
}

// compressionScheme returns the conversions key, falling back to the
// conversions parameter of Content-Type.
func compressionScheme(header *Header) string {
	if v, ok := header.Get(KeyConversions); ok {
		return v
	}
	for _, param := range strings.Split(header.Value(KeyContentType), ";") {
		key, value, ok := strings.Cut(param, "=")
		if ok && strings.EqualFold(strings.TrimSpace(key), KeyConversions) {
			return strings.Trim(value, headerCutset)
		}
	}
	return ""
}

func binaryPayload(section string, header *Header, source string) ([]byte, error) {
	start := strings.Index(section, string(Sentinel))
	if start < 0 {
		return nil, structural(source, "binary sentinel not found")
	}
	value, ok := header.Get(KeyBinarySize)
	if !ok {
		return nil, structural(source, "missing %s", KeyBinarySize)
	}
	size, err := strconv.Atoi(value)
	if err != nil || size < 0 {
		return nil, structural(source, "invalid %s %q", KeyBinarySize, value)
	}
	begin := start + len(Sentinel)
	if avail := len(section) - begin; size > avail {
		return nil, &PayloadBoundsError{Source: source, Declared: size, Available: avail}
	}
	return []byte(section[begin : begin+size]), nil
}

func verifyDigest(payload []byte, header *Header, logger log.Logger) {
	want, ok := header.Get(KeyContentMD5)
	if !ok {
		return
	}
	sum := md5.Sum(payload)
	got := base64.StdEncoding.EncodeToString(sum[:])
	if want != got {
		level.Warn(logger).Log("msg", "payload digest mismatch", "header", want, "computed", got)
	}
}
