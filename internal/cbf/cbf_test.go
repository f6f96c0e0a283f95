package cbf

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/cbf-tools-mcp/internal/cif"
)

func testImage() *Image {
	data := NewSampleArray(3, 4, Int32)
	for i := range data.Samples {
		data.Samples[i] = int64(i*i*1000 - 500)
	}
	data.Samples[5] = 1 << 20
	data.Samples[6] = -1
	img := NewImage("frame.cbf", data)
	img.Header.Set("_diffrn.id", "DS1")
	img.Header.Set("Exposure_time", "0.1 s")
	return img
}

func encoded(t *testing.T) []byte {
	t.Helper()
	raw, err := Encode(testImage())
	require.NoError(t, err)
	return raw
}

func TestRoundTrip(t *testing.T) {
	img := testImage()
	raw, err := Encode(img)
	require.NoError(t, err)

	got, err := Decode(raw, "frame.cbf")
	require.NoError(t, err)
	assert.Equal(t, img.Data, got.Data)
	assert.Equal(t, "DS1", got.Header.Value("_diffrn.id"))
	assert.Equal(t, "4", got.Header.Value(KeyFastestDim))
	assert.Equal(t, "3", got.Header.Value(KeySecondDim))
	assert.Equal(t, "12", got.Header.Value(KeyElementCount))
	assert.Equal(t, "signed 32-bit integer", got.Header.Value(KeyElementType))
	assert.Equal(t, []string{"Exposure_time 0.1 s"}, headerLines(got.Header.Value(KeyHeaderContents)))
}

func TestRoundTrip_WriteReadWrite(t *testing.T) {
	first := encoded(t)
	img, err := Decode(first, "frame.cbf")
	require.NoError(t, err)

	second, err := Encode(img)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestEncode_Layout(t *testing.T) {
	out := string(encoded(t))
	assert.True(t, strings.HasPrefix(out, "# "+cif.DefaultPreamble[0]+"\r\ndata_frame\r\n"), out[:60])
	assert.Contains(t, out, "_diffrn.id        DS1\r\n")
	assert.Contains(t, out, "\r\n;\r\n"+cif.BinaryMarker+"\r\nContent-Type: application/octet-stream;\r\n")
	assert.Contains(t, out, "\r\n     conversions=\"x-CBF_BYTE_OFFSET\"\r\n")
	assert.Contains(t, out, "\r\nX-Binary-Element-Byte-Order: LITTLE_ENDIAN\r\n")
	assert.Contains(t, out, "\r\n"+string(Sentinel))
	assert.Contains(t, out, cif.BinaryMarker+"--\r\n;\r\n")
	assert.NotContains(t, out, "Exposure_time        ")
}

func TestEncode_BinaryKeysNeverCopied(t *testing.T) {
	img := testImage()
	img.Header.Set(KeyBinarySize, "5")
	img.Header.Set(KeyContentType, "text/plain")
	img.Header.Set(KeyConversions, "x-CBF_NONE")
	img.Header.Set("filename", "other.cbf")

	raw, err := Encode(img)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "X-Binary-Size:"))
	assert.NotContains(t, string(raw), "other.cbf")

	got, err := Decode(raw, "frame.cbf")
	require.NoError(t, err)
	assert.Equal(t, img.Data.Samples, got.Data.Samples)
}

func TestEncode_MergesHeaderContents(t *testing.T) {
	img := testImage()
	img.CIF.Set(KeyHeaderContents, "# Detector: PILATUS 6M\n# Exposure_time 0.1 s\nnot a comment")
	raw, err := Encode(img)
	require.NoError(t, err)

	got, err := Decode(raw, "frame.cbf")
	require.NoError(t, err)
	assert.Equal(t, []string{"Detector: PILATUS 6M", "Exposure_time 0.1 s"},
		headerLines(got.Header.Value(KeyHeaderContents)))
}

func TestEncode_DoesNotModifyImage(t *testing.T) {
	img := testImage()
	_, err := Encode(img, WithTitle("other"))
	require.NoError(t, err)
	assert.False(t, img.CIF.Has(KeyArrayData))
	assert.False(t, img.CIF.Has("_diffrn.id"))
	assert.Equal(t, "frame.cbf", img.Name)
}

func TestEncode_Title(t *testing.T) {
	raw, err := Encode(testImage(), WithTitle("/data/run1/frame_0001.cbf"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\r\ndata_frame_0001\r\n")
}

func TestEncode_NoData(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = Encode(&Image{Name: "x"})
	assert.ErrorIs(t, err, ErrNoData)

	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, &Image{}), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestEncode_InvalidShape(t *testing.T) {
	img := NewImage("bad.cbf", &SampleArray{Rows: 2, Cols: 2, Type: Int32, Samples: []int64{1}})
	_, err := Encode(img)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestDecode_MissingDimension(t *testing.T) {
	raw := bytes.Replace(encoded(t), []byte(KeyFastestDim+": 4"), []byte("X-Binary-Unrelated: 4"), 1)
	_, err := Decode(raw, "detector_a.cbf")

	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "detector_a.cbf", serr.Source)
	assert.Contains(t, err.Error(), "detector_a.cbf")
	assert.Contains(t, err.Error(), KeyFastestDim)
}

func TestDecode_InvalidDimension(t *testing.T) {
	raw := bytes.Replace(encoded(t), []byte(KeySecondDim+": 3"), []byte(KeySecondDim+": 0"), 1)
	_, err := Decode(raw, "zero.cbf")
	assert.ErrorIs(t, err, ErrStructural)
}

func TestDecode_HugeDimensions(t *testing.T) {
	tests := []struct {
		name string
		size string
		want error
	}{
		{"larger than payload", "1000000000", ErrSizeMismatch},
		{"product overflows", "9000000000000000000", ErrStructural},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := bytes.Replace(encoded(t), []byte(KeyFastestDim+": 4"), []byte(KeyFastestDim+": "+tt.size), 1)
			raw = bytes.Replace(raw, []byte(KeySecondDim+": 3"), []byte(KeySecondDim+": "+tt.size), 1)

			var err error
			require.NotPanics(t, func() { _, err = Decode(raw, "huge.cbf") })
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_UnsupportedCompression(t *testing.T) {
	raw := bytes.Replace(encoded(t), []byte(`"x-CBF_BYTE_OFFSET"`), []byte(`"x-CBF_NONE"`), 1)
	_, err := Decode(raw, "none.cbf")

	var cerr *UnsupportedCompressionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "x-CBF_NONE", cerr.Scheme)
	assert.Equal(t, "none.cbf", cerr.Source)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestDecode_CompressionFromContentType(t *testing.T) {
	raw := bytes.Replace(encoded(t), []byte("\r\n     conversions=\"x-CBF_BYTE_OFFSET\""), nil, 1)
	_, err := Decode(raw, "bare.cbf")
	assert.ErrorIs(t, err, ErrUnsupportedCompression)

	raw = bytes.Replace(raw, []byte("application/octet-stream;"),
		[]byte(`application/octet-stream; conversions="x-CBF_BYTE_OFFSET"`), 1)
	img, err := Decode(raw, "param.cbf")
	require.NoError(t, err)
	assert.Equal(t, testImage().Data.Samples, img.Data.Samples)
}

func TestDecode_MissingSentinel(t *testing.T) {
	raw := bytes.Replace(encoded(t), Sentinel, []byte("SENT"), 1)
	_, err := Decode(raw, "nosentinel.cbf")
	assert.ErrorIs(t, err, ErrStructural)
	assert.Contains(t, err.Error(), "sentinel")
}

var binarySizeLine = regexp.MustCompile(`X-Binary-Size: \d+`)

func TestDecode_PayloadPastEnd(t *testing.T) {
	raw := binarySizeLine.ReplaceAll(encoded(t), []byte("X-Binary-Size: 99999"))
	_, err := Decode(raw, "long.cbf")

	var berr *PayloadBoundsError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 99999, berr.Declared)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecode_PayloadTooShort(t *testing.T) {
	raw := binarySizeLine.ReplaceAll(encoded(t), []byte("X-Binary-Size: 1"))
	_, err := Decode(raw, "short.cbf")
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.Contains(t, err.Error(), "short.cbf")
}

func TestDecode_InvalidBinarySize(t *testing.T) {
	raw := binarySizeLine.ReplaceAll(encoded(t), []byte("X-Binary-Size: lots"))
	_, err := Decode(raw, "size.cbf")
	assert.ErrorIs(t, err, ErrStructural)
}

func TestDecode_NoArrayData(t *testing.T) {
	_, err := Decode([]byte("_diffrn.id DS1\n"), "text.cif")
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Reason, KeyArrayData)
}

func TestDecode_UnknownElementTypeAssumesInt32(t *testing.T) {
	raw := bytes.Replace(encoded(t), []byte(`"signed 32-bit integer"`), []byte(`"unsigned 32-bit integer"`), 1)
	var buf bytes.Buffer
	img, err := Decode(raw, "u32.cbf", WithLogger(log.NewLogfmtLogger(&buf)))
	require.NoError(t, err)
	assert.Equal(t, Int32, img.Data.Type)
	assert.Contains(t, buf.String(), "unknown element type")
	assert.Contains(t, buf.String(), "source=u32.cbf")
}

func TestDecode_WrapsToElementWidth(t *testing.T) {
	img := NewImage("wrap.cbf", &SampleArray{Rows: 1, Cols: 3, Type: Int32, Samples: []int64{200, -129, 5}})
	raw, err := Encode(img)
	require.NoError(t, err)
	raw = bytes.ReplaceAll(raw, []byte(Int32.Tag()), []byte(Int8.Tag()))

	got, err := Decode(raw, "wrap.cbf")
	require.NoError(t, err)
	assert.Equal(t, Int8, got.Data.Type)
	assert.Equal(t, []int64{-56, 127, 5}, got.Data.Samples)
}

func TestDecode_Diagnostics(t *testing.T) {
	raw := bytes.Replace(encoded(t), []byte("LITTLE_ENDIAN"), []byte("BIG_ENDIAN"), 1)
	raw = regexp.MustCompile(`Content-MD5: \S+`).ReplaceAll(raw, []byte("Content-MD5: AAAAAAAAAAAAAAAAAAAAAA=="))

	var buf bytes.Buffer
	_, err := Decode(raw, "diag.cbf", WithLogger(log.NewLogfmtLogger(&buf)))
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "unexpected byte order")
	assert.Contains(t, out, "payload digest mismatch")
	assert.Contains(t, out, "frame lacks minimum keys")
	assert.Contains(t, out, "Data type")
}

func TestDecode_LFSeparatedSection(t *testing.T) {
	section := strings.Join([]string{
		cif.BinaryMarker,
		"Content-Type: application/octet-stream;",
		`     conversions="x-CBF_BYTE_OFFSET"`,
		"X-Binary-Size: 3",
		`X-Binary-Element-Type: "signed 16-bit integer"`,
		"X-Binary-Size-Fastest-Dimension: 3",
		"X-Binary-Size-Second-Dimension: 1",
		"",
		string(Sentinel) + "\x01\x01\xff",
		"",
		cif.BinaryMarker + "--",
	}, "\n")
	raw := "_array_data.data\n;\n" + section + "\n;\n"

	img, err := Read(strings.NewReader(raw), "lf.cbf")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 1}, img.Data.Samples)
	assert.Equal(t, Int16, img.Data.Type)
}

func TestDecode_StrictCIF(t *testing.T) {
	raw := append(encoded(t), "_broken 'never closed"...)
	_, err := Decode(raw, "strict.cbf", WithStrictCIF())
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	var syntax *cif.SyntaxError
	assert.ErrorAs(t, err, &syntax)
}

func TestHeader_Entries(t *testing.T) {
	h := NewHeader()
	h.Set("X-Binary-Size", "10")
	h.Set("_diffrn.id", "DS1")
	h.Set("x-binary-id", "1")

	assert.Len(t, h.Entries(""), 3)
	assert.Equal(t, []Entry{{"X-Binary-Size", "10"}, {"x-binary-id", "1"}}, h.Entries("X-BINARY"))

	c := h.Clone()
	c.Set("new", "v")
	assert.False(t, h.Has("new"))
}

func TestElementType(t *testing.T) {
	for _, typ := range []ElementType{Int8, Int16, Int32, Int64} {
		got, ok := ParseElementType(typ.Tag())
		require.True(t, ok, typ)
		assert.Equal(t, typ, got)
		lo, hi := typ.Range()
		assert.Equal(t, lo, typ.Wrap(lo))
		assert.Equal(t, hi, typ.Wrap(hi))
	}
	_, ok := ParseElementType("unsigned 16-bit integer")
	assert.False(t, ok)
	assert.False(t, ElementType(3).Valid())
	assert.Equal(t, int64(-32768), Int16.Wrap(32768))
	assert.Equal(t, 32, Int32.Bits())
	assert.Equal(t, "int16", Int16.String())
}

func TestSampleArray(t *testing.T) {
	a := NewSampleArray(2, 3, Int8)
	a.Set(2, 1, 300)
	assert.Equal(t, int64(44), a.At(2, 1))
	assert.Equal(t, []int64{0, 0, 44}, a.Row(1))
	assert.True(t, a.In(2, 1))
	assert.False(t, a.In(3, 0))
	assert.False(t, a.In(0, -1))
	assert.NoError(t, a.Validate())

	a.Samples[4] = 128
	err := a.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample 4")
}

func TestEncode_SampleOutOfRange(t *testing.T) {
	img := NewImage("range.cbf", &SampleArray{Rows: 1, Cols: 3, Type: Int16, Samples: []int64{1, -40000, 2}})
	_, err := Encode(img)
	assert.ErrorIs(t, err, ErrStructural)
	assert.Contains(t, err.Error(), "sample 1")
}
