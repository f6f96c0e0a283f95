package cif

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MinimalHeader(t *testing.T) {
	doc, err := Parse([]byte("_key value\n"))
	require.NoError(t, err)
	assert.Equal(t, "value", doc.Value("_key"))
	assert.Equal(t, []string{"_key"}, doc.Keys())
	assert.Empty(t, doc.Loops())
}

func TestParse_LoopTwoKeysSixValues(t *testing.T) {
	doc, err := Parse([]byte("loop_\n_a\n_b\n1 2 3 4 5 6\n"))
	require.NoError(t, err)
	require.Len(t, doc.Loops(), 1)

	loop := doc.Loops()[0]
	assert.Equal(t, []string{"_a", "_b"}, loop.Keys)
	assert.Equal(t, []Record{
		{"_a": "1", "_b": "2"},
		{"_a": "3", "_b": "4"},
		{"_a": "5", "_b": "6"},
	}, loop.Records)
	assert.Equal(t, 0, doc.Len())
}

func TestParse_LoopPartition(t *testing.T) {
	for k := 1; k <= 4; k++ {
		for n := 1; n <= 5; n++ {
			t.Run(fmt.Sprintf("k=%d,n=%d", k, n), func(t *testing.T) {
				var sb strings.Builder
				sb.WriteString("loop_\n")
				for i := 0; i < k; i++ {
					fmt.Fprintf(&sb, "_col%d\n", i)
				}
				for i := 0; i < k*n; i++ {
					fmt.Fprintf(&sb, "v%d ", i)
				}

				doc, err := Parse([]byte(sb.String()))
				require.NoError(t, err)
				require.Len(t, doc.Loops(), 1)
				loop := doc.Loops()[0]
				require.Len(t, loop.Records, n)
				for _, rec := range loop.Records {
					assert.Len(t, rec, k)
				}
				assert.Equal(t, fmt.Sprintf("v%d", k*n-1), loop.Records[n-1][fmt.Sprintf("_col%d", k-1)])
			})
		}
	}
}

func TestParse_LoopUnderfullIsPadded(t *testing.T) {
	doc, err := Parse([]byte("loop_\n_a\n_b\n_c\n1\n"))
	require.NoError(t, err)
	require.Len(t, doc.Loops(), 1)
	assert.Equal(t, []Record{{"_a": "1", "_b": "?", "_c": "?"}}, doc.Loops()[0].Records)
}

func TestParse_LoopIncompleteTailDropped(t *testing.T) {
	var buf bytes.Buffer
	doc, err := Parse([]byte("loop_ _a _b 1 2 3 4 5"), WithLogger(log.NewLogfmtLogger(&buf)))
	require.NoError(t, err)
	assert.Len(t, doc.Loops()[0].Records, 2)
	assert.Contains(t, buf.String(), "dropping incomplete loop record")
}

func TestParse_LoopEndsAtKey(t *testing.T) {
	doc, err := Parse([]byte("_before x\nloop_ _a _b\n1 2\n3 4\n_after y\n"))
	require.NoError(t, err)
	require.Len(t, doc.Loops(), 1)
	assert.Len(t, doc.Loops()[0].Records, 2)
	assert.Equal(t, []string{"_before", "_after"}, doc.Keys())
	assert.False(t, doc.Has("_a"))
}

func TestParse_LoopEndsAtReservedWord(t *testing.T) {
	doc, err := Parse([]byte("LOOP_ _a 1 2\ndata_next\n_k v\nloop_ _b 7 stop_ _z 9"))
	require.NoError(t, err)
	require.Len(t, doc.Loops(), 2)
	assert.Equal(t, []string{"1", "2"}, doc.Loops()[0].Column("_a"))
	assert.Equal(t, []string{"7"}, doc.Loops()[1].Column("_b"))
	assert.Equal(t, "v", doc.Value("_k"))
	assert.Equal(t, "9", doc.Value("_z"))
}

func TestParse_LoopWithoutKeys(t *testing.T) {
	doc, err := Parse([]byte("loop_\n1 2 3\n"))
	require.NoError(t, err)
	require.Len(t, doc.Loops(), 1)
	assert.Empty(t, doc.Loops()[0].Records)
}

func TestParse_KeyWithoutValueDropped(t *testing.T) {
	doc, err := Parse([]byte("_lonely\n_b value\n_trailing"))
	require.NoError(t, err)
	assert.False(t, doc.Has("_lonely"))
	assert.False(t, doc.Has("_trailing"))
	assert.Equal(t, "value", doc.Value("_b"))
}

func TestParse_EmptyValueBecomesUnknown(t *testing.T) {
	doc, err := Parse([]byte("_a ''\n_b c\n"))
	require.NoError(t, err)
	assert.Equal(t, Unknown, doc.Value("_a"))
	assert.Equal(t, "c", doc.Value("_b"))
}

func TestParse_QuotedUnderscoreIsValue(t *testing.T) {
	doc, err := Parse([]byte("_a '_not_a_key'\n_b \"loop_\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "_not_a_key", doc.Value("_a"))
	assert.Equal(t, "loop_", doc.Value("_b"))
	assert.Empty(t, doc.Loops())
}

func TestParse_ReinsertKeepsPosition(t *testing.T) {
	doc, err := Parse([]byte("_a 1\n_b 2\n_a 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"_a", "_b"}, doc.Keys())
	assert.Equal(t, "3", doc.Value("_a"))
}

func TestParse_TextValue(t *testing.T) {
	doc, err := Parse([]byte("_note\n;\nfirst line\nsecond line\n;\n_x 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", doc.Value("_note"))
	assert.Equal(t, "1", doc.Value("_x"))
}

func TestParse_UnterminatedQuote(t *testing.T) {
	input := []byte("_a 'unterminated value\n")

	var buf bytes.Buffer
	doc, err := Parse(input, WithLogger(log.NewLogfmtLogger(&buf)))
	require.NoError(t, err)
	assert.Equal(t, "unterminated value", doc.Value("_a"))
	assert.Contains(t, buf.String(), "best-effort CIF field")

	_, err = Parse(input, WithStrict())
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 3, syntaxErr.Offset)
	assert.ErrorIs(t, err, ErrUnterminatedQuote)
}

func TestParse_StripComments(t *testing.T) {
	input := "# leading comment\n_a b # trailing\n_c d\n"

	doc, err := Parse([]byte(input), WithStripComments())
	require.NoError(t, err)
	assert.Equal(t, []string{"_a", "_c"}, doc.Keys())
	assert.Equal(t, "b", doc.Value("_a"))

	// Without stripping, comment words are ordinary fields.
	doc, err = Parse([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, "b", doc.Value("_a"))
	assert.Equal(t, "d", doc.Value("_c"))
}

func TestParse_StripCommentsWarnsOnLongLine(t *testing.T) {
	var buf bytes.Buffer
	long := "_long " + strings.Repeat("x", 90) + "\n"
	_, err := Parse([]byte(long), WithStripComments(), WithLogger(log.NewLogfmtLogger(&buf)))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "CIF line too long")
}

func TestDocument_ExistsInLoop(t *testing.T) {
	doc, err := Parse([]byte("_a ?\n_b .\n_c val\nloop_ _x _y 1 2"))
	require.NoError(t, err)
	assert.False(t, doc.Exists("_a"))
	assert.False(t, doc.Exists("_b"))
	assert.True(t, doc.Exists("_c"))
	assert.False(t, doc.Exists("_missing"))
	assert.True(t, doc.ExistsInLoop("_y"))
	assert.False(t, doc.ExistsInLoop("_c"))
}
