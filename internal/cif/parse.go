package cif

import (
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// MaxLineLength is the longest CIF line the format recommends.
const MaxLineLength = 80

// SyntaxError is returned by Parse in strict mode when a field could only be
// read on a best-effort basis.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

type parseConfig struct {
	logger        log.Logger
	strict        bool
	stripComments bool
}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

// WithLogger sends parse diagnostics to logger.
func WithLogger(logger log.Logger) ParseOption {
	return func(c *parseConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStrict makes unterminated quotes and text fields an error.
func WithStrict() ParseOption {
	return func(c *parseConfig) { c.strict = true }
}

// WithStripComments removes '#' comments before tokenizing. It must not be
// used on CBF files, whose binary section may contain '#' bytes.
func WithStripComments() ParseOption {
	return func(c *parseConfig) { c.stripComments = true }
}

// Parse reads CIF text into a Document.
//
// Fields are paired positionally: a data name followed by a value field sets
// that key. A data name followed by another data name (or by nothing) is
// dropped. An empty value becomes Unknown. Loops are read first and removed
// from the field list before pairing.
//
// Returns:
//   - *Document: The parsed document. Never nil when err is nil.
//   - error: Only in strict mode, a *SyntaxError for the first malformed field.
func Parse(text []byte, opts ...ParseOption) (*Document, error) {
	cfg := parseConfig{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	src := string(text)
	if cfg.stripComments {
		src = stripComments(src, cfg.logger)
	}

	var fields []Field
	tok := NewTokenizer(src)
	for {
		s, ok := tok.Next()
		if !ok {
			break
		}
		if s.Err != nil {
			if cfg.strict {
				return nil, &SyntaxError{Offset: s.Field.Offset, Err: s.Err}
			}
			level.Warn(cfg.logger).Log("msg", "best-effort CIF field", "offset", s.Field.Offset, "err", s.Err)
		}
		fields = append(fields, s.Field)
	}

	doc := NewDocument()
	consumed := make([]bool, len(fields))
	for i, f := range fields {
		if f.Kind != Bare || !strings.EqualFold(f.Value, "loop_") {
			continue
		}
		loop, n := readLoop(fields, i, cfg.logger)
		doc.AddLoop(loop)
		for j := i; j < i+n; j++ {
			consumed[j] = true
		}
	}

	rest := fields[:0:0]
	for i, f := range fields {
		if !consumed[i] {
			rest = append(rest, f)
		}
	}

	for i := 0; i+1 < len(rest); i++ {
		key, val := rest[i], rest[i+1]
		if val.Value == "" {
			val.Value = Unknown
		}
		if key.IsKey() && !val.IsKey() {
			doc.Set(key.Value, val.Value)
		}
	}

	return doc, nil
}

// readLoop reads the loop whose loop_ keyword is fields[start]. It returns the
// loop and the number of fields it spans, keyword included.
func readLoop(fields []Field, start int, logger log.Logger) (Loop, int) {
	i := start + 1
	var keys []string
	for i < len(fields) && fields[i].IsKey() {
		keys = append(keys, fields[i].Value)
		i++
	}

	var data []string
	for i < len(fields) {
		f := fields[i]
		if f.Value == "" || f.IsKey() || f.IsReserved() {
			break
		}
		data = append(data, f.Value)
		i++
	}

	loop := NewLoop(keys...)
	switch {
	case len(keys) == 0:
		level.Warn(logger).Log("msg", "loop without column keys", "offset", fields[start].Offset)
	case len(data) < len(keys):
		// Fewer values than columns: one record, padded with Unknown.
		loop.Append(data...)
	default:
		n := len(data) / len(keys)
		for r := 0; r < n; r++ {
			loop.Append(data[r*len(keys) : (r+1)*len(keys)]...)
		}
		if extra := len(data) % len(keys); extra != 0 {
			level.Warn(logger).Log("msg", "dropping incomplete loop record", "offset", fields[start].Offset, "values", extra)
		}
	}
	return loop, i - start
}

// stripComments removes everything from '#' to the end of each line. Lines
// holding a '#' and non-ASCII bytes are dropped whole.
func stripComments(src string, logger log.Logger) string {
	var sb strings.Builder
	sb.Grow(len(src))
	for _, line := range strings.SplitAfter(src, "\n") {
		pos := strings.IndexByte(line, '#')
		if pos < 0 {
			sb.WriteString(line)
			if len(trim(line)) > MaxLineLength {
				level.Warn(logger).Log("msg", "CIF line too long", "length", len(trim(line)), "line", trim(line))
			}
			continue
		}
		if pos > MaxLineLength {
			level.Warn(logger).Log("msg", "CIF line too long", "length", pos, "line", trim(line))
		}
		if !isASCII(line) {
			level.Debug(logger).Log("msg", "dropping non-ASCII comment line")
			continue
		}
		sb.WriteString(line[:pos])
		sb.WriteByte('\n')
	}
	return sb.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
