package cif

import (
	"errors"
	"strings"
)

// BinaryMarker opens and (with two extra dashes) closes a CBF binary section.
const BinaryMarker = "--CIF-BINARY-FORMAT-SECTION--"

// asciiSpace is what separates fields and what is trimmed from field values.
const asciiSpace = " \t\r\n\v\f"

var (
	ErrUnterminatedQuote = errors.New("cif: unterminated quoted string")
	ErrUnterminatedText  = errors.New("cif: unterminated text field")
)

// FieldKind tells how a field was delimited in the source text.
type FieldKind uint8

const (
	// Bare is a run of non-whitespace characters.
	Bare FieldKind = iota
	// Quoted is a single- or double-quoted string.
	Quoted
	// Text is a multi-line field between semicolons at line starts.
	Text
)

func (k FieldKind) String() string {
	switch k {
	case Bare:
		return "bare"
	case Quoted:
		return "quoted"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Field is one lexical unit of CIF text.
type Field struct {
	// Value is the field content without delimiters, trimmed of whitespace
	// for Quoted and Text fields.
	Value string
	Kind  FieldKind
	// Offset is the byte offset of the field's first character (including
	// any opening delimiter) in the tokenized text.
	Offset int
}

// IsKey reports whether f is a data name such as "_array_data.data".
// Quoted and text fields are always values.
func (f Field) IsKey() bool {
	return f.Kind == Bare && strings.HasPrefix(f.Value, "_")
}

// IsReserved reports whether f is one of the CIF reserved words that end a
// loop's data: loop_, stop_, global_, or a data_/save_ block header.
func (f Field) IsReserved() bool {
	return f.Kind == Bare && isReservedWord(f.Value)
}

func isReservedWord(s string) bool {
	lower := strings.ToLower(s)
	switch lower {
	case "loop_", "stop_", "global_":
		return true
	}
	return strings.HasPrefix(lower, "data_") || strings.HasPrefix(lower, "save_")
}

// Scan is the result of reading one field. Err is non-nil when the field was
// produced on a best-effort basis, for example from an unterminated quote; the
// Field is still usable and holds the remainder of the input.
type Scan struct {
	Field Field
	Err   error
}

// Tokenizer produces the fields of a CIF text one at a time. It reads the
// input once and cannot be rewound.
type Tokenizer struct {
	input string
	pos   int
}

// NewTokenizer creates a tokenizer over input. Offsets in the returned fields
// index into input.
func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{input: input}
	t.skipSpace()
	return t
}

// Next returns the next field. The boolean is false once the input is
// exhausted.
func (t *Tokenizer) Next() (Scan, bool) {
	if t.pos >= len(t.input) {
		return Scan{}, false
	}

	var s Scan
	switch t.input[t.pos] {
	case '\'', '"':
		s = t.scanQuoted()
	case ';':
		s = t.scanText()
	default:
		s = t.scanBare()
	}
	t.skipSpace()
	return s, true
}

// Tokenize drains a new tokenizer over input.
func Tokenize(input string) []Scan {
	t := NewTokenizer(input)
	var out []Scan
	for {
		s, ok := t.Next()
		if !ok {
			return out
		}
		out = append(out, s)
	}
}

// scanQuoted reads a quoted string. The closing quote must be followed by a
// blank or the end of input; any other quote is part of the value.
func (t *Tokenizer) scanQuoted() Scan {
	start := t.pos
	q := t.input[start]

	for i := start + 1; ; {
		j := strings.IndexByte(t.input[i:], q)
		if j < 0 {
			t.pos = len(t.input)
			return Scan{
				Field: Field{Value: trim(t.input[start+1:]), Kind: Quoted, Offset: start},
				Err:   ErrUnterminatedQuote,
			}
		}
		end := i + j
		if end+1 == len(t.input) || isBlank(t.input[end+1]) {
			t.pos = end + 1
			return Scan{Field: Field{Value: trim(t.input[start+1 : end]), Kind: Quoted, Offset: start}}
		}
		i = end + 1
	}
}

// scanText reads a semicolon text field, terminated by a ';' that directly
// follows a line break.
func (t *Tokenizer) scanText() Scan {
	start := t.pos
	from := start + 1

	if strings.HasPrefix(strings.TrimLeft(t.input[from:], asciiSpace), BinaryMarker) {
		first := strings.Index(t.input[from:], BinaryMarker) + from
		afterFirst := first + len(BinaryMarker)
		if second := strings.Index(t.input[afterFirst:], BinaryMarker); second >= 0 {
			from = afterFirst + second + len(BinaryMarker)
		}
	}

	for from < len(t.input) {
		j := strings.IndexByte(t.input[from:], ';')
		if j < 0 {
			break
		}
		end := from + j
		if c := t.input[end-1]; c == '\n' || c == '\r' {
			t.pos = end + 1
			return Scan{Field: Field{Value: trim(t.input[start+1 : end]), Kind: Text, Offset: start}}
		}
		from = end + 1
	}

	t.pos = len(t.input)
	return Scan{
		Field: Field{Value: trim(t.input[start+1:]), Kind: Text, Offset: start},
		Err:   ErrUnterminatedText,
	}
}

func (t *Tokenizer) scanBare() Scan {
	start := t.pos
	end := start
	for end < len(t.input) && !isSpace(t.input[end]) {
		end++
	}
	t.pos = end
	return Scan{Field: Field{Value: t.input[start:end], Kind: Bare, Offset: start}}
}

func (t *Tokenizer) skipSpace() {
	for t.pos < len(t.input) && isSpace(t.input[t.pos]) {
		t.pos++
	}
}

func isSpace(c byte) bool {
	return strings.IndexByte(asciiSpace, c) >= 0
}

// isBlank reports whether c may follow a closing quote.
func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func trim(s string) string {
	return strings.Trim(s, asciiSpace)
}
