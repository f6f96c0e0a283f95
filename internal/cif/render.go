package cif

import (
	"io"
	"path/filepath"
	"strings"
)

// DefaultPreamble is written as comment lines at the top of rendered files.
var DefaultPreamble = []string{"Generated by cbf-tools-mcp"}

const (
	keyValueGap    = "        "
	maxLoopLineLen = 78
)

type renderConfig struct {
	title    string
	sep      string
	preamble []string
}

// RenderOption configures Render.
type RenderOption func(*renderConfig)

// WithTitle derives the data block name from a file name: its base name
// without the extension. _chemical_name_common, when set, takes precedence.
func WithTitle(filename string) RenderOption {
	return func(c *renderConfig) { c.title = filename }
}

// WithLineSeparator sets the line separator, "\n" by default. CBF files are
// written with "\r\n".
func WithLineSeparator(sep string) RenderOption {
	return func(c *renderConfig) { c.sep = sep }
}

// WithPreamble replaces DefaultPreamble. Each line is prefixed with "# ".
func WithPreamble(lines ...string) RenderOption {
	return func(c *renderConfig) { c.preamble = lines }
}

// Render writes the document as CIF text.
//
// Keys appear in document order. A value of several words is single-quoted,
// or double-quoted when it holds a single quote followed by a blank. A value
// holding a line break, or one that no quote character can enclose, is
// written as a semicolon text field. A key and value that would not fit in 80
// columns go on separate lines. Loop rows are wrapped so that no line exceeds
// 78 columns.
//
// Leading and trailing blanks are not preserved. An empty value is written as
// an empty quoted string and reads back as "?", the CIF placeholder for an
// unknown value.
func (d *Document) Render(opts ...RenderOption) []byte {
	cfg := renderConfig{sep: "\n", preamble: DefaultPreamble}
	for _, opt := range opts {
		opt(&cfg)
	}

	lines := make([]string, 0, len(cfg.preamble)+1+len(d.keys))
	for _, l := range cfg.preamble {
		lines = append(lines, "# "+l)
	}
	lines = append(lines, "data_"+d.blockName(cfg.title))

	for _, key := range d.keys {
		value := d.values[key]
		token, ok := formatValue(value)
		if !ok {
			lines = append(lines, key, ";", value, ";", "")
			continue
		}
		if line := key + keyValueGap + token; len(line) > MaxLineLength {
			lines = append(lines, key, token)
		} else {
			lines = append(lines, line)
		}
	}

	for _, loop := range d.loops {
		lines = append(lines, "loop_ ")
		for _, k := range loop.Keys {
			lines = append(lines, " "+k)
		}
		for _, rec := range loop.Records {
			line := " "
			for _, k := range loop.Keys {
				value := rec[k]
				token, ok := formatValue(value)
				if !ok {
					lines = append(lines, line, ";", value, ";")
					line = " "
					continue
				}
				if len(line)+len(token) > maxLoopLineLen {
					lines = append(lines, line)
					line = " " + token
				} else {
					line += " " + token
				}
			}
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}

	return []byte(strings.Join(lines, cfg.sep))
}

// WriteTo renders the document with default options.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.Render())
	return int64(n), err
}

func (d *Document) blockName(filename string) string {
	if name, ok := d.values["_chemical_name_common"]; ok {
		if words := strings.Fields(name); len(words) > 0 {
			return words[0]
		}
		return ""
	}
	if filename == "" {
		return ""
	}
	base := filepath.Base(strings.TrimSpace(filename))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// formatValue quotes value when it holds several words or would otherwise be
// read back as something other than a plain value. It reports false when
// value must go in a text field instead.
func formatValue(value string) (string, bool) {
	if strings.Contains(value, "\n") {
		return "", false
	}
	if len(strings.Fields(value)) <= 1 && !needsQuotes(value) {
		return value, true
	}
	for _, q := range []byte{'\'', '"'} {
		if !closesEarly(value, q) {
			return string(q) + value + string(q), true
		}
	}
	return "", false
}

// closesEarly reports whether a q inside value would end a q-quoted string.
func closesEarly(value string, q byte) bool {
	for i := 0; i+1 < len(value); i++ {
		if value[i] == q && isBlank(value[i+1]) {
			return true
		}
	}
	return false
}

func needsQuotes(value string) bool {
	if trim(value) == "" {
		return true
	}
	switch value[0] {
	case '_', '#', ';', '\'', '"':
		return true
	}
	return isReservedWord(value)
}
