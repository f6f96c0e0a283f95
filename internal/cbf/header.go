package cbf

import (
	"strings"

	"github.com/ironsheep/cbf-tools-mcp/internal/cif"
)

// Header is the ordered set of key/value pairs describing a frame: the CIF
// data names of the file followed by the MIME keys of its binary section.
type Header struct {
	m *cif.Document
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{m: cif.NewDocument()}
}

// Set stores value under key. New keys go to the end.
func (h *Header) Set(key, value string) { h.m.Set(key, value) }

// Get returns the value stored under key.
func (h *Header) Get(key string) (string, bool) { return h.m.Get(key) }

// Value returns the value stored under key, or "".
func (h *Header) Value(key string) string { return h.m.Value(key) }

// Has reports whether key is present.
func (h *Header) Has(key string) bool { return h.m.Has(key) }

// Delete removes key.
func (h *Header) Delete(key string) bool { return h.m.Delete(key) }

// Keys returns the keys in insertion order.
func (h *Header) Keys() []string { return h.m.Keys() }

// Len returns the number of keys.
func (h *Header) Len() int { return h.m.Len() }

// Update stores every entry of m; new keys are appended in sorted order.
func (h *Header) Update(m map[string]string) { h.m.Update(m) }

// Clone returns an independent copy.
func (h *Header) Clone() *Header { return &Header{m: h.m.Clone()} }

// Entry is one header key/value pair.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entries returns the pairs in order, keeping only keys with the given
// prefix (case-insensitive). An empty prefix keeps all.
func (h *Header) Entries(prefix string) []Entry {
	prefix = strings.ToLower(prefix)
	out := make([]Entry, 0, h.Len())
	for _, k := range h.Keys() {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(k), prefix) {
			continue
		}
		out = append(out, Entry{Key: k, Value: h.Value(k)})
	}
	return out
}
