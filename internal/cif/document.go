package cif

import (
	"sort"
)

// Unknown is the CIF placeholder for a value that is not given.
const Unknown = "?"

// Document is a CIF data block: data names mapped to values in first-insertion
// order, plus any number of loop tables.
//
// Re-setting an existing key changes its value but not its position.
type Document struct {
	keys   []string
	values map[string]string
	loops  []Loop
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]string)}
}

// Set stores value under key, appending key to the order if it is new.
func (d *Document) Set(key, value string) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Value returns the value stored under key, or "" if there is none.
func (d *Document) Value(key string) string {
	return d.values[key]
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (d *Document) Delete(key string) bool {
	if _, ok := d.values[key]; !ok {
		return false
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in document order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// Update stores every entry of m. Keys already present keep their position;
// new keys are appended in lexicographic order.
func (d *Document) Update(m map[string]string) {
	fresh := make([]string, 0, len(m))
	for k, v := range m {
		if _, ok := d.values[k]; ok {
			d.values[k] = v
			continue
		}
		fresh = append(fresh, k)
	}
	sort.Strings(fresh)
	for _, k := range fresh {
		d.Set(k, m[k])
	}
}

// Exists reports whether key is present with a meaningful value: not empty
// and not starting with the CIF placeholders "?" or ".".
func (d *Document) Exists(key string) bool {
	v, ok := d.values[key]
	if !ok || v == "" {
		return false
	}
	return v[0] != '?' && v[0] != '.'
}

// Loops returns the document's loop tables in the order they were added.
func (d *Document) Loops() []Loop {
	return d.loops
}

// AddLoop appends a loop table.
func (d *Document) AddLoop(l Loop) {
	d.loops = append(d.loops, l)
}

// ExistsInLoop reports whether any loop has key as a column.
func (d *Document) ExistsInLoop(key string) bool {
	for _, l := range d.loops {
		if l.HasKey(key) {
			return true
		}
	}
	return false
}

// Record is one row of a loop, keyed by column name.
type Record map[string]string

// Loop is a CIF table: fixed column keys and rows holding a value for every
// column.
type Loop struct {
	Keys    []string
	Records []Record
}

// NewLoop creates a loop with the given columns and no rows.
func NewLoop(keys ...string) Loop {
	return Loop{Keys: append([]string(nil), keys...)}
}

// Append adds a row from values given in column order. Missing trailing
// values are filled with Unknown; extra values are ignored.
func (l *Loop) Append(values ...string) {
	rec := make(Record, len(l.Keys))
	for i, k := range l.Keys {
		if i < len(values) {
			rec[k] = values[i]
		} else {
			rec[k] = Unknown
		}
	}
	l.Records = append(l.Records, rec)
}

// HasKey reports whether key is one of the loop's columns.
func (l Loop) HasKey(key string) bool {
	for _, k := range l.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Column returns the values of one column in row order.
func (l Loop) Column(key string) []string {
	if !l.HasKey(key) {
		return nil
	}
	out := make([]string, len(l.Records))
	for i, r := range l.Records {
		out[i] = r[key]
	}
	return out
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{
		keys:   append([]string(nil), d.keys...),
		values: make(map[string]string, len(d.values)),
		loops:  make([]Loop, 0, len(d.loops)),
	}
	for k, v := range d.values {
		c.values[k] = v
	}
	for _, l := range d.loops {
		cl := NewLoop(l.Keys...)
		for _, r := range l.Records {
			rec := make(Record, len(r))
			for k, v := range r {
				rec[k] = v
			}
			cl.Records = append(cl.Records, rec)
		}
		c.loops = append(c.loops, cl)
	}
	return c
}
