// Package cif reads and writes the CIF text syntax used as the header of CBF
// detector frames.
//
// The package has three layers:
//
//   - Tokenizer splits raw text into fields: bare tokens, quoted strings and
//     semicolon-delimited text blocks. Text blocks that begin with the CBF
//     binary section marker are skipped past the closing marker, so binary
//     payload bytes are never mistaken for a terminator.
//   - Parse assembles the fields into a Document: an ordered key/value map
//     plus loop tables.
//   - Document.Render writes a Document back out with a fixed column and
//     line-break policy, so files written twice are byte-identical.
//
// # Tolerance
//
// Malformed input degrades rather than fails. An unterminated quote or text
// block yields the rest of the input as one field, and a key with no value
// after it is dropped. Parse logs these cases through the configured
// go-kit logger; WithStrict turns tokenizer problems into a *SyntaxError.
//
// # Thread Safety
//
// A Document is not safe for concurrent mutation. Independent documents may
// be parsed and rendered concurrently.
package cif
