// Package cbf reads and writes Crystallographic Binary Files.
//
// A CBF file is a CIF text document whose _array_data.data field holds a
// MIME-like binary section: a few "Key: value" lines describing the frame,
// a blank line, the 4-byte sentinel 0C 1A 04 D5, and the pixel samples
// compressed with the byte-offset scheme (see package byteoffset).
//
// # Reading
//
// Read merges every CIF key and every MIME line into one ordered Header,
// validates the dimensions and the compression scheme, locates the payload
// after the sentinel and decodes it into a SampleArray:
//
//	img, err := cbf.ReadFile(afero.NewOsFs(), "frame_0001.cbf")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(img.Data.Cols, img.Data.Rows, img.Data.At(10, 20))
//
// # Writing
//
// Write rebuilds the binary section from the samples on every call; MIME
// keys in the Header are never copied back. Header keys that are CIF data
// names go into the CIF document, and free-form detector keys are stored as
// "# key value" lines in _array_data.header_contents.
//
// # Errors
//
// Malformed files produce a *StructuralError, an unknown compression scheme
// an *UnsupportedCompressionError, and a payload that does not match its
// declared size an error matching byteoffset.ErrSizeMismatch. All of them
// name the source they were read from.
package cbf
