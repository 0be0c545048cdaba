// Package jpegverify is a test-only JPEG well-formedness check: it
// decodes a buffer and discards the result, confirming that the buffer
// is not merely SOI/EOI-bracketed but actually decodable. No other
// package imports it; only its own tests exercise it. This never runs on-device
// and does not perform any on-device image processing (spec.md §1
// Non-goal): it exists only under go test.
//
// The retrieved reference tree carries a fragment of the standard
// library's image/jpeg decoder (scan.go) without the rest of that
// package's files (reader.go, huffman.go, idct.go); rather than
// reconstruct an incomplete decoder from one file, this package calls
// the real image/jpeg package directly, which is the same decoder that
// fragment was taken from.
package jpegverify

import (
	"bytes"
	"image/jpeg"
)

// Decodable reports whether data decodes as a well-formed JPEG image.
func Decodable(data []byte) bool {
	_, err := jpeg.Decode(bytes.NewReader(data))
	return err == nil
}
