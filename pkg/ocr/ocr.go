// Package ocr is the text recognition interface layer.
// To get a concrete reader, use NewTesseract (or bring your own backend).
package ocr

import (
	"github.com/bmharper/cimg/v2"
)

// Result of recognizing one image region
type Result struct {
	Text       string  // raw recognized text, whitespace-trimmed
	Confidence float32 // 0..1
}

// Reader is given an image region, and returns the text it sees.
//
// A recoverable recognition failure is not an error: "no text found" is an
// empty string with confidence 0, and backends never panic or fail for it.
// Calls are independent and safe to make from multiple goroutines at once.
type Reader interface {
	// Close releases the backend (you MUST call this when finished, because
	// backends typically hold C resources)
	Close()

	// ReadText recognizes text in an image region.
	ReadText(img *cimg.Image) Result
}
