// Package ocr extracts text and word geometry from images so the redactors
// can locate sensitive regions.
package ocr

import "context"

// Word is one recognized token with its pixel bounding box.
type Word struct {
	Text string
	X    int
	Y    int
	W    int
	H    int
}

// Output is the result of running OCR on one image.
type Output struct {
	Text   string
	Words  []Word
	Used   bool
	Reason string // engine identifier, or why OCR was skipped
}

// Adapter turns an image file into text. Implementations must be safe for
// concurrent use.
type Adapter interface {
	Run(ctx context.Context, imagePath string) Output
}

// Disabled is the no-op adapter. Deployments without an OCR engine keep
// the rest of the pipeline running on prompt text alone.
type Disabled struct{}

func (Disabled) Run(ctx context.Context, imagePath string) Output {
	return Output{Reason: "ocr_disabled"}
}
