package similarity

import (
	"image"
	"strings"
)

// NearTextless reports whether OCR text is short enough to treat the image
// as a picture rather than a document. Only such images are eligible for
// the blocklist comparison.
func NearTextless(ocrText string) bool {
	return len([]rune(strings.TrimSpace(ocrText))) < 3
}

const (
	gateSize = 256
	// Fraction of strong-edge pixels above which an image is considered
	// likely to contain rendered text.
	edgeDensityThreshold = 0.035
	edgeMagnitude        = 120.0
)

// TextLikely estimates whether an image contains rendered text by measuring
// Sobel edge density on a downscaled grayscale rendition. Screenshots and
// document scans produce dense, high-contrast edges; photos mostly do not.
// Used as an optional pre-filter before running OCR.
func TextLikely(img image.Image) bool {
	return EdgeDensity(img) >= edgeDensityThreshold
}

// EdgeDensity returns the fraction of pixels whose Sobel gradient magnitude
// exceeds a fixed cutoff.
func EdgeDensity(img image.Image) float64 {
	g := toGray(img, gateSize, gateSize)

	strong := 0
	total := 0
	for y := 1; y < gateSize-1; y++ {
		for x := 1; x < gateSize-1; x++ {
			gx := -int(g.GrayAt(x-1, y-1).Y) + int(g.GrayAt(x+1, y-1).Y) +
				-2*int(g.GrayAt(x-1, y).Y) + 2*int(g.GrayAt(x+1, y).Y) +
				-int(g.GrayAt(x-1, y+1).Y) + int(g.GrayAt(x+1, y+1).Y)
			gy := -int(g.GrayAt(x-1, y-1).Y) - 2*int(g.GrayAt(x, y-1).Y) - int(g.GrayAt(x+1, y-1).Y) +
				int(g.GrayAt(x-1, y+1).Y) + 2*int(g.GrayAt(x, y+1).Y) + int(g.GrayAt(x+1, y+1).Y)
			if float64(gx*gx+gy*gy) >= edgeMagnitude*edgeMagnitude {
				strong++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(strong) / float64(total)
}
