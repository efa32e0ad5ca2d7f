// Package similarity scores attachments against the admin image blocklist.
package similarity

import (
	"image"

	"golang.org/x/image/draw"
)

const (
	compareSize = 512
	windowSize  = 8

	c1 = (0.01 * 255) * (0.01 * 255)
	c2 = (0.03 * 255) * (0.03 * 255)
)

// SSIM computes the mean structural similarity between two images after
// scaling both to a common grayscale rendition. 1.0 means identical
// structure, values near 0 mean unrelated content.
func SSIM(a, b image.Image) float64 {
	ga := toGray(a, compareSize, compareSize)
	gb := toGray(b, compareSize, compareSize)

	var sum float64
	var n int
	for y := 0; y+windowSize <= compareSize; y += windowSize {
		for x := 0; x+windowSize <= compareSize; x += windowSize {
			sum += windowSSIM(ga, gb, x, y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func windowSSIM(a, b *image.Gray, x0, y0 int) float64 {
	var meanA, meanB float64
	for y := y0; y < y0+windowSize; y++ {
		for x := x0; x < x0+windowSize; x++ {
			meanA += float64(a.GrayAt(x, y).Y)
			meanB += float64(b.GrayAt(x, y).Y)
		}
	}
	n := float64(windowSize * windowSize)
	meanA /= n
	meanB /= n

	var varA, varB, cov float64
	for y := y0; y < y0+windowSize; y++ {
		for x := x0; x < x0+windowSize; x++ {
			da := float64(a.GrayAt(x, y).Y) - meanA
			db := float64(b.GrayAt(x, y).Y) - meanB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	varA /= n - 1
	varB /= n - 1
	cov /= n - 1

	num := (2*meanA*meanB + c1) * (2*cov + c2)
	den := (meanA*meanA + meanB*meanB + c1) * (varA + varB + c2)
	return num / den
}

// toGray scales img to w x h and collapses it to 8-bit grayscale.
func toGray(img image.Image, w, h int) *image.Gray {
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	gray := image.NewGray(scaled.Bounds())
	draw.Draw(gray, gray.Bounds(), scaled, image.Point{}, draw.Src)
	return gray
}
