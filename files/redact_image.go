package files

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"sort"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/sentinelsec/inspector/detect"
	"github.com/sentinelsec/inspector/ocr"
	"github.com/sentinelsec/inspector/similarity"
)

// minMegapixels below which OCR is pointless and images pass through.
const minMegapixels = 0.3

type box struct{ x1, y1, x2, y2 int }

// ImageText runs the OCR pre-stage for an image attachment: decode, the
// resolution gate, the optional text-likelihood gate, then the adapter.
// Gated or failed inputs come back with Used=false and the reason.
func (r *Redactor) ImageText(ctx context.Context, saved *SavedFileInfo) ocr.Output {
	if saved == nil || !ImageExts[saved.Ext] {
		return ocr.Output{Reason: "not_image"}
	}
	if r.OCR == nil {
		return ocr.Output{Reason: "ocr_unavailable"}
	}
	img, err := loadImage(saved.Path)
	if err != nil {
		return ocr.Output{Reason: fmt.Sprintf("image_decode_error: %v", err)}
	}
	b := img.Bounds()
	if float64(b.Dx()*b.Dy())/1e6 < minMegapixels {
		return ocr.Output{Reason: "small_resolution"}
	}
	if r.UseTextGate && !similarity.TextLikely(img) {
		return ocr.Output{Reason: "no_text_likely"}
	}
	return r.OCR.Run(ctx, saved.Path)
}

// redactImage boxes every OCR word that matches a sensitive pattern and
// paints the merged boxes black. Whole-image cover for block patterns like
// key material.
func (r *Redactor) redactImage(saved *SavedFileInfo, out ocr.Output) Outcome {
	if !out.Used {
		return Outcome{Path: saved.Path, Reason: out.Reason}
	}

	img, err := loadImage(saved.Path)
	if err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("image_decode_error: %v", err)}
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	boxes := sensitiveWordBoxes(out.Words)
	if pageWideHit(out.Text) {
		boxes = append(boxes, box{0, 0, width, height})
	}
	if len(boxes) == 0 {
		return Outcome{Path: saved.Path}
	}

	boxes = mergeHorizBoxes(boxes, xGap(width), yTol(height))
	boxes = padBoxes(boxes, 2, width, height)

	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	for _, bx := range boxes {
		rect := image.Rect(bx.x1+b.Min.X, bx.y1+b.Min.Y, bx.x2+b.Min.X, bx.y2+b.Min.Y)
		draw.Draw(dst, rect, image.Black, image.Point{}, draw.Src)
	}

	outPath, encode := encodedOutput(saved)
	f, err := os.Create(outPath)
	if err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("image_create_error: %v", err)}
	}
	defer f.Close()
	if err := encode(f, dst); err != nil {
		os.Remove(outPath)
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("image_encode_error: %v", err)}
	}
	return Outcome{Path: outPath, Performed: true}
}

// encodedOutput picks the output path and encoder. webp has no pure-Go
// encoder, so webp redactions come back as png.
func encodedOutput(saved *SavedFileInfo) (string, func(f *os.File, img image.Image) error) {
	switch saved.Ext {
	case "jpg", "jpeg":
		return redactedPath(saved.Path, ""), func(f *os.File, img image.Image) error {
			return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
		}
	case "webp":
		return redactedPath(saved.Path, ".png"), func(f *os.File, img image.Image) error {
			return png.Encode(f, img)
		}
	default:
		return redactedPath(saved.Path, ""), func(f *os.File, img image.Image) error {
			return png.Encode(f, img)
		}
	}
}

// sensitiveWordBoxes returns pixel boxes for OCR words matching any
// token-level pattern, one box per word at most.
func sensitiveWordBoxes(words []ocr.Word) []box {
	var boxes []box
	for _, w := range words {
		if wordSensitive(w.Text) {
			boxes = append(boxes, box{w.X, w.Y, w.X + w.W, w.Y + w.H})
		}
	}
	return boxes
}

// wordSensitive checks a single OCR token against the pattern table,
// honoring the Luhn gates and skipping block-level patterns.
func wordSensitive(s string) bool {
	norm := detect.Normalize(s)
	for _, span := range detect.Detect(norm) {
		if !detect.PageOnlyLabels[span.Label] {
			return true
		}
	}
	return false
}

// pageWideHit reports whether the full OCR text contains a block pattern
// that demands covering the whole image.
func pageWideHit(text string) bool {
	for label := range detect.PageOnlyLabels {
		if detect.Patterns[label].MatchString(text) {
			return true
		}
	}
	return false
}

func xGap(width int) int {
	if g := width * 2 / 100; g > 12 {
		return g
	}
	return 12
}

func yTol(height int) int {
	if t := height / 100; t > 10 {
		return t
	}
	return 10
}

// mergeHorizBoxes joins adjacent boxes on the same line so values split
// across OCR tokens (emails, account numbers) get one contiguous cover.
func mergeHorizBoxes(boxes []box, xGap, yTol int) []box {
	if len(boxes) == 0 {
		return nil
	}
	sorted := make([]box, len(boxes))
	copy(sorted, boxes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].y1 != sorted[j].y1 {
			return sorted[i].y1 < sorted[j].y1
		}
		return sorted[i].x1 < sorted[j].x1
	})

	merged := []box{sorted[0]}
	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		sameLine := abs(cur.y1-last.y1) <= yTol && abs(cur.y2-last.y2) <= yTol
		near := cur.x1-last.x2 <= xGap
		if sameLine && near {
			last.x1 = min(last.x1, cur.x1)
			last.y1 = min(last.y1, cur.y1)
			last.x2 = max(last.x2, cur.x2)
			last.y2 = max(last.y2, cur.y2)
		} else {
			merged = append(merged, cur)
		}
	}
	return merged
}

func padBoxes(boxes []box, pad, width, height int) []box {
	out := make([]box, 0, len(boxes))
	for _, b := range boxes {
		out = append(out, box{
			x1: max(0, b.x1-pad),
			y1: max(0, b.y1-pad),
			x2: min(width, b.x2+pad),
			y2: min(height, b.y2+pad),
		})
	}
	return out
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
