package files

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sentinelsec/inspector/detect"
)

const (
	defaultPageWidth  = 612 // US Letter, points
	defaultPageHeight = 792
	rectPadPt         = 1.5
)

// pdfWord is a run of adjacent text fragments forming one visual token.
type pdfWord struct {
	text string
	x0   float64
	y0   float64
	x1   float64
	y1   float64
	size float64
	x    float64 // pen position of the first fragment
	y    float64
}

// redactPDF rebuilds the document from its text layer with sensitive words
// replaced by opaque rectangles. Pages whose text layer is empty cannot be
// inspected without a rasterizer and pass through as blank pages only when
// the rest of the document needed redaction; a fully clean document is
// returned untouched.
func (r *Redactor) redactPDF(ctx context.Context, saved *SavedFileInfo) Outcome {
	f, reader, err := pdf.Open(saved.Path)
	if err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("pdf_open_error: %v", err)}
	}
	defer f.Close()

	var pages []pdfPage
	anyRedacted := false

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		out := pdfPage{width: defaultPageWidth, height: defaultPageHeight}
		if page.V.IsNull() {
			pages = append(pages, out)
			continue
		}
		out.width, out.height = mediaBoxSize(page)

		words := groupPDFWords(page.Content().Text)
		fullText := joinPDFWords(words)

		if pageOnlyPDFHit(fullText) {
			// Block patterns black out the entire page.
			out.boxes = append(out.boxes, pdfBox{0, 0, out.width, out.height})
			anyRedacted = true
			pages = append(pages, out)
			continue
		}

		for _, w := range words {
			if wordSensitive(w.text) {
				out.boxes = append(out.boxes, pdfBox{
					x0: w.x0 - rectPadPt,
					y0: w.y0 - rectPadPt,
					x1: w.x1 + rectPadPt,
					y1: w.y1 + rectPadPt,
				})
				anyRedacted = true
				continue
			}
			out.texts = append(out.texts, pdfTextRun{x: w.x, y: w.y, size: w.size, s: w.text})
		}
		pages = append(pages, out)
	}

	if !anyRedacted {
		return Outcome{Path: saved.Path}
	}

	outPath := redactedPath(saved.Path, "")
	if err := writePDF(outPath, pages); err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("pdf_write_error: %v", err)}
	}
	return Outcome{Path: outPath, Performed: true}
}

func pageOnlyPDFHit(text string) bool {
	for label := range detect.PageOnlyLabels {
		if detect.Patterns[label].MatchString(text) {
			return true
		}
	}
	return false
}

// mediaBoxSize resolves the page dimensions, walking up the page tree for
// inherited MediaBox entries.
func mediaBoxSize(page pdf.Page) (float64, float64) {
	v := page.V
	for depth := 0; depth < 16 && !v.IsNull(); depth++ {
		mb := v.Key("MediaBox")
		if !mb.IsNull() && mb.Len() == 4 {
			w := mb.Index(2).Float64() - mb.Index(0).Float64()
			h := mb.Index(3).Float64() - mb.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageWidth, defaultPageHeight
}

// groupPDFWords stitches per-glyph text fragments into words. Fragments on
// the same baseline within a small gap of the previous fragment belong to
// the same word.
func groupPDFWords(frags []pdf.Text) []pdfWord {
	var words []pdfWord
	var cur *pdfWord

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.text) != "" {
			words = append(words, *cur)
		}
		cur = nil
	}

	for _, t := range frags {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = 12
		}
		if t.S == " " {
			flush()
			continue
		}
		if cur != nil {
			sameLine := math.Abs(t.Y-cur.y) < 0.5
			gap := t.X - cur.x1
			if sameLine && gap > -0.5 && gap < 0.3*size {
				cur.text += t.S
				cur.x1 = math.Max(cur.x1, t.X+t.W)
				cur.y1 = math.Max(cur.y1, t.Y+0.83*size)
				continue
			}
			flush()
		}
		cur = &pdfWord{
			text: t.S,
			x0:   t.X,
			y0:   t.Y - 0.22*size,
			x1:   t.X + t.W,
			y1:   t.Y + 0.83*size,
			size: size,
			x:    t.X,
			y:    t.Y,
		}
	}
	flush()
	return words
}

// joinPDFWords renders the page text for block-pattern matching, inserting
// newlines at baseline changes.
func joinPDFWords(words []pdfWord) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	prevY := words[0].y
	for i, w := range words {
		if i > 0 {
			if math.Abs(w.y-prevY) > 0.5 {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(w.text)
		prevY = w.y
	}
	return b.String()
}
