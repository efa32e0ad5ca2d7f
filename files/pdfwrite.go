package files

import (
	"bytes"
	"fmt"
	"os"
)

// pdfPage is one output page: surviving text runs plus redaction boxes,
// both in PDF user space (origin bottom-left, points).
type pdfPage struct {
	width  float64
	height float64
	texts  []pdfTextRun
	boxes  []pdfBox
}

type pdfTextRun struct {
	x, y, size float64
	s          string
}

type pdfBox struct {
	x0, y0, x1, y1 float64
}

// writePDF emits a single-generation PDF 1.4 document. One shared Helvetica
// font serves all text runs; glyphs outside Latin-1 degrade to '?'.
func writePDF(path string, pages []pdfPage) error {
	var buf bytes.Buffer
	offsets := []int{0} // object 0 is the free head

	buf.WriteString("%PDF-1.4\n")

	writeObj := func(body string) int {
		id := len(offsets)
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
		return id
	}

	// Object ids are assigned up front so the pages dictionary can name its
	// kids before their bodies are written.
	const (
		catalogID = 1
		pagesID   = 2
		fontID    = 3
	)
	firstPageID := fontID + 1

	writeObj(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID))

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", firstPageID+2*i)
	}
	writeObj(fmt.Sprintf("<< /Type /Pages /Count %d /Kids [%s] >>", len(pages), kids))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for _, p := range pages {
		pageID := len(offsets)
		contentID := pageID + 1
		writeObj(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %.2f %.2f] "+
				"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesID, p.width, p.height, fontID, contentID))

		stream := pageContentStream(p)
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets), catalogID, xrefOffset)

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func pageContentStream(p pdfPage) string {
	var b bytes.Buffer
	for _, box := range p.boxes {
		fmt.Fprintf(&b, "0 g %.2f %.2f %.2f %.2f re f\n",
			box.x0, box.y0, box.x1-box.x0, box.y1-box.y0)
	}
	for _, t := range p.texts {
		fmt.Fprintf(&b, "BT /F1 %.2f Tf %.2f %.2f Td (%s) Tj ET\n",
			t.size, t.x, t.y, escapePDFString(t.s))
	}
	return b.String()
}

// escapePDFString encodes s as a PDF literal string in WinAnsi bytes.
func escapePDFString(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteByte(byte(r))
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r < 32:
			b.WriteByte(' ')
		case r > 255:
			b.WriteByte('?')
		default:
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}
