package files

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sentinelsec/inspector/detect"
	"github.com/sentinelsec/inspector/mask"
)

// detectionPath derives the output name for masked document renditions:
// report.docx -> report.detection.docx
func detectionPath(original string) string {
	ext := filepath.Ext(original)
	return strings.TrimSuffix(original, ext) + ".detection" + ext
}

// redactedPath derives the output name for raster/PDF redactions:
// scan.png -> scan.redacted.png
func redactedPath(original, newExt string) string {
	ext := filepath.Ext(original)
	if newExt == "" {
		newExt = ext
	}
	return strings.TrimSuffix(original, ext) + ".redacted" + newExt
}

// maskText replaces every detected span in s with its label token.
// Returns the rewritten text and whether anything matched.
func maskText(s string) (string, bool) {
	spans := detect.DetectAll(s)
	if len(spans) == 0 {
		return s, false
	}
	return mask.ByEntities(s, spans), true
}

// redactPlain masks txt/csv files line-for-line in one pass over the whole
// content, so multi-line hits like key blocks are caught too.
func redactPlain(saved *SavedFileInfo) Outcome {
	data, err := os.ReadFile(saved.Path)
	if err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("plain_read_error: %v", err)}
	}

	masked, changed := maskText(string(data))
	if !changed {
		return Outcome{Path: saved.Path}
	}

	out := detectionPath(saved.Path)
	if err := os.WriteFile(out, []byte(masked), 0o644); err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("plain_write_error: %v", err)}
	}
	return Outcome{Path: out, Performed: true}
}

// officeTargets picks the zip entries whose text nodes get rewritten.
// docx stores visible text in <w:t>, pptx in <a:t>.
func officeTargets(ext, name string) (tag string, ok bool) {
	switch ext {
	case "docx":
		if name == "word/document.xml" ||
			(strings.HasPrefix(name, "word/header") && strings.HasSuffix(name, ".xml")) ||
			(strings.HasPrefix(name, "word/footer") && strings.HasSuffix(name, ".xml")) {
			return "w:t", true
		}
	case "pptx":
		if (strings.HasPrefix(name, "ppt/slides/slide") ||
			strings.HasPrefix(name, "ppt/notesSlides/notesSlide")) &&
			strings.HasSuffix(name, ".xml") {
			return "a:t", true
		}
	}
	return "", false
}

// redactOffice rewrites the text nodes of a docx/pptx archive, copying all
// other entries through untouched.
func redactOffice(saved *SavedFileInfo) Outcome {
	r, err := zip.OpenReader(saved.Path)
	if err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("office_open_error: %v", err)}
	}
	defer r.Close()

	out := detectionPath(saved.Path)
	f, err := os.Create(out)
	if err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("office_create_error: %v", err)}
	}
	defer f.Close()

	w := zip.NewWriter(f)
	anyChanged := false

	for _, entry := range r.File {
		rc, err := entry.Open()
		if err != nil {
			w.Close()
			os.Remove(out)
			return Outcome{Path: saved.Path, Reason: fmt.Sprintf("office_entry_error: %v", err)}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			w.Close()
			os.Remove(out)
			return Outcome{Path: saved.Path, Reason: fmt.Sprintf("office_entry_error: %v", err)}
		}

		if tag, ok := officeTargets(saved.Ext, entry.Name); ok {
			rewritten, changed := rewriteTextNodes(data, tag)
			if changed {
				data = rewritten
				anyChanged = true
			}
		}

		dst, err := w.Create(entry.Name)
		if err == nil {
			_, err = dst.Write(data)
		}
		if err != nil {
			w.Close()
			os.Remove(out)
			return Outcome{Path: saved.Path, Reason: fmt.Sprintf("office_write_error: %v", err)}
		}
	}

	if err := w.Close(); err != nil {
		os.Remove(out)
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("office_close_error: %v", err)}
	}
	if !anyChanged {
		os.Remove(out)
		return Outcome{Path: saved.Path}
	}
	return Outcome{Path: out, Performed: true}
}

var textNodeREs = map[string]*regexp.Regexp{
	"w:t": regexp.MustCompile(`(?s)(<w:t(?:\s[^>]*)?>)(.*?)(</w:t>)`),
	"a:t": regexp.MustCompile(`(?s)(<a:t(?:\s[^>]*)?>)(.*?)(</a:t>)`),
}

var (
	xmlUnescaper = strings.NewReplacer(
		"&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
	xmlEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
)

// rewriteTextNodes masks sensitive values inside every <tag>...</tag> text
// node of an OOXML part. Entity references are decoded before matching and
// re-encoded after, so "kim &amp; 010-1234-5678" is scanned as plain text.
func rewriteTextNodes(data []byte, tag string) ([]byte, bool) {
	re := textNodeREs[tag]
	if re == nil {
		return data, false
	}
	changed := false
	out := re.ReplaceAllFunc(data, func(node []byte) []byte {
		m := re.FindSubmatch(node)
		if m == nil {
			return node
		}
		text := xmlUnescaper.Replace(string(m[2]))
		masked, hit := maskText(text)
		if !hit {
			return node
		}
		changed = true
		return append(append(append([]byte{}, m[1]...), xmlEscaper.Replace(masked)...), m[3]...)
	})
	return out, changed
}

// redactXLSX masks cell values sheet by sheet through excelize, writing the
// result as a new workbook so formulas and styles survive.
func redactXLSX(saved *SavedFileInfo) Outcome {
	f, err := excelize.OpenFile(saved.Path)
	if err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("xlsx_open_error: %v", err)}
	}
	defer f.Close()

	changed := false
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for ri, row := range rows {
			for ci, val := range row {
				if val == "" {
					continue
				}
				masked, hit := maskText(val)
				if !hit {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(ci+1, ri+1)
				if err != nil {
					continue
				}
				if err := f.SetCellStr(sheet, axis, masked); err == nil {
					changed = true
				}
			}
		}
	}

	if !changed {
		return Outcome{Path: saved.Path}
	}
	out := detectionPath(saved.Path)
	if err := f.SaveAs(out); err != nil {
		return Outcome{Path: saved.Path, Reason: fmt.Sprintf("xlsx_save_error: %v", err)}
	}
	return Outcome{Path: out, Performed: true}
}
