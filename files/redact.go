package files

import (
	"context"
	"log/slog"

	"github.com/sentinelsec/inspector/ocr"
)

// Outcome is the result of a redaction attempt. Path always points at the
// file the agent should receive back: the redacted rendition when one was
// produced, otherwise the original.
type Outcome struct {
	Path      string
	Performed bool
	Reason    string // why nothing was produced, "" on success
}

// Redactor routes a saved attachment to the handler for its format.
type Redactor struct {
	OCR ocr.Adapter
	// UseTextGate skips OCR on images unlikely to contain rendered text.
	UseTextGate bool
}

// Redact produces the detection/redacted rendition of saved. Failures are
// reported through Outcome, never as an error: a broken attachment must not
// abort the inspection that carries it.
func (r *Redactor) Redact(ctx context.Context, saved *SavedFileInfo) Outcome {
	if saved == nil {
		return Outcome{Reason: "no_attachment"}
	}
	if ImageExts[saved.Ext] {
		return r.RedactImage(saved, r.ImageText(ctx, saved))
	}

	var out Outcome
	switch {
	case saved.Ext == "pdf":
		out = r.redactPDF(ctx, saved)
	case saved.Ext == "txt" || saved.Ext == "csv":
		out = redactPlain(saved)
	case saved.Ext == "docx" || saved.Ext == "pptx":
		out = redactOffice(saved)
	case saved.Ext == "xlsx":
		out = redactXLSX(saved)
	default:
		out = Outcome{Path: saved.Path, Reason: "unsupported_ext:" + saved.Ext}
	}
	return finish(saved, out)
}

// RedactImage redacts an image attachment with OCR output already obtained
// through ImageText, so the pipeline runs OCR exactly once per request.
func (r *Redactor) RedactImage(saved *SavedFileInfo, ocrOut ocr.Output) Outcome {
	if saved == nil {
		return Outcome{Reason: "no_attachment"}
	}
	return finish(saved, r.redactImage(saved, ocrOut))
}

func finish(saved *SavedFileInfo, out Outcome) Outcome {
	if out.Path == "" {
		out.Path = saved.Path
	}
	if out.Reason != "" {
		slog.Debug("files: redaction skipped", "path", saved.Path, "reason", out.Reason)
	}
	return out
}
