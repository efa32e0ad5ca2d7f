// Package files stores inbound attachments and produces their redacted or
// detection renditions.
package files

// extToMIME maps the extensions agents are allowed to send.
var extToMIME = map[string]string{
	// images
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",

	// documents
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"csv":  "text/csv",
	"txt":  "text/plain",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ImageExts are extensions handled by the raster redactor.
var ImageExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true,
}

// DocExts are extensions handled by the document redactors.
var DocExts = map[string]bool{
	"pdf": true, "docx": true, "pptx": true, "csv": true, "txt": true, "xlsx": true,
}

// MIMEFor returns the MIME type for a normalized extension, or "".
func MIMEFor(ext string) string {
	return extToMIME[ext]
}

// SavedFileInfo describes an attachment persisted to the downloads tree.
type SavedFileInfo struct {
	Ext  string // normalized, without the dot: "png", "pdf", ...
	MIME string
	Path string
}

// IsImage reports whether the saved file goes through the raster pipeline.
func (s *SavedFileInfo) IsImage() bool { return ImageExts[s.Ext] }
