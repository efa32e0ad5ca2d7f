package files

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Sanitize normalizes a string for use as a file or directory name.
// Colons become hyphens (Windows paths), anything else outside the safe set
// becomes an underscore.
func Sanitize(s string) string {
	if s == "" {
		s = "unknown"
	}
	s = strings.ReplaceAll(s, ":", "-")
	return unsafeNameChars.ReplaceAllString(s, "_")
}

// SaveInput carries the request fields needed to persist an attachment.
type SaveInput struct {
	Format   string // extension as sent by the agent, with or without dot
	Data     string // base64 payload
	Time     string // request timestamp, becomes the file stem
	PublicIP string
	Endpoint string // hostname or pc name of the sending machine
}

// Save decodes and writes the attachment under
// downloadsRoot/{public_ip}/{endpoint}/{time}.{ext}. A missing format or
// empty payload yields (nil, nil): nothing to store is not an error.
func Save(in SaveInput, downloadsRoot string) (*SavedFileInfo, error) {
	if in.Format == "" || in.Data == "" {
		return nil, nil
	}

	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(in.Format)), ".")

	dir := filepath.Join(downloadsRoot,
		Sanitize(orDefault(in.PublicIP, "noip")),
		Sanitize(orDefault(in.Endpoint, "noname")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating attachment dir: %w", err)
	}

	stem := Sanitize(in.Time)
	if stem == "" {
		stem = "unknown_time"
	}
	suffix := ".bin"
	if ext != "" {
		suffix = "." + ext
	}
	path := filepath.Join(dir, stem+suffix)

	raw, err := base64.StdEncoding.DecodeString(in.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding attachment data: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, fmt.Errorf("writing attachment: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &SavedFileInfo{
		Ext:  ext,
		MIME: MIMEFor(ext),
		Path: abs,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
