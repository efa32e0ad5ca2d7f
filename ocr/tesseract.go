package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultRunTimeout = 20 * time.Second

// Tesseract shells out to the tesseract binary and parses its TSV output
// into words with pixel boxes. The binary is invoked with an argument list,
// never a shell.
type Tesseract struct {
	Bin       string // path to the tesseract executable
	Languages string // e.g. "kor+eng"
	Timeout   time.Duration
}

// NewTesseract builds an adapter with sane defaults.
func NewTesseract(bin, languages string) *Tesseract {
	if bin == "" {
		bin = "tesseract"
	}
	if languages == "" {
		languages = "kor+eng"
	}
	return &Tesseract{Bin: bin, Languages: languages, Timeout: defaultRunTimeout}
}

func (t *Tesseract) Run(ctx context.Context, imagePath string) Output {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Bin, imagePath, "stdout",
		"-l", t.Languages, "--psm", "3", "--oem", "1", "tsv")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Warn("ocr: tesseract run failed",
			"image", imagePath, "error", err, "stderr", stderr.String())
		return Output{Reason: "tesseract_failed"}
	}

	words := parseTSV(stdout.String())
	return Output{
		Text:   joinWords(words),
		Words:  words,
		Used:   true,
		Reason: "tesseract",
	}
}

// tsv columns: level page block par line word left top width height conf text
const (
	colLevel = 0
	colLine  = 4
	colLeft  = 6
	colTop   = 7
	colWidth = 8
	colHigh  = 9
	colConf  = 10
	colText  = 11
)

// parseTSV keeps word-level rows (level 5) with non-empty text and a usable
// confidence.
func parseTSV(s string) []Word {
	var words []Word
	for i, line := range strings.Split(s, "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue // header
		}
		cols := strings.Split(line, "\t")
		if len(cols) <= colText {
			continue
		}
		if cols[colLevel] != "5" {
			continue
		}
		text := strings.TrimSpace(cols[colText])
		if text == "" {
			continue
		}
		if conf, err := strconv.ParseFloat(cols[colConf], 64); err != nil || conf < 0 {
			continue
		}
		x, err1 := strconv.Atoi(cols[colLeft])
		y, err2 := strconv.Atoi(cols[colTop])
		w, err3 := strconv.Atoi(cols[colWidth])
		h, err4 := strconv.Atoi(cols[colHigh])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		words = append(words, Word{Text: text, X: x, Y: y, W: w, H: h})
	}
	return words
}

// joinWords reassembles the plain text rendition, one space between words
// on the same line. Line breaks are approximated by vertical separation.
func joinWords(words []Word) string {
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	prev := words[0]
	b.WriteString(prev.Text)
	for _, w := range words[1:] {
		if w.Y > prev.Y+prev.H {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
		prev = w
	}
	return b.String()
}
