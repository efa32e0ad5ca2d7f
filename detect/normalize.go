package detect

import "strings"

// normalizeRune maps visually-obfuscated number characters onto their plain
// ASCII forms. Every mapping is rune-for-rune so offsets into the normalized
// text line up with offsets into the original.
func normalizeRune(r rune) rune {
	switch {
	case r >= '０' && r <= '９': // fullwidth digits
		return '0' + (r - '０')
	}
	switch r {
	case '－', '‐', '‑', '‒', '–', '—', '―', '−': // hyphen lookalikes
		return '-'
	case '．': // fullwidth full stop
		return '.'
	case '＠':
		return '@'
	case ' ', ' ', ' ', ' ', ' ': // exotic spaces
		return ' '
	case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00ad': // zero-width, soft hyphen
		return ' '
	}
	return r
}

// Normalize rewrites obfuscated digits, separators and invisible characters
// to their ASCII forms without changing the rune count.
func Normalize(text string) string {
	return strings.Map(normalizeRune, text)
}

// DetectNormalized runs the pattern table over the normalized rendition of
// text and returns spans whose values are re-sliced from the original, so a
// number written with fullwidth digits is caught but reported verbatim.
// Spans already found on the raw text take precedence; normalized hits that
// overlap them are dropped.
func DetectNormalized(text string, raw []Span) []Span {
	norm := Normalize(text)
	if norm == text {
		return nil
	}
	var out []Span
	for _, s := range Detect(norm) {
		if overlapsAny(s, raw) {
			continue
		}
		s.Value = Substring(text, s.Begin, s.End)
		out = append(out, s)
	}
	return out
}

// DetectAll combines raw and normalized detection into one resolved span set.
func DetectAll(text string) []Span {
	raw := Detect(text)
	extra := DetectNormalized(text, raw)
	if len(extra) == 0 {
		return raw
	}
	return Resolve(append(raw, extra...))
}

func overlapsAny(s Span, set []Span) bool {
	for _, o := range set {
		if s.Begin < o.End && o.Begin < s.End {
			return true
		}
	}
	return false
}
