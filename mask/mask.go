// Package mask rewrites prompt text by replacing detected sensitive spans
// with their label tokens.
package mask

import (
	"sort"
	"strings"

	"github.com/sentinelsec/inspector/detect"
)

// ByEntities replaces every entity span in text with its bare label token,
// e.g. "PHONE". Entities with unusable offsets fall back to a value search.
func ByEntities(text string, ents []detect.Span) string {
	return apply(text, ents, false)
}

// WithParens replaces spans with parenthesized tokens, e.g. "(PHONE)".
// This rendition feeds the LLM detector so it can tell already-claimed
// regions from untouched text.
func WithParens(text string, ents []detect.Span) string {
	return apply(text, ents, true)
}

type repl struct {
	begin, end int
	label      string
}

func apply(text string, ents []detect.Span, parens bool) string {
	if len(ents) == 0 || text == "" {
		return text
	}
	runes := []rune(text)

	var anchored []repl
	for _, e := range ents {
		if r, ok := anchor(runes, e, anchored); ok {
			anchored = append(anchored, r)
		}
	}

	sort.SliceStable(anchored, func(i, j int) bool {
		if anchored[i].begin != anchored[j].begin {
			return anchored[i].begin < anchored[j].begin
		}
		return anchored[i].end-anchored[i].begin > anchored[j].end-anchored[j].begin
	})

	var kept []repl
	lastEnd := -1
	for _, r := range anchored {
		if r.begin < lastEnd {
			continue
		}
		kept = append(kept, r)
		lastEnd = r.end
	}

	// Replace right to left so earlier offsets stay valid.
	for i := len(kept) - 1; i >= 0; i-- {
		r := kept[i]
		token := r.label
		if parens {
			token = "(" + r.label + ")"
		}
		runes = append(runes[:r.begin], append([]rune(token), runes[r.end:]...)...)
	}
	return string(runes)
}

// anchor resolves an entity to a concrete rune range. Valid offsets whose
// slice matches the value are trusted; otherwise the first occurrence of the
// value not overlapping an already-anchored range is used.
func anchor(runes []rune, e detect.Span, taken []repl) (repl, bool) {
	if e.Begin >= 0 && e.Begin < e.End && e.End <= len(runes) {
		if e.Value == "" || string(runes[e.Begin:e.End]) == e.Value {
			return repl{e.Begin, e.End, e.Label}, true
		}
	}
	if e.Value == "" {
		return repl{}, false
	}
	text := string(runes)
	width := len([]rune(e.Value))
	from := 0
	for {
		idx := indexRunes(text, e.Value, from)
		if idx < 0 {
			return repl{}, false
		}
		cand := repl{idx, idx + width, e.Label}
		clear := true
		for _, t := range taken {
			if cand.begin < t.end && t.begin < cand.end {
				clear = false
				break
			}
		}
		if clear {
			return cand, true
		}
		from = cand.begin + 1
	}
}

// indexRunes finds value in text starting at rune offset from, returning a
// rune offset or -1.
func indexRunes(text, value string, from int) int {
	runes := []rune(text)
	if from > len(runes) {
		return -1
	}
	sub := string(runes[from:])
	b := strings.Index(sub, value)
	if b < 0 {
		return -1
	}
	return from + len([]rune(sub[:b]))
}
