package detect

import "strings"

// RawEntity is a label/value pair without offsets, as produced by the LLM
// detector.
type RawEntity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Rebase anchors offset-less entities onto original with a rolling cursor:
// each value is searched from the end of the previous hit so repeated values
// land on successive occurrences. A value missing after the cursor is
// retried from the start; a value absent from the text is dropped.
func Rebase(original string, ents []RawEntity) []Span {
	conv := newOffsetConverter(original)
	cursor := 0
	var out []Span
	for _, e := range ents {
		if e.Value == "" {
			continue
		}
		idx := strings.Index(original[cursor:], e.Value)
		if idx >= 0 {
			idx += cursor
		} else {
			idx = strings.Index(original, e.Value)
		}
		if idx < 0 {
			continue
		}
		end := idx + len(e.Value)
		out = append(out, Span{
			Label:  e.Type,
			Value:  e.Value,
			Begin:  conv.rune(idx),
			End:    conv.rune(end),
			Origin: OriginLLM,
		})
		cursor = end
	}
	return out
}

// Merge folds rebased LLM spans into an already non-overlapping regex span
// set. Regex spans always survive; an LLM span is dropped when it duplicates
// or overlaps anything already accepted. The result is sorted by
// (begin asc, length desc) and provenance is preserved on every span.
func Merge(regexSpans, llmSpans []Span) []Span {
	accepted := make([]Span, len(regexSpans))
	copy(accepted, regexSpans)
	for _, s := range llmSpans {
		if overlapsAny(s, accepted) {
			continue
		}
		accepted = append(accepted, s)
	}
	return Resolve(accepted)
}
