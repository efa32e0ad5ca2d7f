package detect

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Span is one detected sensitive value. Begin/End are rune offsets into the
// scanned text, half-open, so Value == string([]rune(text)[Begin:End]).
// Origin records which stage produced the span ("regex" or "llm").
type Span struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Begin  int    `json:"begin"`
	End    int    `json:"end"`
	Origin string `json:"-"`
}

const (
	OriginRegex = "regex"
	OriginLLM   = "llm"
)

// Detect scans text with the full pattern table and returns a non-overlapping
// set of spans sorted by (begin asc, length desc). Candidates sharing a start
// are resolved in favor of the longer match, then declaration order.
func Detect(text string) []Span {
	if text == "" {
		return nil
	}
	cands := collect(text)
	return Resolve(cands)
}

// Resolve sorts candidate spans and greedily keeps the first span at each
// position, discarding anything that overlaps an already-kept span.
func Resolve(cands []Span) []Span {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Begin != cands[j].Begin {
			return cands[i].Begin < cands[j].Begin
		}
		return cands[i].End-cands[i].Begin > cands[j].End-cands[j].Begin
	})
	var out []Span
	lastEnd := -1
	for _, c := range cands {
		if c.Begin < lastEnd {
			continue
		}
		out = append(out, c)
		lastEnd = c.End
	}
	return out
}

func collect(text string) []Span {
	conv := newOffsetConverter(text)
	var cands []Span
	for _, label := range patternOrder {
		re := Patterns[label]
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			b, e := m[0], m[1]
			if label == LabelEmail {
				// Prefer the bracketed capture, then the bare one.
				switch {
				case len(m) > 3 && m[2] >= 0:
					b, e = m[2], m[3]
				case len(m) > 5 && m[4] >= 0:
					b, e = m[4], m[5]
				}
			}
			val := text[b:e]
			if !passesGate(label, val) {
				continue
			}
			cands = append(cands, Span{
				Label:  label,
				Value:  val,
				Begin:  conv.rune(b),
				End:    conv.rune(e),
				Origin: OriginRegex,
			})
		}
	}
	return cands
}

// passesGate applies the checksum gates that plain regex cannot express.
func passesGate(label, value string) bool {
	switch label {
	case LabelCardNumber:
		d := digitsOf(value)
		return len(d) >= 13 && len(d) <= 19 && luhnOK(d)
	case LabelIMEI:
		d := digitsOf(value)
		return len(d) == 15 && luhnOK(d)
	}
	return true
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// luhnOK validates a digit string with the Luhn checksum, doubling every
// second digit from the right.
func luhnOK(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// offsetConverter translates byte offsets from regexp matches into rune
// offsets. Offsets are requested in ascending order per pattern but not
// globally, so it keeps a precomputed table when the text is non-ASCII.
type offsetConverter struct {
	ascii bool
	table map[int]int
}

func newOffsetConverter(text string) *offsetConverter {
	if len(text) == utf8.RuneCountInString(text) {
		return &offsetConverter{ascii: true}
	}
	table := make(map[int]int, len(text)+1)
	i := 0
	for off := range text {
		table[off] = i
		i++
	}
	table[len(text)] = i
	return &offsetConverter{table: table}
}

func (c *offsetConverter) rune(byteOff int) int {
	if c.ascii {
		return byteOff
	}
	return c.table[byteOff]
}

// Substring returns the rune slice text[begin:end). Out-of-range bounds
// return the empty string.
func Substring(text string, begin, end int) string {
	if begin < 0 || end < begin {
		return ""
	}
	rs := []rune(text)
	if end > len(rs) {
		return ""
	}
	return string(rs[begin:end])
}
