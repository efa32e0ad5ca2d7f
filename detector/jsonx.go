package detector

import (
	"regexp"
	"strings"
)

var codeFenceRE = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON recovers the best JSON object candidate from raw model output.
// Priority: last fenced block, then the last balanced top-level object, then
// a backward scan from the final closing brace. Returns false when no
// candidate exists.
func ExtractJSON(s string) (string, bool) {
	s = sanitize(stripRoleHeaders(s))

	if ms := codeFenceRE.FindAllStringSubmatch(s, -1); len(ms) > 0 {
		return strings.TrimSpace(ms[len(ms)-1][1]), true
	}
	if blocks := topLevelBlocks(s); len(blocks) > 0 {
		return blocks[len(blocks)-1], true
	}
	if b, ok := lastBlockBackward(s); ok {
		return b, true
	}
	return "", false
}

// sanitize converts unicode line separators to newlines and removes BOMs.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\u2028", "\n")
	s = strings.ReplaceAll(s, "\u2029", "\n")
	s = strings.ReplaceAll(s, "\ufeff", "")
	return strings.TrimSpace(s)
}

// stripRoleHeaders drops leading chat-template role markers that survive
// decoding ("system\n", "user\n", "assistant\n").
func stripRoleHeaders(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	for _, prefix := range []string{"system\n", "user\n", "assistant\n"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimLeft(s[len(prefix):], " \t\r\n")
		}
	}
	return s
}

// topLevelBlocks collects every balanced top-level {...} block, tracking
// string literals and escapes so braces inside values do not confuse the
// nesting count.
func topLevelBlocks(s string) []string {
	var blocks []string
	level := 0
	inStr := false
	esc := false
	start := -1
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			if level == 0 {
				start = i
			}
			level++
		case '}':
			level--
			if level == 0 && start >= 0 {
				blocks = append(blocks, strings.TrimSpace(s[start:i+1]))
				start = -1
			}
			if level < 0 {
				level = 0
			}
		}
	}
	return blocks
}

// lastBlockBackward rebuilds the final top-level block by walking backward
// from the last closing brace. Used when the forward scan finds nothing,
// typically because the head of the object was clipped by truncated output.
func lastBlockBackward(s string) (string, bool) {
	end := strings.LastIndexByte(s, '}')
	if end < 0 {
		return "", false
	}
	level := 0
	inStr := false
	esc := false
	for i := end; i >= 0; i-- {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '}':
			level++
		case '{':
			level--
			if level == 0 {
				return strings.TrimSpace(s[i : end+1]), true
			}
		}
	}
	return "", false
}
