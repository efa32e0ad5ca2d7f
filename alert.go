package inspector

import (
	"strings"

	"github.com/sentinelsec/inspector/detect"
)

// buildAlert renders the user-facing notice shown by the agent, one clause
// per detection stage. Labels keep first-seen order and are deduplicated
// within a clause.
func buildAlert(spans []detect.Span) string {
	regexLabels := labelsByOrigin(spans, detect.OriginRegex)
	llmLabels := labelsByOrigin(spans, detect.OriginLLM)

	var parts []string
	if len(regexLabels) > 0 {
		parts = append(parts, strings.Join(regexLabels, ", ")+" 값이 정규식으로 식별되었습니다.")
	}
	if len(llmLabels) > 0 {
		parts = append(parts, strings.Join(llmLabels, ", ")+" 값은 AI로 식별되었습니다.")
	}
	if len(parts) == 0 && len(spans) > 0 {
		// Spans without a provenance tag still deserve a notice.
		return "Detected: " + strings.Join(allLabels(spans), ", ")
	}
	return strings.Join(parts, " ")
}

func allLabels(spans []detect.Span) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, s := range spans {
		if seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		labels = append(labels, s.Label)
	}
	return labels
}

func labelsByOrigin(spans []detect.Span, origin string) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, s := range spans {
		if s.Origin != origin || seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		labels = append(labels, s.Label)
	}
	return labels
}
