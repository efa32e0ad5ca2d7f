// Package policy turns detection results and tenant settings into the
// allow/mask/block decision returned to the agent.
package policy

import "strings"

// Response methods configurable from the dashboard.
const (
	MethodMask  = "mask"
	MethodAllow = "allow"
	MethodBlock = "block"
)

// Actions recorded on every log entry.
const (
	ActionAllow              = "allow"
	ActionAllowSensitive     = "allow_sensitive"
	ActionAllowUnmonitored   = "allow_unmonitored"
	ActionMaskAndAllow       = "mask_and_allow"
	ActionBlockSensitive     = "block_sensitive"
	ActionBlockFile          = "block_file_sensitive"
	ActionBlockUploadSimilar = "block_upload_similar"
)

// Snapshot is the settings state a single request is evaluated against.
// Requests never see settings change mid-flight.
type Snapshot struct {
	ResponseMethod string
	ServiceFilters map[string]map[string]bool
	Version        int
}

// Decision is the resolved outcome for one request.
type Decision struct {
	Allow       bool
	FileBlocked bool
	UseMasked   bool
	Action      string
}

type hostRule struct {
	key    string
	substr string
}

// Rules are ordered; the first substring hit decides which filter key
// governs the host.
var hostRules = map[string][]hostRule{
	"llm": {
		{"gpt", "chatgpt"},
		{"gemini", "gemini"},
		{"claude", "claude"},
		{"deepseek", "deepseek"},
		{"groq", "groq"},
	},
	"mcp": {
		{"gpt_desktop", "gpt"},
		{"claude_desktop", "claude"},
		{"vscode_copilot", "copilot"},
	},
}

// Monitored reports whether traffic for the given interface and host is
// subject to inspection. Unknown hosts and unset filters default to
// monitored: the safe side of a config gap is inspecting too much.
func (s *Snapshot) Monitored(iface, host string) bool {
	if s == nil {
		return true
	}
	filters := s.ServiceFilters[iface]
	if len(filters) == 0 {
		return true
	}
	// A map with every service switched off is an operator turning the
	// whole interface off, not a config gap.
	allOff := true
	for _, enabled := range filters {
		if enabled {
			allOff = false
			break
		}
	}
	if allOff {
		return false
	}
	h := strings.ToLower(host)
	for _, r := range hostRules[iface] {
		if strings.Contains(h, r.substr) {
			enabled, ok := filters[r.key]
			if !ok {
				return true
			}
			return enabled
		}
	}
	return true
}

// Decide maps the configured response method and the detection outcome to
// a decision. promptSensitive covers the prompt and any OCR text;
// fileSensitive means the attachment itself carried sensitive content.
func Decide(method string, promptSensitive, fileSensitive bool) Decision {
	if !promptSensitive && !fileSensitive {
		return Decision{Allow: true, Action: ActionAllow}
	}
	switch method {
	case MethodAllow:
		return Decision{Allow: true, Action: ActionAllowSensitive}
	case MethodBlock:
		// Blocked responses still carry the fully masked prompt; the
		// file contribution upgrades the action and blocks the upload.
		d := Decision{UseMasked: true, Action: ActionBlockSensitive}
		if fileSensitive {
			d.FileBlocked = true
			d.Action = ActionBlockFile
		}
		return d
	default: // mask, also the fallback for unknown methods
		return Decision{Allow: true, UseMasked: promptSensitive, Action: ActionMaskAndAllow}
	}
}

// SimilarBlock is the decision for attachments matching a blocklisted
// image. It overrides whatever Decide produced.
func SimilarBlock() Decision {
	return Decision{FileBlocked: true, Action: ActionBlockUploadSimilar}
}
