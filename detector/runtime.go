// Package detector runs the local sensitive-entity LLM and turns its free
// text output into a validated entity list.
package detector

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sentinelsec/inspector/detect"
	"github.com/sentinelsec/inspector/llm"
)

// sysPrompt pins the model to a whitelist-only JSON contract.
const sysPrompt = `You are a strict whitelist-only detector for sensitive entities.

Return ONLY a compact JSON with these keys:
- has_sensitive: true or false
- entities: list of {"type": <LABEL>, "value": <exact substring>}

HARD RULES
- Allowed labels ONLY (uppercase, exact match). If a label is not in the list below, DO NOT invent or output it.
- If the text contains none of the allowed entities: return exactly {"has_sensitive": false, "entities": []}.
- value must be the exact substring from the user text (no masking, no normalization).
- Output JSON only, with no explanations, no extra text, no code fences.

ALLOWED LABELS
# 1) Basic Identity Information
NAME, PHONE, EMAIL, ADDRESS, POSTAL_CODE,

# 2) Public Identification Number
PERSONAL_CUSTOMS_ID, RESIDENT_ID, PASSPORT, DRIVER_LICENSE, FOREIGNER_ID, HEALTH_INSURANCE_ID, BUSINESS_ID, MILITARY_ID,

# 3) Authentication Information
JWT, API_KEY, GITHUB_PAT, PRIVATE_KEY,

# 4) Financial Information
CARD_NUMBER, CARD_EXPIRY, BANK_ACCOUNT, CARD_CVV, PAYMENT_PIN, MOBILE_PAYMENT_PIN,

# 5) Cryptocurrency Information
MNEMONIC, CRYPTO_PRIVATE_KEY, HD_WALLET, PAYMENT_URI_QR,

# 6) Network Information + etc
IPV4, IPV6, MAC_ADDRESS, IMEI`

const (
	maxEntities    = 128
	defaultTimeout = 20 * time.Second
)

// Result is the validated outcome of one analysis call. Analyze never
// returns an error; failures collapse to the safe empty result.
type Result struct {
	HasSensitive bool
	Entities     []detect.RawEntity
	ElapsedMS    int64
}

// Config selects the inference backend for the runtime.
type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	// ModelDir holds the local weights a self-hosted backend serves.
	// When Model is empty the weights directory name doubles as the
	// model identifier.
	ModelDir     string
	MaxNewTokens int
	Timeout      time.Duration
}

// Runtime wraps a chat provider behind a mutex so at most one inference
// runs at a time, matching the capacity of a single local model instance.
type Runtime struct {
	provider llm.Provider
	model    string
	maxNew   int
	timeout  time.Duration
	mu       sync.Mutex
}

var (
	sharedOnce sync.Once
	shared     *Runtime
	sharedErr  error
)

// Shared returns the process-wide runtime, constructing it on first use.
// The configuration of the first caller wins.
func Shared(cfg Config) (*Runtime, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = New(cfg)
	})
	return shared, sharedErr
}

// New builds a runtime from config. Most callers want Shared.
func New(cfg Config) (*Runtime, error) {
	if cfg.Model == "" && cfg.ModelDir != "" {
		cfg.Model = filepath.Base(cfg.ModelDir)
	}
	p, err := llm.NewProvider(llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}
	return NewWithProvider(p, cfg), nil
}

// NewWithProvider builds a runtime over an existing provider. Tests use
// this to inject a stub backend.
func NewWithProvider(p llm.Provider, cfg Config) *Runtime {
	maxNew := cfg.MaxNewTokens
	if maxNew <= 0 {
		maxNew = 256
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runtime{
		provider: p,
		model:    cfg.Model,
		maxNew:   maxNew,
		timeout:  timeout,
	}
}

// Analyze sends text through the model and returns the validated entity
// list. Any backend or parse failure degrades to an empty result so an
// inspection never fails because the model misbehaved.
func (r *Runtime) Analyze(ctx context.Context, text string) Result {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.mu.Lock()
	resp, err := r.provider.Chat(ctx, llm.ChatRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: "system", Content: sysPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens: r.maxNew,
	})
	r.mu.Unlock()

	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		slog.Warn("detector: inference failed", "error", err)
		return Result{ElapsedMS: elapsed}
	}

	res := parse(resp.Content)
	res.ElapsedMS = elapsed
	return res
}

// parse validates raw model output against the whitelist contract.
func parse(raw string) Result {
	candidate, ok := ExtractJSON(raw)
	if !ok {
		return Result{}
	}

	var body struct {
		HasSensitive bool              `json:"has_sensitive"`
		Entities     []json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal([]byte(candidate), &body); err != nil {
		slog.Debug("detector: unparseable model output", "error", err)
		return Result{}
	}

	var ents []detect.RawEntity
	for _, raw := range body.Entities {
		var e struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		typ := strings.ToUpper(strings.TrimSpace(e.Type))
		val := strings.TrimSpace(e.Value)
		if typ == "" || val == "" || !detect.AllowedLabels[typ] {
			continue
		}
		ents = append(ents, detect.RawEntity{Type: typ, Value: val})
		if len(ents) >= maxEntities {
			break
		}
	}

	has := body.HasSensitive
	if len(ents) > 0 {
		has = true
	}
	return Result{HasSensitive: has, Entities: ents}
}
