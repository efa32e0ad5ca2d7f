package detector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sentinelsec/inspector/llm"
)

type stubProvider struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
	delay   time.Duration
}

func (s *stubProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.content}, nil
}

func TestNewDerivesModelFromDir(t *testing.T) {
	rt, err := New(Config{Provider: "ollama", ModelDir: "/opt/models/qwen2.5-7b"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rt.model != "qwen2.5-7b" {
		t.Errorf("model = %q, want qwen2.5-7b", rt.model)
	}

	rt, err = New(Config{Provider: "ollama", Model: "gemma3:4b", ModelDir: "/opt/models/qwen2.5-7b"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rt.model != "gemma3:4b" {
		t.Errorf("explicit model overridden: %q", rt.model)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			in:   `{"has_sensitive": false, "entities": []}`,
			want: `{"has_sensitive": false, "entities": []}`,
			ok:   true,
		},
		{
			name: "code fence wins",
			in:   "noise {\"a\":1} text ```json\n{\"has_sensitive\": true, \"entities\": []}\n``` tail",
			want: `{"has_sensitive": true, "entities": []}`,
			ok:   true,
		},
		{
			name: "last of several fences",
			in:   "```json\n{\"a\":1}\n``` middle ```json\n{\"b\":2}\n```",
			want: `{"b":2}`,
			ok:   true,
		},
		{
			name: "last top level block",
			in:   `first {"a":1} then {"b": {"c": 2}}`,
			want: `{"b": {"c": 2}}`,
			ok:   true,
		},
		{
			name: "braces inside strings ignored",
			in:   `{"value": "literal } brace"} trailing`,
			want: `{"value": "literal } brace"}`,
			ok:   true,
		},
		{
			name: "role header stripped",
			in:   "assistant\n{\"has_sensitive\": false, \"entities\": []}",
			want: `{"has_sensitive": false, "entities": []}`,
			ok:   true,
		},
		{
			name: "no json",
			in:   "the text contains nothing of interest",
			ok:   false,
		},
		{
			name: "empty",
			in:   "",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tt.ok, got)
			}
			if ok && got != tt.want {
				t.Errorf("ExtractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONBackwardRecovery(t *testing.T) {
	// Doubled opener: the forward scan never returns to depth zero and
	// yields nothing, the backward scan recovers the final block.
	in := `{{"type":"NAME","value":"kim"}`
	got, ok := ExtractJSON(in)
	if !ok {
		t.Fatal("expected recovery")
	}
	if got != `{"type":"NAME","value":"kim"}` {
		t.Errorf("got %q", got)
	}
}

func TestAnalyzeParsesEntities(t *testing.T) {
	p := &stubProvider{content: `{"has_sensitive": true, "entities": [
		{"type": "name", "value": " kim "},
		{"type": "PHONE", "value": "010-1234-5678"},
		{"type": "MADE_UP", "value": "x"},
		{"type": "EMAIL", "value": ""}
	]}`}
	r := NewWithProvider(p, Config{Model: "m"})

	res := r.Analyze(context.Background(), "kim 010-1234-5678")
	if !res.HasSensitive {
		t.Error("HasSensitive = false")
	}
	if len(res.Entities) != 2 {
		t.Fatalf("entities = %+v, want 2", res.Entities)
	}
	if res.Entities[0].Type != "NAME" || res.Entities[0].Value != "kim" {
		t.Errorf("first entity = %+v, want normalized NAME/kim", res.Entities[0])
	}
	if res.Entities[1].Type != "PHONE" {
		t.Errorf("second entity = %+v", res.Entities[1])
	}
}

func TestAnalyzePromotesHasSensitive(t *testing.T) {
	p := &stubProvider{content: `{"has_sensitive": false, "entities": [{"type": "NAME", "value": "kim"}]}`}
	r := NewWithProvider(p, Config{Model: "m"})
	res := r.Analyze(context.Background(), "kim")
	if !res.HasSensitive {
		t.Error("entity list non-empty but HasSensitive stayed false")
	}
}

func TestAnalyzeSafeFallbacks(t *testing.T) {
	tests := []struct {
		name string
		p    *stubProvider
	}{
		{"provider error", &stubProvider{err: errors.New("boom")}},
		{"garbage output", &stubProvider{content: "no json here"}},
		{"wrong shape", &stubProvider{content: `{"answer": 42}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewWithProvider(tt.p, Config{Model: "m"})
			res := r.Analyze(context.Background(), "text")
			if res.HasSensitive || len(res.Entities) != 0 {
				t.Errorf("want empty result, got %+v", res)
			}
		})
	}
}

func TestAnalyzeEntityCap(t *testing.T) {
	var b []byte
	b = append(b, `{"has_sensitive": true, "entities": [`...)
	for i := 0; i < 200; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, `{"type": "NAME", "value": "kim"}`...)
	}
	b = append(b, `]}`...)

	r := NewWithProvider(&stubProvider{content: string(b)}, Config{Model: "m"})
	res := r.Analyze(context.Background(), "x")
	if len(res.Entities) != maxEntities {
		t.Errorf("entities = %d, want cap %d", len(res.Entities), maxEntities)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	p := &stubProvider{content: `{"has_sensitive": true, "entities": []}`, delay: 200 * time.Millisecond}
	r := NewWithProvider(p, Config{Model: "m", Timeout: 20 * time.Millisecond})
	res := r.Analyze(context.Background(), "x")
	if res.HasSensitive || len(res.Entities) != 0 {
		t.Errorf("timed-out call must fall back, got %+v", res)
	}
}

func TestAnalyzeSerialized(t *testing.T) {
	p := &stubProvider{content: `{"has_sensitive": false, "entities": []}`, delay: 10 * time.Millisecond}
	r := NewWithProvider(p, Config{Model: "m"})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Analyze(context.Background(), "x")
		}()
	}
	wg.Wait()
	if p.calls != 4 {
		t.Errorf("calls = %d, want 4", p.calls)
	}
}
