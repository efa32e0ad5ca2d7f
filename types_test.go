package inspector

import (
	"encoding/json"
	"testing"

	"github.com/sentinelsec/inspector/detect"
)

func TestRequestUnmarshalPCNameAliases(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"PCName", `{"time":"t","prompt":"p","PCName":"A"}`, "A"},
		{"pcName", `{"time":"t","prompt":"p","pcName":"B"}`, "B"},
		{"pc_name", `{"time":"t","prompt":"p","pc_name":"C"}`, "C"},
		{"PCName wins", `{"time":"t","prompt":"p","PCName":"A","pc_name":"C"}`, "A"},
		{"absent", `{"time":"t","prompt":"p"}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r Request
			if err := json.Unmarshal([]byte(tc.body), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if r.PCName != tc.want {
				t.Errorf("PCName = %q, want %q", r.PCName, tc.want)
			}
		})
	}
}

func TestRequestUnmarshalInterfaceDefault(t *testing.T) {
	var r Request
	if err := json.Unmarshal([]byte(`{"time":"t","prompt":"p"}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.Interface != "llm" {
		t.Errorf("Interface = %q, want llm", r.Interface)
	}

	if err := json.Unmarshal([]byte(`{"time":"t","prompt":"p","interface":"mcp"}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.Interface != "mcp" {
		t.Errorf("Interface = %q, want mcp", r.Interface)
	}
}

func TestRequestEndpointName(t *testing.T) {
	r := Request{Hostname: "host", PCName: "pc"}
	if got := r.EndpointName(); got != "host" {
		t.Errorf("EndpointName = %q", got)
	}
	r.Hostname = ""
	if got := r.EndpointName(); got != "pc" {
		t.Errorf("EndpointName = %q", got)
	}
}

func TestBuildAlert(t *testing.T) {
	spans := []detect.Span{
		{Label: "PHONE", Origin: detect.OriginRegex},
		{Label: "EMAIL", Origin: detect.OriginRegex},
		{Label: "PHONE", Origin: detect.OriginRegex}, // duplicate label
		{Label: "NAME", Origin: detect.OriginLLM},
	}
	got := buildAlert(spans)
	want := "PHONE, EMAIL 값이 정규식으로 식별되었습니다. NAME 값은 AI로 식별되었습니다."
	if got != want {
		t.Errorf("buildAlert = %q, want %q", got, want)
	}

	if got := buildAlert(nil); got != "" {
		t.Errorf("empty spans: %q", got)
	}

	onlyLLM := buildAlert([]detect.Span{{Label: "ADDRESS", Origin: detect.OriginLLM}})
	if onlyLLM != "ADDRESS 값은 AI로 식별되었습니다." {
		t.Errorf("llm-only alert = %q", onlyLLM)
	}

	untagged := buildAlert([]detect.Span{
		{Label: "CARD_NUMBER"},
		{Label: "PHONE"},
		{Label: "CARD_NUMBER"},
	})
	if untagged != "Detected: CARD_NUMBER, PHONE" {
		t.Errorf("untagged alert = %q", untagged)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SENTINEL_DB_PATH", "/var/lib/sentinel/db.sqlite")
	t.Setenv("MAX_NEW_TOKENS", "512")
	t.Setenv("USE_AI_DETECTOR", "false")
	t.Setenv("DASHBOARD_API_KEY", "secret")

	cfg := DefaultConfig()
	cfg.FromEnv()

	if cfg.DBPath != "/var/lib/sentinel/db.sqlite" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Detector.MaxNewTokens != 512 {
		t.Errorf("MaxNewTokens = %d", cfg.Detector.MaxNewTokens)
	}
	if cfg.Detector.Enabled {
		t.Error("USE_AI_DETECTOR=false must disable the detector")
	}
	if cfg.DashboardAPIKey != "secret" {
		t.Errorf("DashboardAPIKey = %q", cfg.DashboardAPIKey)
	}
}

func TestConfigModelDirRequired(t *testing.T) {
	t.Run("absent disables the detector", func(t *testing.T) {
		t.Setenv("MODEL_DIR", "")
		cfg := DefaultConfig()
		cfg.FromEnv()
		if cfg.Detector.Enabled {
			t.Error("detector must be off without MODEL_DIR")
		}
	})

	t.Run("present keeps the detector on", func(t *testing.T) {
		t.Setenv("MODEL_DIR", "/opt/models/qwen2.5-7b")
		cfg := DefaultConfig()
		cfg.FromEnv()
		if !cfg.Detector.Enabled {
			t.Error("detector must stay on when MODEL_DIR is set")
		}
		if cfg.Detector.ModelDir != "/opt/models/qwen2.5-7b" {
			t.Errorf("ModelDir = %q", cfg.Detector.ModelDir)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Detector.MaxNewTokens != 256 {
		t.Errorf("MaxNewTokens = %d, want 256", cfg.Detector.MaxNewTokens)
	}
	if cfg.SimilarityThreshold != 0.4 {
		t.Errorf("SimilarityThreshold = %v", cfg.SimilarityThreshold)
	}
	if cfg.OCR.Languages != "kor+eng" {
		t.Errorf("OCR.Languages = %q", cfg.OCR.Languages)
	}
}
