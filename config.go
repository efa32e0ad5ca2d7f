package inspector

import (
	"os"
	"strconv"
)

// Config holds all configuration for the inspector engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	DBPath string `json:"db_path"`

	// DownloadsDir is the root under which attachments are persisted,
	// laid out as {public_ip}/{endpoint}/{time}.{ext}.
	DownloadsDir string `json:"downloads_dir"`

	// AdminImageDir holds the blocklist images attachments are compared
	// against. Empty disables the similarity check.
	AdminImageDir string `json:"admin_image_dir"`

	// SimilarityThreshold is the SSIM score at or above which an
	// attachment is blocked as a match for a blocklisted image.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// Detector configures the AI entity detector.
	Detector DetectorConfig `json:"detector"`

	// OCR configures text extraction from image attachments.
	OCR OCRConfig `json:"ocr"`

	// TextGate skips OCR on images that look photographic rather than
	// text-bearing.
	TextGate bool `json:"text_gate"`

	// DashboardAPIKey guards the settings endpoint when non-empty.
	DashboardAPIKey string `json:"dashboard_api_key"`
}

// DetectorConfig configures the LLM-backed entity detector.
type DetectorConfig struct {
	Enabled      bool   `json:"enabled"`
	Provider     string `json:"provider"` // ollama, lmstudio, openai, groq, openrouter, custom
	Model        string `json:"model"`
	BaseURL      string `json:"base_url"`
	APIKey       string `json:"api_key"`
	ModelDir     string `json:"model_dir"` // local weights, passed to self-hosted backends
	MaxNewTokens int    `json:"max_new_tokens"`
}

// OCRConfig configures the tesseract adapter.
type OCRConfig struct {
	Enabled   bool   `json:"enabled"`
	Bin       string `json:"bin"`
	Languages string `json:"languages"`
}

// DefaultConfig returns a Config with sensible defaults for an on-prem
// deployment next to a local inference server.
func DefaultConfig() Config {
	return Config{
		DBPath:              "sentinel.db",
		DownloadsDir:        "downloads",
		AdminImageDir:       "admin_images",
		SimilarityThreshold: 0.4,
		Detector: DetectorConfig{
			Enabled:      true,
			Provider:     "ollama",
			Model:        "qwen2.5:7b",
			BaseURL:      "http://localhost:11434",
			MaxNewTokens: 256,
		},
		OCR: OCRConfig{
			Enabled:   true,
			Bin:       "tesseract",
			Languages: "kor+eng",
		},
	}
}

// FromEnv overlays environment variables onto c. Unset variables leave the
// existing values untouched.
func (c *Config) FromEnv() {
	setString(&c.DBPath, "SENTINEL_DB_PATH")
	setString(&c.DownloadsDir, "SENTINEL_DOWNLOADS_DIR")
	setString(&c.AdminImageDir, "SENTINEL_ADMIN_IMAGE_DIR")
	setString(&c.Detector.Provider, "SENTINEL_DETECTOR_PROVIDER")
	setString(&c.Detector.BaseURL, "SENTINEL_DETECTOR_BASE_URL")
	setString(&c.Detector.Model, "SENTINEL_DETECTOR_MODEL")
	setString(&c.Detector.APIKey, "SENTINEL_DETECTOR_API_KEY")
	setString(&c.Detector.ModelDir, "MODEL_DIR")
	setString(&c.OCR.Bin, "SENTINEL_TESSERACT_BIN")
	setString(&c.DashboardAPIKey, "DASHBOARD_API_KEY")

	if v, ok := os.LookupEnv("MAX_NEW_TOKENS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Detector.MaxNewTokens = n
		}
	}
	if v, ok := os.LookupEnv("USE_AI_DETECTOR"); ok {
		c.Detector.Enabled = parseBool(v, c.Detector.Enabled)
	}
	if v, ok := os.LookupEnv("SENTINEL_OCR_ENABLED"); ok {
		c.OCR.Enabled = parseBool(v, c.OCR.Enabled)
	}

	// Local model weights are mandatory for the AI detector. Without them
	// the pipeline runs regex-only.
	if c.Detector.ModelDir == "" {
		c.Detector.Enabled = false
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
