// Command e2e_test exercises the full inspection pipeline against a
// throwaway database and prints the results. The AI detector stays off so
// the run needs no model backend.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sentinelsec/inspector"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	tmpDir, err := os.MkdirTemp("", "inspector-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	cfg := inspector.DefaultConfig()
	cfg.DBPath = filepath.Join(tmpDir, "sentinel.db")
	cfg.DownloadsDir = filepath.Join(tmpDir, "downloads")
	cfg.Detector.Enabled = false
	cfg.OCR.Enabled = false

	engine, err := inspector.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	requests := []inspector.Request{
		{
			Time:     "2024-01-02T10:30:00",
			Prompt:   "고객 연락처는 010-1234-5678 이고 메일은 kim@example.com 입니다",
			Host:     "chatgpt.com",
			Hostname: "DESKTOP-01",
			PublicIP: "203.0.113.7",
		},
		{
			Time:   "2024-01-02T10:31:00",
			Prompt: "오늘 회의록 요약해 줘",
			Host:   "chatgpt.com",
		},
		{
			Time:   "2024-01-02T10:32:00",
			Prompt: "첨부한 명단 검토해 줘",
			Host:   "claude.ai",
			Attachment: &inspector.Attachment{
				Format: "txt",
				Data:   base64OfAttachment(),
			},
		},
	}

	for i, req := range requests {
		fmt.Fprintf(os.Stderr, "\n=== REQUEST %d ===\n", i+1)
		res, err := engine.Inspect(ctx, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "inspect error: %v\n", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
	}

	records, err := engine.Recent(ctx, 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing records: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\n=== %d RECORDS LOGGED ===\n", len(records))
}

func base64OfAttachment() string {
	const text = "담당자: 이영희\n전화: 010-9876-5432\n계좌: 110-234-567890\n"
	return base64.StdEncoding.EncodeToString([]byte(text))
}
