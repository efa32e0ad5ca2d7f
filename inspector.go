package inspector

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelsec/inspector/detect"
	"github.com/sentinelsec/inspector/detector"
	"github.com/sentinelsec/inspector/files"
	"github.com/sentinelsec/inspector/mask"
	"github.com/sentinelsec/inspector/ocr"
	"github.com/sentinelsec/inspector/policy"
	"github.com/sentinelsec/inspector/similarity"
	"github.com/sentinelsec/inspector/store"
)

// Engine is the main entry point for the inspector.
type Engine interface {
	// Inspect runs one request through detection, policy, masking, and
	// redaction, persists the outcome, and returns the agent response.
	Inspect(ctx context.Context, req Request) (*Result, error)

	// Settings returns the current dashboard settings, creating the
	// defaults on first call. Settings writes belong to the dashboard
	// process, which shares the store.
	Settings(ctx context.Context) (*store.Settings, error)

	// Recent returns the newest inspection records.
	Recent(ctx context.Context, limit int) ([]store.LogRecord, error)

	// Store returns the underlying store for diagnostic access.
	Store() *store.Store

	// Close cleanly shuts down the engine.
	Close() error
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg      Config
	store    *store.Store
	det      *detector.Runtime // nil when the AI detector is disabled
	redactor *files.Redactor
}

// New creates a new inspector engine with the given configuration.
func New(cfg Config) (Engine, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = similarity.Threshold
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var ocrAdapter ocr.Adapter = ocr.Disabled{}
	if cfg.OCR.Enabled {
		ocrAdapter = ocr.NewTesseract(cfg.OCR.Bin, cfg.OCR.Languages)
	}

	var det *detector.Runtime
	if cfg.Detector.Enabled {
		det, err = detector.Shared(detector.Config{
			Provider:     cfg.Detector.Provider,
			BaseURL:      cfg.Detector.BaseURL,
			Model:        cfg.Detector.Model,
			APIKey:       cfg.Detector.APIKey,
			ModelDir:     cfg.Detector.ModelDir,
			MaxNewTokens: cfg.Detector.MaxNewTokens,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
		}
	}

	return &engine{
		cfg:      cfg,
		store:    s,
		det:      det,
		redactor: &files.Redactor{OCR: ocrAdapter, UseTextGate: cfg.TextGate},
	}, nil
}

// Inspect runs the full pipeline for one request.
func (e *engine) Inspect(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	endpoint := req.EndpointName()
	snap := e.settingsSnapshot(ctx)
	saved := e.saveAttachment(req, endpoint)

	// Traffic for services the dashboard switched off passes through
	// untouched, but still leaves its one log record.
	if !snap.Monitored(req.Interface, req.Host) {
		slog.Debug("inspect: service not monitored",
			"request_id", requestID, "interface", req.Interface, "host", req.Host)
		decision := policy.Decision{Allow: true, Action: policy.ActionAllowUnmonitored}
		processingMS := time.Since(start).Milliseconds()
		if err := e.persist(ctx, requestID, req, saved, nil, req.Prompt,
			false, false, decision, "", processingMS); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
		}
		return &Result{
			RequestID:      requestID,
			Host:           req.Host,
			Allow:          true,
			ModifiedPrompt: req.Prompt,
			Action:         decision.Action,
			Attachment:     req.Attachment,
			ProcessingMS:   processingMS,
		}, nil
	}

	// OCR runs once, ahead of both the similarity gate and the image
	// redactor.
	var ocrOut ocr.Output
	if saved != nil && saved.IsImage() {
		ocrOut = e.redactor.ImageText(ctx, saved)
	}

	// Blocklist similarity check. Only near-textless images qualify: a
	// text-bearing screenshot belongs to the OCR redaction path, however
	// much it resembles a blocklisted image.
	simBlocked := false
	if saved != nil && saved.IsImage() && e.cfg.AdminImageDir != "" &&
		ocrOut.Used && similarity.NearTextless(ocrOut.Text) {
		score, match, err := similarity.BestAgainstFolder(saved.Path, e.cfg.AdminImageDir)
		switch {
		case err != nil:
			slog.Warn("inspect: similarity check failed", "request_id", requestID, "error", err)
		case score >= e.cfg.SimilarityThreshold:
			simBlocked = true
			slog.Info("inspect: attachment matches blocklisted image",
				"request_id", requestID, "score", score, "match", match)
		}
	}

	// Regex stage over the raw prompt, then the AI stage over the
	// pre-masked rendition so the model never sees already-caught values.
	regexSpans := detect.DetectAll(req.Prompt)
	spans := regexSpans
	promptSensitive := len(regexSpans) > 0
	var aiMS int64
	if e.det != nil {
		res := e.det.Analyze(ctx, mask.WithParens(req.Prompt, regexSpans))
		aiMS = res.ElapsedMS
		spans = detect.Merge(regexSpans, detect.Rebase(req.Prompt, res.Entities))
		promptSensitive = promptSensitive || res.HasSensitive || len(spans) > 0
	}

	// Attachment redaction. A produced rendition means the file carried
	// sensitive content.
	var outcome files.Outcome
	fileSensitive := false
	if saved != nil && !simBlocked {
		if saved.IsImage() {
			outcome = e.redactor.RedactImage(saved, ocrOut)
		} else {
			outcome = e.redactor.Redact(ctx, saved)
		}
		fileSensitive = outcome.Performed
	}

	decision := policy.Decide(snap.ResponseMethod, promptSensitive, fileSensitive)
	if simBlocked {
		decision = policy.SimilarBlock()
	}

	modified := req.Prompt
	if promptSensitive && len(spans) > 0 {
		modified = mask.ByEntities(req.Prompt, spans)
	}
	responsePrompt := req.Prompt
	if decision.UseMasked {
		responsePrompt = modified
	}

	outAttachment, fileChange := e.responseAttachment(req, saved, outcome, decision)

	hasSensitive := promptSensitive || fileSensitive || simBlocked
	alert := ""
	if simBlocked {
		alert = "차단 대상 이미지와 유사하여 업로드가 차단되었습니다."
	} else if hasSensitive {
		alert = buildAlert(spans)
	}

	processingMS := time.Since(start).Milliseconds()
	if aiMS > processingMS {
		processingMS = aiMS
	}

	if err := e.persist(ctx, requestID, req, saved, spans, modified,
		hasSensitive, fileChange, decision, alert, processingMS); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	return &Result{
		RequestID:      requestID,
		Host:           req.Host,
		HasSensitive:   hasSensitive,
		Entities:       spans,
		ModifiedPrompt: responsePrompt,
		Allow:          decision.Allow,
		FileBlocked:    decision.FileBlocked,
		FileChange:     fileChange,
		Action:         decision.Action,
		Alert:          alert,
		ProcessingMS:   processingMS,
		Attachment:     outAttachment,
	}, nil
}

// saveAttachment persists the request attachment, if any. Failures are
// logged and degrade to no attachment: a broken upload must not abort the
// prompt inspection.
func (e *engine) saveAttachment(req Request, endpoint string) *files.SavedFileInfo {
	if req.Attachment == nil {
		return nil
	}
	saved, err := files.Save(files.SaveInput{
		Format:   req.Attachment.Format,
		Data:     req.Attachment.Data,
		Time:     req.Time,
		PublicIP: req.PublicIP,
		Endpoint: endpoint,
	}, e.cfg.DownloadsDir)
	if err != nil {
		slog.Warn("inspect: saving attachment failed", "error", err)
		return nil
	}
	return saved
}

// responseAttachment picks the attachment handed back to the agent: the
// redacted rendition when one was produced, the original otherwise, and
// nothing at all when the file is blocked.
func (e *engine) responseAttachment(req Request, saved *files.SavedFileInfo,
	outcome files.Outcome, decision policy.Decision) (*Attachment, bool) {

	if saved == nil || decision.FileBlocked {
		return nil, false
	}
	if !outcome.Performed {
		return req.Attachment, false
	}

	data, err := os.ReadFile(outcome.Path)
	if err != nil {
		slog.Warn("inspect: reading redacted attachment failed", "path", outcome.Path, "error", err)
		return req.Attachment, false
	}
	enc := base64.StdEncoding.EncodeToString(data)
	return &Attachment{
		Format: strings.TrimPrefix(filepath.Ext(outcome.Path), "."),
		Data:   enc,
		Size:   int64(len(data)),
	}, enc != req.Attachment.Data
}

func (e *engine) persist(ctx context.Context, requestID string, req Request,
	saved *files.SavedFileInfo, spans []detect.Span, modified string,
	hasSensitive, fileChange bool, decision policy.Decision,
	alert string, processingMS int64) error {

	var entitiesJSON string
	if len(spans) > 0 {
		data, err := json.Marshal(spans)
		if err != nil {
			return fmt.Errorf("encoding entities: %w", err)
		}
		entitiesJSON = string(data)
	}

	var attachmentJSON string
	if saved != nil {
		data, err := json.Marshal(map[string]interface{}{
			"format": saved.Ext,
			"mime":   saved.MIME,
			"path":   saved.Path,
			"size":   req.Attachment.Size,
		})
		if err != nil {
			return fmt.Errorf("encoding attachment info: %w", err)
		}
		attachmentJSON = string(data)
	}

	return e.store.CreateLogRecord(ctx, store.LogRecord{
		RequestID:      requestID,
		Time:           req.Time,
		PublicIP:       req.PublicIP,
		PrivateIP:      req.PrivateIP,
		Host:           req.Host,
		Hostname:       req.EndpointName(),
		Prompt:         req.Prompt,
		Attachment:     attachmentJSON,
		Interface:      req.Interface,
		ModifiedPrompt: modified,
		HasSensitive:   hasSensitive,
		Entities:       entitiesJSON,
		ProcessingMS:   processingMS,
		FileBlocked:    decision.FileBlocked,
		FileChange:     fileChange,
		Allow:          decision.Allow,
		Action:         decision.Action,
		Alert:          alert,
	})
}

// settingsSnapshot reads the settings once per request so a concurrent
// dashboard update cannot flip the policy mid-inspection.
func (e *engine) settingsSnapshot(ctx context.Context) *policy.Snapshot {
	st, err := e.store.GetOrCreateSettings(ctx)
	if err != nil {
		slog.Warn("inspect: reading settings failed, using defaults", "error", err)
		def := store.DefaultSettings()
		return &policy.Snapshot{
			ResponseMethod: def.ResponseMethod,
			ServiceFilters: def.ServiceFilters,
			Version:        1,
		}
	}
	return &policy.Snapshot{
		ResponseMethod: st.Config.ResponseMethod,
		ServiceFilters: st.Config.ServiceFilters,
		Version:        st.Version,
	}
}

// Settings returns the current dashboard settings.
func (e *engine) Settings(ctx context.Context) (*store.Settings, error) {
	return e.store.GetOrCreateSettings(ctx)
}

// Recent returns the newest inspection records.
func (e *engine) Recent(ctx context.Context, limit int) ([]store.LogRecord, error) {
	return e.store.ListRecent(ctx, limit)
}

// Store returns the underlying store for diagnostic access.
func (e *engine) Store() *store.Store {
	return e.store
}

// Close shuts down the engine.
func (e *engine) Close() error {
	return e.store.Close()
}
