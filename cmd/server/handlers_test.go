package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sentinelsec/inspector"
	"github.com/sentinelsec/inspector/store"
)

type fakeEngine struct {
	res      *inspector.Result
	err      error
	settings *store.Settings
}

func (f *fakeEngine) Inspect(_ context.Context, _ inspector.Request) (*inspector.Result, error) {
	return f.res, f.err
}

func (f *fakeEngine) Settings(_ context.Context) (*store.Settings, error) {
	return f.settings, nil
}

func (f *fakeEngine) Recent(_ context.Context, _ int) ([]store.LogRecord, error) {
	return nil, nil
}

func (f *fakeEngine) Store() *store.Store { return nil }
func (f *fakeEngine) Close() error        { return nil }

func newTestServer(e inspector.Engine, adminKey string) *httptest.Server {
	h := newHandler(e, adminKey)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/logs", h.handleLogs)
	mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	mux.HandleFunc("GET /api/healthz", h.handleHealth)
	return httptest.NewServer(recoveryMiddleware(securityHeadersMiddleware(mux)))
}

func TestHandleLogsOK(t *testing.T) {
	e := &fakeEngine{res: &inspector.Result{
		RequestID:      "req-1",
		HasSensitive:   true,
		Allow:          true,
		Action:         "mask_and_allow",
		ModifiedPrompt: "my number is (PHONE)",
	}}
	srv := newTestServer(e, "")
	defer srv.Close()

	body := `{"time":"2024-01-02T10:30:00","prompt":"my number is 010-1234-5678"}`
	resp, err := http.Post(srv.URL+"/api/logs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("missing security header, got %q", got)
	}

	var out inspector.Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.RequestID != "req-1" || out.Action != "mask_and_allow" {
		t.Errorf("response = %+v", out)
	}
}

func TestHandleLogsBadBody(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, "")
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/logs", "application/json", strings.NewReader("{broken"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestHandleLogsValidationError(t *testing.T) {
	srv := newTestServer(&fakeEngine{err: inspector.ErrMissingPrompt}, "")
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/logs", "application/json",
		strings.NewReader(`{"time":"t"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestSettingsAdminKey(t *testing.T) {
	e := &fakeEngine{settings: &store.Settings{Config: store.DefaultSettings(), Version: 1}}
	srv := newTestServer(e, "hunter2")
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/settings")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/settings", nil)
	req.Header.Set("X-Admin-Key", "hunter2")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with key: status = %d", resp.StatusCode)
	}
}

func TestGetSettingsOpenWhenNoKey(t *testing.T) {
	e := &fakeEngine{settings: &store.Settings{Config: store.DefaultSettings(), Version: 2}}
	srv := newTestServer(e, "")
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/settings")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out store.Settings
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Version != 2 || out.Config.ResponseMethod != "mask" {
		t.Errorf("settings = %+v", out)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeEngine{}, "")
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out["ok"] {
		t.Errorf("body = %v", out)
	}
}
