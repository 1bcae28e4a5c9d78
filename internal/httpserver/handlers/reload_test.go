package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReloadTriggers(t *testing.T) {
	d := testDeps()
	d.ReloadTrigger = make(chan struct{}, 1)

	rec := httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case <-d.ReloadTrigger:
	default:
		t.Error("reload trigger not fired")
	}
}

func TestReloadBusy(t *testing.T) {
	d := testDeps()
	d.ReloadTrigger = make(chan struct{}, 1)
	d.ReloadTrigger <- struct{}{} // pending trigger not yet consumed

	rec := httptest.NewRecorder()
	Reload(d)(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestHealthzReportsProcess(t *testing.T) {
	d := testDeps()
	d.Version = "1.2.3"

	rec := httptest.NewRecorder()
	Healthz(d)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status        string  `json:"status"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Version       string  `json:"version"`
	}
	decodeBody(t, rec, &resp)

	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.UptimeSeconds < 0 {
		t.Errorf("uptime = %f, want >= 0", resp.UptimeSeconds)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", resp.Version)
	}
}
