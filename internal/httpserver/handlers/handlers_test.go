package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/bus"
	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/health"
	"github.com/MrSnakeDoc/beacon/internal/httpserver/deps"
	"github.com/MrSnakeDoc/beacon/internal/logger"
	"github.com/MrSnakeDoc/beacon/internal/store/messages"
)

// fakeBus records publishes and simulates a broker link.
type fakeBus struct {
	connected  bool
	publishErr error

	topics   []string
	payloads [][]byte
}

func (f *fakeBus) IsConnected() bool { return f.connected }

func (f *fakeBus) Publish(topic string, payload []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeBus) Close() {}

func testDeps() deps.Deps {
	return deps.Deps{
		Logger:      logger.New("error", false),
		StartTime:   time.Now(),
		HealthState: health.NewState(),
		Store:       messages.New(messages.Options{}),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthSnapshot(t *testing.T) {
	d := testDeps()
	d.HealthState.Publish(map[string]domain.HealthRecord{
		"beacon-stt": {ServiceName: "beacon-stt", Status: domain.StatusHealthy, Timestamp: time.Now()},
		"beacon-tts": {ServiceName: "beacon-tts", Status: domain.StatusUnhealthy, Timestamp: time.Now()},
	})

	rec := httptest.NewRecorder()
	Health(d)(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}

	var resp struct {
		Status   string                         `json:"status"`
		Services map[string]domain.HealthRecord `json:"services"`
	}
	decodeBody(t, rec, &resp)

	if resp.Status != "healthy" {
		t.Errorf("status field = %q, want healthy", resp.Status)
	}
	if len(resp.Services) != 2 {
		t.Fatalf("services = %d, want 2", len(resp.Services))
	}
	if resp.Services["beacon-tts"].Status != domain.StatusUnhealthy {
		t.Errorf("beacon-tts status = %q, want unhealthy", resp.Services["beacon-tts"].Status)
	}
}

func TestMessagesFilters(t *testing.T) {
	d := testDeps()
	now := time.Now()
	d.Store.Store(domain.NewEvent("beacon/events/detect", []byte(`{"word":"hello"}`), now))
	d.Store.Store(domain.NewEvent("beacon/events/detect", []byte(`{"word":"goodbye"}`), now.Add(time.Second)))
	d.Store.Store(domain.NewEvent("beacon/health/stt", []byte(`{"ok":true}`), now.Add(2*time.Second)))

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"all", "/api/messages", 3},
		{"limit", "/api/messages?limit=2", 2},
		{"topic", "/api/messages?topic=beacon/health/stt", 1},
		{"search", "/api/messages?q=goodbye", 1},
		{"search no match", "/api/messages?q=absent", 0},
		{"bad limit ignored", "/api/messages?limit=zero", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Messages(d)(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp struct {
				Messages []domain.StoredEvent `json:"messages"`
			}
			decodeBody(t, rec, &resp)
			if resp.Messages == nil {
				t.Fatal("messages must serialize as [], never null")
			}
			if len(resp.Messages) != tt.want {
				t.Errorf("messages = %d, want %d", len(resp.Messages), tt.want)
			}
		})
	}
}

func TestPublishHappyPath(t *testing.T) {
	d := testDeps()
	fb := &fakeBus{connected: true}
	d.Bus = fb

	body := `{"topic":"beacon/control/light","message":{"state":"on"}}`
	rec := httptest.NewRecorder()
	Publish(d)(rec, httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(fb.topics) != 1 || fb.topics[0] != "beacon/control/light" {
		t.Fatalf("published topics = %v", fb.topics)
	}
	if string(fb.payloads[0]) != `{"state":"on"}` {
		t.Errorf("payload = %s", fb.payloads[0])
	}
}

func TestPublishUnwrapsStringMessages(t *testing.T) {
	d := testDeps()
	fb := &fakeBus{connected: true}
	d.Bus = fb

	body := `{"topic":"beacon/control/light","message":"on"}`
	rec := httptest.NewRecorder()
	Publish(d)(rec, httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if string(fb.payloads[0]) != "on" {
		t.Errorf("payload = %q, want bare text on", fb.payloads[0])
	}
}

func TestPublishValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"topic":`},
		{"missing topic", `{"message":"on"}`},
		{"missing message", `{"topic":"beacon/control/light"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDeps()
			d.Bus = &fakeBus{connected: true}

			rec := httptest.NewRecorder()
			Publish(d)(rec, httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestPublishBusDown(t *testing.T) {
	d := testDeps()
	d.Bus = &fakeBus{connected: false}

	body := `{"topic":"beacon/control/light","message":"on"}`
	rec := httptest.NewRecorder()
	Publish(d)(rec, httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(body)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.Status != "error" || resp.Error == "" {
		t.Errorf("body = %+v, want an error envelope", resp)
	}
}

func TestPublishLinkDropsMidRequest(t *testing.T) {
	d := testDeps()
	d.Bus = &fakeBus{connected: true, publishErr: bus.ErrNotConnected}

	body := `{"topic":"beacon/control/light","message":"on"}`
	rec := httptest.NewRecorder()
	Publish(d)(rec, httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(body)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestPublishOtherBusError(t *testing.T) {
	d := testDeps()
	d.Bus = &fakeBus{connected: true, publishErr: errors.New("broker rejected message")}

	body := `{"topic":"beacon/control/light","message":"on"}`
	rec := httptest.NewRecorder()
	Publish(d)(rec, httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(body)))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
