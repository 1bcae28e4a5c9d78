package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/hub"
	"github.com/MrSnakeDoc/beacon/internal/logger"
)

func TestWSSnapshotThenLive(t *testing.T) {
	log := logger.New("error", false)
	snapshot := func() [][]byte {
		return [][]byte{
			[]byte(`{"type":"health_update","services":{}}`),
			[]byte(`{"type":"message_flow","messages":[]}`),
		}
	}
	h := hub.New(hub.NewRateLimiter(time.Minute, 100), snapshot, log)
	h.Start(context.Background())
	defer h.Stop()

	d := testDeps()
	d.Hub = h

	srv := httptest.NewServer(WS(d))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	readType := func() string {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("unmarshal %s: %v", frame, err)
		}
		return env.Type
	}

	if got := readType(); got != hub.TypeHealthUpdate {
		t.Fatalf("first frame = %q, want %q", got, hub.TypeHealthUpdate)
	}
	if got := readType(); got != hub.TypeMessageFlow {
		t.Fatalf("second frame = %q, want %q", got, hub.TypeMessageFlow)
	}

	// A broadcast issued after the snapshot was queued arrives afterwards.
	h.Broadcast([]byte(`{"type":"mqtt_message"}`))
	if got := readType(); got != hub.TypeMQTTMessage {
		t.Fatalf("live frame = %q, want %q", got, hub.TypeMQTTMessage)
	}
}

func TestWSSnapshotCarriesStoredMessagesInOrder(t *testing.T) {
	log := logger.New("error", false)

	d := testDeps()
	now := time.Now()
	var wantIDs []string
	for i, payload := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		id := d.Store.Store(domain.NewEvent("beacon/events/t", []byte(payload), now.Add(time.Duration(i)*time.Second)))
		wantIDs = append(wantIDs, id)
	}

	h := hub.New(hub.NewRateLimiter(time.Minute, 100), func() [][]byte {
		return [][]byte{hub.MessageFlowFrame(d.Store.Recent(100))}
	}, log)
	h.Start(context.Background())
	defer h.Stop()
	d.Hub = h

	srv := httptest.NewServer(WS(d))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var env struct {
		Type     string `json:"type"`
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != hub.TypeMessageFlow {
		t.Fatalf("frame type = %q, want %q", env.Type, hub.TypeMessageFlow)
	}
	if len(env.Messages) != len(wantIDs) {
		t.Fatalf("snapshot carries %d messages, want %d", len(env.Messages), len(wantIDs))
	}
	for i, want := range wantIDs {
		if env.Messages[i].ID != want {
			t.Errorf("snapshot[%d] = %s, want %s (stored order)", i, env.Messages[i].ID, want)
		}
	}
}

func TestWSInboundFloodGetsRateLimitNotice(t *testing.T) {
	log := logger.New("error", false)
	h := hub.New(hub.NewRateLimiter(time.Minute, 3), nil, log)
	h.Start(context.Background())
	defer h.Stop()

	d := testDeps()
	d.Hub = h

	srv := httptest.NewServer(WS(d))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	for i := 0; i < 4; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"noise":true}`)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var env struct {
		Type         string `json:"type"`
		RetryAfterMS int64  `json:"retry_after_ms"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != hub.TypeRateLimited {
		t.Fatalf("frame type = %q, want %q", env.Type, hub.TypeRateLimited)
	}
	if env.RetryAfterMS <= 0 {
		t.Errorf("retry_after_ms = %d, want > 0", env.RetryAfterMS)
	}
}
