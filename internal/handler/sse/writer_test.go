package sse

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEventWriter_WriteEvent(t *testing.T) {
	rec := httptest.NewRecorder()

	writer, err := NewEventWriter(rec)
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}

	if err := writer.WriteEvent(map[string]string{"type": "text-delta", "delta": "hi"}); err != nil {
		t.Fatalf("WriteEvent() error = %v", err)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "data: ") {
		t.Errorf("frame should start with data prefix, got %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Errorf("frame should end with a blank line, got %q", body)
	}
	if !strings.Contains(body, `"text-delta"`) {
		t.Errorf("frame should carry the JSON payload, got %q", body)
	}
}

func TestEventWriter_WriteKeepAlive(t *testing.T) {
	rec := httptest.NewRecorder()

	writer, err := NewEventWriter(rec)
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	if err := writer.WriteKeepAlive(); err != nil {
		t.Fatalf("WriteKeepAlive() error = %v", err)
	}

	if got := rec.Body.String(); got != ": keepalive\n\n" {
		t.Errorf("keepalive frame = %q", got)
	}
}

func TestEventWriter_InterleavedFramesStayWhole(t *testing.T) {
	rec := httptest.NewRecorder()

	writer, err := NewEventWriter(rec)
	if err != nil {
		t.Fatalf("NewEventWriter() error = %v", err)
	}

	for i := 0; i < 20; i++ {
		if err := writer.WriteEvent(map[string]string{"type": "text-delta", "delta": "word"}); err != nil {
			t.Fatalf("WriteEvent() error = %v", err)
		}
		if err := writer.WriteKeepAlive(); err != nil {
			t.Fatalf("WriteKeepAlive() error = %v", err)
		}
	}

	for _, frame := range strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n") {
		if frame != ": keepalive" && !strings.HasPrefix(frame, "data: {") {
			t.Fatalf("malformed frame %q", frame)
		}
	}
}

func TestHeartbeat_DeliversTicks(t *testing.T) {
	heartbeat := NewHeartbeat(time.Millisecond)
	defer heartbeat.Stop()

	select {
	case <-heartbeat.C():
	case <-time.After(2 * time.Second):
		t.Fatal("no tick delivered")
	}
}

func TestHeartbeat_StopEndsTicks(t *testing.T) {
	heartbeat := NewHeartbeat(time.Hour)
	heartbeat.Stop()

	select {
	case <-heartbeat.C():
		t.Error("tick delivered after Stop")
	case <-time.After(20 * time.Millisecond):
	}
}
