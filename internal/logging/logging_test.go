package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{"Debug level JSON format", LevelDebug, FormatJSON},
		{"Info level JSON format", LevelInfo, FormatJSON},
		{"Warn level JSON format", LevelWarn, FormatJSON},
		{"Error level JSON format", LevelError, FormatJSON},
		{"Info level Text format", LevelInfo, FormatText},
		{"Default level (invalid value)", Level(999), FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if GetLogger() == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}
	InitLogger(LevelInfo, FormatJSON)
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID = %q; want req-123", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID on empty context = %q; want empty", got)
	}
}

func TestContextLoggingCarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-request-id")
	output := captureLogOutput(func() {
		InfoContext(ctx, "saving chapter", "bible", "demo")
	})
	if !strings.Contains(output, "test-request-id") {
		t.Error("Expected output to contain request ID")
	}
	if !strings.Contains(output, "saving chapter") {
		t.Error("Expected output to contain message")
	}
}

func TestHTTPRequest(t *testing.T) {
	output := captureLogOutput(func() {
		HTTPRequest("POST", "/editone/update", "127.0.0.1:1234", 200, 100*time.Millisecond)
	})
	if !strings.Contains(output, "POST") || !strings.Contains(output, "/editone/update") {
		t.Errorf("missing request fields in %q", output)
	}
	if !strings.Contains(output, "http_request") {
		t.Error("Expected output to contain http_request")
	}
}

func TestMergeEvent(t *testing.T) {
	output := captureLogOutput(func() {
		MergeEvent("demo", 1, 2, 0)
	})
	if !strings.Contains(output, "merge_event") {
		t.Error("Expected output to contain merge_event")
	}
	if !strings.Contains(output, `"INFO"`) {
		t.Errorf("clean merge should log at info: %q", output)
	}

	output = captureLogOutput(func() {
		MergeEvent("demo", 1, 2, 3)
	})
	if !strings.Contains(output, `"WARN"`) {
		t.Errorf("conflicted merge should log at warn: %q", output)
	}
}

func TestSaveEvents(t *testing.T) {
	output := captureLogOutput(func() {
		SaveEvent("alice", "demo", 1, 2)
	})
	if !strings.Contains(output, "save_event") || !strings.Contains(output, "alice") {
		t.Errorf("missing save fields in %q", output)
	}

	output = captureLogOutput(func() {
		SaveRejected("bob", "demo", 1, 2, "text too different")
	})
	if !strings.Contains(output, "save_rejected") || !strings.Contains(output, "text too different") {
		t.Errorf("missing rejection fields in %q", output)
	}
}

func TestWebSocketEvent(t *testing.T) {
	output := captureLogOutput(func() {
		WebSocketEvent("client_connected", 5)
	})
	if !strings.Contains(output, "websocket_event") || !strings.Contains(output, "client_connected") {
		t.Errorf("missing websocket fields in %q", output)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("Expected request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	middleware := RequestIDMiddleware(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	middleware.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header to be set")
	}

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "existing-req-id-123")
	w = httptest.NewRecorder()
	middleware.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "existing-req-id-123" {
		t.Errorf("Expected existing request ID to be kept, got %q", got)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("response body"))
	})

	middleware := LoggingMiddleware(handler)
	req := httptest.NewRequest("GET", "/diff", nil)
	w := httptest.NewRecorder()

	output := captureLogOutput(func() {
		middleware.ServeHTTP(w, req)
	})

	if !strings.Contains(output, "/diff") {
		t.Errorf("Expected output to contain path, got %q", output)
	}
	// Write without WriteHeader defaults to 200.
	if !strings.Contains(output, "200") {
		t.Errorf("Expected status 200 in %q", output)
	}
}

func TestCombinedMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("Expected request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	middleware := CombinedMiddleware(handler)
	req := httptest.NewRequest("GET", "/combined", nil)
	w := httptest.NewRecorder()

	output := captureLogOutput(func() {
		middleware.ServeHTTP(w, req)
	})

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
	if !strings.Contains(output, "/combined") {
		t.Error("Expected output to contain path")
	}
}

func TestGenerateRequestID(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateRequestID()
		if len(id) != 16 {
			t.Errorf("Expected request ID length 16, got %d", len(id))
		}
		if ids[id] {
			t.Error("Generated duplicate request ID")
		}
		ids[id] = true
	}
}
